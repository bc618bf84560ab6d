package pipeline

import "math"

// Weighted-score formula. The orchestrator is the sole authority for the
// numeric overall score; the external analyzer's number is advisory only.
const (
	weightResumeFit      = 0.15
	weightCodeFit        = 0.15
	weightCodeQuality    = 0.30
	weightVideoInterview = 0.25
	weightMCQ            = 0.15
)

// ComputeOverallScore returns the clamped weighted sum of the five
// component scores.
func ComputeOverallScore(resumeFit, codeFit, codeQuality, videoInterview, mcqScore int) int {
	weighted := weightResumeFit*float64(resumeFit) +
		weightCodeFit*float64(codeFit) +
		weightCodeQuality*float64(codeQuality) +
		weightVideoInterview*float64(videoInterview) +
		weightMCQ*float64(mcqScore)
	return clampScore(int(math.Round(weighted)))
}

// RecommendationFor maps an overall score to a hiring recommendation.
func RecommendationFor(overallScore int) Recommendation {
	switch {
	case overallScore >= 90:
		return RecommendStrongHire
	case overallScore >= 75:
		return RecommendHire
	case overallScore >= 60:
		return RecommendMaybe
	default:
		return RecommendNoHire
	}
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 100 {
		return 100
	}
	return score
}

// InScoreRange reports whether an externally supplied score is usable as-is.
func InScoreRange(score int) bool {
	return score >= 1 && score <= 100
}
