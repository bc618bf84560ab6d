package models

// InterviewAudio carries optional TTS audio for one interview question.
// AudioBase64 is nil when audio generation is disabled or failed.
type InterviewAudio struct {
	Question    string  `json:"question"`
	AudioBase64 *string `json:"audio_base64"`
	MIMEType    *string `json:"mime_type"`
}

// MCQQuestionView is an MCQ question as shown to the candidate, with the
// correct answer withheld.
type MCQQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type ScoresSoFar struct {
	CodeQuality int `json:"code_quality"`
	ResumeFit   int `json:"resume_fit"`
	CodeFit     int `json:"code_fit"`
}

type StartEvaluationResponse struct {
	Status             string            `json:"status"`
	Message            string            `json:"message"`
	CandidateID        string            `json:"candidate_id"`
	JDID               string            `json:"jd_id"`
	Stage              string            `json:"stage"`
	CodeQualityScore   int               `json:"code_quality_score"`
	CodeDescription    string            `json:"code_description"`
	InterviewQuestions []string          `json:"interview_questions"`
	InterviewAudio     []InterviewAudio  `json:"interview_audio"`
	MCQQuestions       []MCQQuestionView `json:"mcq_questions"`
	ScoresSoFar        ScoresSoFar       `json:"scores_so_far"`
	NextStep           string            `json:"next_step"`
}

type ScoreBreakdown struct {
	ResumeFit       int `json:"resume_fit"`
	CodeFit         int `json:"code_fit"`
	CodeQuality     int `json:"code_quality"`
	VideoInterview  int `json:"video_interview"`
	MCQ             int `json:"mcq"`
	MCQCorrectCount int `json:"mcq_correct_count"`
	MCQTotalCount   int `json:"mcq_total_count"`
}

type SubmitResponsesResponse struct {
	Status             string         `json:"status"`
	Message            string         `json:"message"`
	CandidateID        string         `json:"candidate_id"`
	OverallScore       int            `json:"overall_score"`
	Recommendation     string         `json:"recommendation"`
	Scores             ScoreBreakdown `json:"scores"`
	Summary            string         `json:"summary"`
	Strengths          []string       `json:"strengths"`
	Weaknesses         []string       `json:"weaknesses"`
	EvaluationComplete bool           `json:"evaluation_complete"`
}

type StatusResponse struct {
	Status      string `json:"status"`
	CandidateID string `json:"candidate_id"`
	JDID        string `json:"jd_id,omitempty"`
	Stage       string `json:"stage,omitempty"`
}
