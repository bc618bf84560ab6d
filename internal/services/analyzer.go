package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"aihiring/candidate-pipeline/internal/pipeline"
)

// FinalAnalyzerService runs the final comprehensive analysis call. Its
// numeric outputs are advisory; the orchestrator recomputes the committed
// overall score locally.
type FinalAnalyzerService struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
}

func NewFinalAnalyzerService(gemini GeminiService) *FinalAnalyzerService {
	return &FinalAnalyzerService{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
	}
}

var finalAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"overall_score":         {Type: genai.TypeInteger},
		"video_interview_score": {Type: genai.TypeInteger},
		"summary":               {Type: genai.TypeString},
		"strengths": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"weaknesses": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"recommendation": {Type: genai.TypeString},
	},
	Required: []string{"overall_score", "video_interview_score", "summary", "strengths", "weaknesses", "recommendation"},
}

// Analyze implements pipeline.FinalAnalyzer.
func (s *FinalAnalyzerService) Analyze(ctx context.Context, in pipeline.FinalAnalysisInput) (*pipeline.FinalAnalysis, error) {
	prompt := s.promptBuilder.BuildFinalAnalysisPrompt(in)
	log.Printf("📝 Final analysis prompt length: %d characters\n", len(prompt))

	response, err := s.gemini.GenerateJSON(ctx, prompt, finalAnalysisSchema, 0.2)
	if err != nil {
		return nil, err
	}

	var analysis pipeline.FinalAnalysis
	if err := json.Unmarshal([]byte(extractJSON(response)), &analysis); err != nil {
		return nil, pipeline.NewPermanentError("gemini", fmt.Errorf("failed to unmarshal final analysis: %w", err))
	}

	if strings.TrimSpace(analysis.Summary) == "" {
		return nil, pipeline.NewPermanentError("gemini", errors.New("final analysis missing summary"))
	}

	return &analysis, nil
}
