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

const (
	interviewQuestionCount = 5
	defaultMCQCount        = 3

	// Outbound payload cap. Large submissions are truncated before the
	// evaluation call to stay under the provider's request limits.
	maxCodeChars = 60000
)

// CodeEvaluationFallback decides what happens when the external evaluation
// fails permanently: substitute a deterministic result or propagate.
type CodeEvaluationFallback interface {
	Fallback(taskDescription string, cause error) (*pipeline.CodeEvaluation, error)
}

// PropagateCodeEvaluationFailure surfaces the failure unchanged.
type PropagateCodeEvaluationFailure struct{}

func (PropagateCodeEvaluationFailure) Fallback(_ string, cause error) (*pipeline.CodeEvaluation, error) {
	return nil, cause
}

// GenericCodeEvaluationFallback substitutes a fixed, reproducible result so
// the rest of the pipeline can proceed without the external evaluator.
type GenericCodeEvaluationFallback struct{}

func (GenericCodeEvaluationFallback) Fallback(taskDescription string, cause error) (*pipeline.CodeEvaluation, error) {
	log.Printf("⚠️  Code evaluation fell back to generic result: %v\n", cause)

	questions := []string{
		"Walk me through the overall structure of your solution.",
		"Which part of the task was the most difficult to implement, and why?",
		"How did you test your solution?",
		"What would you change if the input size grew by 100x?",
		"What trade-offs did you make while solving this task?",
	}

	mcqs := []pipeline.MCQQuestion{
		{
			Question:      "What is the main benefit of writing automated tests?",
			Options:       []string{"Faster compilation", "Catching regressions early", "Smaller binaries", "Prettier code"},
			CorrectAnswer: "B",
		},
		{
			Question:      "Which practice most improves code readability?",
			Options:       []string{"Clear naming", "Longer functions", "Global variables", "Deep nesting"},
			CorrectAnswer: "A",
		},
		{
			Question:      "When should errors from an external service be retried?",
			Options:       []string{"Always", "Never", "Only transient failures", "Only validation failures"},
			CorrectAnswer: "C",
		},
	}

	return &pipeline.CodeEvaluation{
		QualityScore:       50,
		Description:        fmt.Sprintf("Automated evaluation was unavailable for this submission. Task: %s", truncate(taskDescription, 200)),
		InterviewQuestions: questions,
		MCQQuestions:       mcqs,
	}, nil
}

type CodeEvaluatorService struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	fallback      CodeEvaluationFallback
	mcqCount      int
}

func NewCodeEvaluatorService(gemini GeminiService, fallback CodeEvaluationFallback, mcqCount int) *CodeEvaluatorService {
	if fallback == nil {
		fallback = PropagateCodeEvaluationFailure{}
	}
	if mcqCount <= 0 {
		mcqCount = defaultMCQCount
	}
	return &CodeEvaluatorService{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		fallback:      fallback,
		mcqCount:      mcqCount,
	}
}

var codeEvaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"code_quality_score": {Type: genai.TypeInteger},
		"code_description":   {Type: genai.TypeString},
		"interview_questions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"mcq_questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {Type: genai.TypeString},
					"options": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"correct_answer": {Type: genai.TypeString},
				},
				Required: []string{"question", "options", "correct_answer"},
			},
		},
	},
	Required: []string{"code_quality_score", "code_description", "interview_questions", "mcq_questions"},
}

// EvaluateCode implements pipeline.CodeEvaluator.
func (s *CodeEvaluatorService) EvaluateCode(ctx context.Context, code, taskDescription, jobDescription string) (*pipeline.CodeEvaluation, error) {
	code = truncate(code, maxCodeChars)

	prompt := s.promptBuilder.BuildCodeEvaluationPrompt(code, taskDescription, jobDescription, interviewQuestionCount, s.mcqCount)
	log.Printf("📝 Code evaluation prompt length: %d characters\n", len(prompt))

	response, err := s.gemini.GenerateJSON(ctx, prompt, codeEvaluationSchema, 0.3)
	if err != nil {
		if pipeline.IsTransient(err) {
			return nil, err
		}
		return s.fallback.Fallback(taskDescription, err)
	}

	result, err := s.parseEvaluation(response)
	if err != nil {
		return s.fallback.Fallback(taskDescription, pipeline.NewPermanentError("gemini", err))
	}

	return result, nil
}

func (s *CodeEvaluatorService) parseEvaluation(response string) (*pipeline.CodeEvaluation, error) {
	var result pipeline.CodeEvaluation
	if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal code evaluation: %w", err)
	}

	if result.QualityScore < 1 {
		result.QualityScore = 1
	}
	if result.QualityScore > 100 {
		result.QualityScore = 100
	}
	if strings.TrimSpace(result.Description) == "" {
		return nil, errors.New("code evaluation missing description")
	}

	if len(result.InterviewQuestions) < interviewQuestionCount {
		return nil, fmt.Errorf("code evaluation returned %d interview questions, need %d",
			len(result.InterviewQuestions), interviewQuestionCount)
	}
	result.InterviewQuestions = result.InterviewQuestions[:interviewQuestionCount]

	if len(result.MCQQuestions) < s.mcqCount {
		return nil, fmt.Errorf("code evaluation returned %d MCQ questions, need %d",
			len(result.MCQQuestions), s.mcqCount)
	}
	result.MCQQuestions = result.MCQQuestions[:s.mcqCount]

	for i := range result.MCQQuestions {
		q := &result.MCQQuestions[i]
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("MCQ question %d has %d options, need 4", i+1, len(q.Options))
		}
		q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if q.CorrectAnswer != "A" && q.CorrectAnswer != "B" && q.CorrectAnswer != "C" && q.CorrectAnswer != "D" {
			return nil, fmt.Errorf("MCQ question %d has invalid correct answer %q", i+1, q.CorrectAnswer)
		}
	}

	return &result, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response that should contain a JSON object or array.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
