package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihiring/candidate-pipeline/internal/pipeline"
)

func validEvaluationJSON(t *testing.T, mutate func(map[string]interface{})) string {
	t.Helper()
	questions := []string{"q1", "q2", "q3", "q4", "q5"}
	mcqs := []map[string]interface{}{}
	for _, answer := range []string{"A", "B", "C"} {
		mcqs = append(mcqs, map[string]interface{}{
			"question":       "what does this code do?",
			"options":        []string{"one", "two", "three", "four"},
			"correct_answer": answer,
		})
	}
	payload := map[string]interface{}{
		"code_quality_score":  78,
		"code_description":    "A layered REST API with clear separation of concerns.",
		"interview_questions": questions,
		"mcq_questions":       mcqs,
	}
	if mutate != nil {
		mutate(payload)
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func TestEvaluateCode_ParsesValidResponse(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, nil)}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "build an api", "backend engineer")

	require.NoError(t, err)
	assert.Equal(t, 78, result.QualityScore)
	assert.Len(t, result.InterviewQuestions, 5)
	assert.Len(t, result.MCQQuestions, 3)
	assert.Equal(t, "A", result.MCQQuestions[0].CorrectAnswer)
}

func TestEvaluateCode_StripsMarkdownFences(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: "```json\n" + validEvaluationJSON(t, nil) + "\n```"}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, 78, result.QualityScore)
}

func TestEvaluateCode_TrimsExcessQuestions(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		p["interview_questions"] = []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"}
	})}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Len(t, result.InterviewQuestions, 5)
}

func TestEvaluateCode_ClampsQualityScore(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		p["code_quality_score"] = 150
	})}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, 100, result.QualityScore)
}

func TestEvaluateCode_NormalizesCorrectAnswer(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		mcqs := p["mcq_questions"].([]map[string]interface{})
		mcqs[0]["correct_answer"] = " b "
	})}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, "B", result.MCQQuestions[0].CorrectAnswer)
}

func TestEvaluateCode_TooFewQuestionsTriggersFallback(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		p["interview_questions"] = []string{"q1", "q2"}
	})}
	svc := NewCodeEvaluatorService(gemini, GenericCodeEvaluationFallback{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, 50, result.QualityScore)
	assert.Len(t, result.InterviewQuestions, 5)
	assert.Len(t, result.MCQQuestions, 3)
}

func TestEvaluateCode_InvalidCorrectAnswerTriggersFallback(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		mcqs := p["mcq_questions"].([]map[string]interface{})
		mcqs[1]["correct_answer"] = "E"
	})}
	svc := NewCodeEvaluatorService(gemini, GenericCodeEvaluationFallback{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, 50, result.QualityScore)
}

func TestEvaluateCode_WrongOptionCountPropagates(t *testing.T) {
	gemini := &fakeGemini{jsonResponse: validEvaluationJSON(t, func(p map[string]interface{}) {
		mcqs := p["mcq_questions"].([]map[string]interface{})
		mcqs[0]["options"] = []string{"one", "two"}
	})}
	svc := NewCodeEvaluatorService(gemini, PropagateCodeEvaluationFailure{}, 3)

	_, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
}

func TestEvaluateCode_TransientErrorBypassesFallback(t *testing.T) {
	gemini := &fakeGemini{jsonErr: pipeline.NewTransientError("gemini", errors.New("rate limited"))}
	svc := NewCodeEvaluatorService(gemini, GenericCodeEvaluationFallback{}, 3)

	_, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestEvaluateCode_PermanentErrorUsesFallback(t *testing.T) {
	gemini := &fakeGemini{jsonErr: pipeline.NewPermanentError("gemini", errors.New("blocked"))}
	svc := NewCodeEvaluatorService(gemini, GenericCodeEvaluationFallback{}, 3)

	result, err := svc.EvaluateCode(context.Background(), "package main", "task", "jd")

	require.NoError(t, err)
	assert.Equal(t, 50, result.QualityScore)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`Here is the result: {"a":1} hope it helps`))
	assert.Equal(t, `[1,2]`, extractJSON("```\n[1,2]\n```"))
	assert.Equal(t, "no json here", extractJSON("no json here"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
