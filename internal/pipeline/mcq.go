package pipeline

import (
	"math"
	"strings"
)

// neutralMCQScore is committed when there are no MCQ questions to score, so
// the weighted final score never divides by zero.
const neutralMCQScore = 50

// ScoreMCQ scores candidate answers against the generated MCQ questions.
// Matching is strictly pairwise by position; indices beyond the shorter
// sequence earn neither credit nor penalty. Answers are compared
// case/whitespace-normalized, so "b" matches "B".
func ScoreMCQ(questions []MCQQuestion, answers []string) MCQResult {
	if len(questions) == 0 {
		return MCQResult{Score: neutralMCQScore, CorrectCount: 0, TotalCount: 0}
	}

	correct := 0
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		expected := normalizeAnswer(q.CorrectAnswer)
		got := normalizeAnswer(answers[i])
		if expected != "" && expected == got {
			correct++
		}
	}

	score := int(math.Round(float64(correct) / float64(len(questions)) * 100))
	return MCQResult{
		Score:        clampScore(score),
		CorrectCount: correct,
		TotalCount:   len(questions),
	}
}

func normalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
