package services

import (
	"fmt"
	"strings"

	"aihiring/candidate-pipeline/internal/pipeline"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildCodeEvaluationPrompt creates the prompt for the code-evaluation stage.
func (pb *PromptBuilder) BuildCodeEvaluationPrompt(code, taskDescription, jobDescription string, interviewQuestionCount, mcqCount int) string {
	return fmt.Sprintf(`Evaluate this code submission and generate interview questions.

JOB DESCRIPTION:
%s

TASK:
%s

CODE:
%s

Generate:
1. code_quality_score (1-100): Evaluate functionality, efficiency, code quality
2. code_description: 2-3 sentences explaining what the code does and how
3. interview_questions: exactly %d targeted questions about THIS specific code
4. mcq_questions: exactly %d multiple choice questions (4 options each, mark correct answer as A/B/C/D)

Return valid JSON only.`,
		jobDescription, taskDescription, code, interviewQuestionCount, mcqCount)
}

// BuildFinalAnalysisPrompt creates the prompt for the final comprehensive
// analysis. The component scores are fixed inputs; the model contributes the
// narrative and the video interview sub-score.
func (pb *PromptBuilder) BuildFinalAnalysisPrompt(in pipeline.FinalAnalysisInput) string {
	var qa strings.Builder
	for i, q := range in.InterviewQuestions {
		answer := pipeline.NoResponseSentinel
		if i < len(in.Transcripts) {
			answer = in.Transcripts[i]
		}
		fmt.Fprintf(&qa, "Q: %s\nA: %s\n", q, answer)
	}

	return fmt.Sprintf(`Final comprehensive candidate analysis.

JOB DESCRIPTION:
%s

RESUME:
%s

TASK:
%s

CODE DESCRIPTION:
%s

SCORES (Fixed Inputs):
- Resume Fit: %d/100
- Code Fit: %d/100
- Code Quality: %d/100
- MCQ Score: %d/100

VIDEO INTERVIEW Q&A:
%s

TASKS:
1. video_interview_score (1-100): Evaluate technical depth, clarity, communication from transcripts
2. overall_score: Calculate weighted average:
   - 15%% × resume_fit_score
   - 15%% × code_fit_score
   - 30%% × code_quality_score
   - 25%% × video_interview_score
   - 15%% × mcq_score
3. summary: 2-3 paragraph comprehensive summary
4. strengths: 4-6 specific evidence-based strengths
5. weaknesses: 3-5 areas for improvement
6. recommendation: "Strong Hire" (90-100) | "Hire" (75-89) | "Maybe" (60-74) | "No Hire" (<60)

Return valid JSON only.`,
		in.JobDescription, in.ResumeText, in.TaskDescription, in.CodeDescription,
		in.ResumeFit, in.CodeFit, in.CodeQuality, in.MCQScore, qa.String())
}

// BuildTranscriptionPrompt creates the instruction sent alongside a
// recording.
func (pb *PromptBuilder) BuildTranscriptionPrompt() string {
	return "Transcribe everything spoken in this recording. Return ONLY the transcription text. No commentary."
}
