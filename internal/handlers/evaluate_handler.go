package handlers

import (
	"encoding/json"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"aihiring/candidate-pipeline/internal/models"
	"aihiring/candidate-pipeline/internal/pipeline"
	"aihiring/candidate-pipeline/internal/services"
)

type EvaluateHandler struct {
	orchestrator *pipeline.Orchestrator
	repoFetcher  *services.RepoFetcherService
	interviews   *services.InterviewService
	storage      services.StorageService
	pdfParser    services.PDFParserService
}

func NewEvaluateHandler(
	orchestrator *pipeline.Orchestrator,
	repoFetcher *services.RepoFetcherService,
	interviews *services.InterviewService,
	storage services.StorageService,
	pdfParser services.PDFParserService,
) *EvaluateHandler {
	return &EvaluateHandler{
		orchestrator: orchestrator,
		repoFetcher:  repoFetcher,
		interviews:   interviews,
		storage:      storage,
		pdfParser:    pdfParser,
	}
}

// HandleStart handles POST /evaluate/start: it creates the session, runs
// code evaluation and fit scoring, and returns the generated interview
// material. The code artifact comes either from a direct code_solution field
// or from a repo_link reference.
func (h *EvaluateHandler) HandleStart(c *fiber.Ctx) error {
	candidateID := strings.TrimSpace(c.FormValue("candidate_id"))
	jdID := strings.TrimSpace(c.FormValue("jd_id"))
	jobDescription := c.FormValue("job_description")
	idealProfile := c.FormValue("ideal_candidate_profile")
	taskDescription := c.FormValue("task_description")
	codeSolution := c.FormValue("code_solution")
	repoLink := strings.TrimSpace(c.FormValue("repo_link"))

	if codeSolution == "" && repoLink == "" {
		return respondError(c, pipeline.NewValidationError("either code_solution or repo_link is required"))
	}

	resumeFile, err := c.FormFile("resume_file")
	if err != nil {
		return respondError(c, pipeline.NewValidationError("resume_file is required"))
	}
	if resumeFile.Size < 1000 {
		return respondError(c, pipeline.NewValidationError("resume file appears to be empty or corrupted"))
	}

	resumePath, err := h.storage.SaveResume(resumeFile, candidateID)
	if err != nil {
		return respondError(c, err)
	}
	defer func() {
		if err := h.storage.DeleteFile(resumePath); err != nil {
			log.Printf("⚠️  Failed to remove resume file %s: %v\n", resumePath, err)
		}
	}()

	resumeText, err := h.pdfParser.ExtractText(resumePath)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Context()

	code := codeSolution
	if code == "" {
		code, err = h.repoFetcher.FetchRepository(ctx, repoLink)
		if err != nil {
			return respondError(c, err)
		}
	}

	sess, err := h.orchestrator.StartSession(pipeline.SessionParams{
		CandidateID:     candidateID,
		JDID:            jdID,
		JobDescription:  jobDescription,
		IdealProfile:    idealProfile,
		TaskDescription: taskDescription,
		ResumeText:      resumeText,
	})
	if err != nil {
		return respondError(c, err)
	}

	codeEval, err := h.orchestrator.RunCodeEvaluation(ctx, candidateID, code)
	if err != nil {
		h.discardSession(candidateID)
		return respondError(c, err)
	}

	fitScores, err := h.orchestrator.RunFitScoring(ctx, candidateID)
	if err != nil {
		h.discardSession(candidateID)
		return respondError(c, err)
	}

	audio := h.interviews.GenerateQuestionAudio(ctx, codeEval.InterviewQuestions)

	mcqViews := make([]models.MCQQuestionView, len(codeEval.MCQQuestions))
	for i, q := range codeEval.MCQQuestions {
		mcqViews[i] = models.MCQQuestionView{Question: q.Question, Options: q.Options}
	}

	return c.JSON(models.StartEvaluationResponse{
		Status:             "success",
		Message:            "Initial evaluation complete. Candidate can now proceed to the interview.",
		CandidateID:        candidateID,
		JDID:               jdID,
		Stage:              sess.Stage().String(),
		CodeQualityScore:   codeEval.QualityScore,
		CodeDescription:    codeEval.Description,
		InterviewQuestions: codeEval.InterviewQuestions,
		InterviewAudio:     audio,
		MCQQuestions:       mcqViews,
		ScoresSoFar: models.ScoresSoFar{
			CodeQuality: codeEval.QualityScore,
			ResumeFit:   fitScores.ResumeFit,
			CodeFit:     fitScores.CodeFit,
		},
		NextStep: "Record responses to interview_questions and answer mcq_questions, then POST /evaluate/submit-responses",
	})
}

// HandleSubmitResponses handles POST /evaluate/submit-responses: it scores
// the MCQ answers, transcribes the recordings, runs the final analysis and
// finalizes the session.
func (h *EvaluateHandler) HandleSubmitResponses(c *fiber.Ctx) error {
	candidateID := strings.TrimSpace(c.FormValue("candidate_id"))
	if candidateID == "" {
		return respondError(c, pipeline.NewValidationError("candidate_id is required"))
	}

	var mcqAnswers []string
	if err := json.Unmarshal([]byte(c.FormValue("mcq_answers")), &mcqAnswers); err != nil {
		return respondError(c, pipeline.NewValidationError(`invalid mcq_answers format, expected JSON array like ["A","B","C"]`))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, pipeline.NewValidationError("failed to parse multipart form"))
	}

	videoFiles := form.File["interview_videos"]
	if len(videoFiles) == 0 {
		return respondError(c, pipeline.NewValidationError("no interview recordings provided"))
	}

	recordings := make([][]byte, 0, len(videoFiles))
	for i, fh := range videoFiles {
		src, err := fh.Open()
		if err != nil {
			return respondError(c, pipeline.NewValidationError("failed to read recording %d", i+1))
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return respondError(c, pipeline.NewValidationError("failed to read recording %d", i+1))
		}
		recordings = append(recordings, data)
	}

	ctx := c.Context()

	responseScores, err := h.orchestrator.RunResponseScoring(ctx, candidateID, recordings, mcqAnswers)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.orchestrator.RunFinalAnalysis(ctx, candidateID)
	if err != nil {
		return respondError(c, err)
	}

	// Collect the component scores before finalize removes the session.
	sess, err := h.orchestrator.Session(candidateID)
	if err != nil {
		return respondError(c, err)
	}
	fitScores, err := sess.FitScores()
	if err != nil {
		return respondError(c, err)
	}
	codeEval, err := sess.CodeEvaluation()
	if err != nil {
		return respondError(c, err)
	}

	if err := h.orchestrator.FinalizeAndIndex(ctx, candidateID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SubmitResponsesResponse{
		Status:         "success",
		Message:        "Evaluation complete!",
		CandidateID:    candidateID,
		OverallScore:   result.OverallScore,
		Recommendation: string(result.Recommendation),
		Scores: models.ScoreBreakdown{
			ResumeFit:       fitScores.ResumeFit,
			CodeFit:         fitScores.CodeFit,
			CodeQuality:     codeEval.QualityScore,
			VideoInterview:  result.VideoInterviewScore,
			MCQ:             responseScores.MCQ.Score,
			MCQCorrectCount: responseScores.MCQ.CorrectCount,
			MCQTotalCount:   responseScores.MCQ.TotalCount,
		},
		Summary:            result.Summary,
		Strengths:          result.Strengths,
		Weaknesses:         result.Weaknesses,
		EvaluationComplete: true,
	})
}

// discardSession removes a session whose start-phase transition failed so
// the candidate can restart cleanly.
func (h *EvaluateHandler) discardSession(candidateID string) {
	if err := h.orchestrator.Cancel(candidateID); err != nil {
		log.Printf("⚠️  Failed to discard session %s: %v\n", candidateID, err)
	}
}
