package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// NoResponseSentinel fills transcript slots for missing or undersized
// recordings so the Q/A positional correspondence is always preserved.
const NoResponseSentinel = "no response provided"

// Capability interfaces consumed by the orchestrator. Concrete
// implementations live in internal/services; tests substitute fakes.

type CodeEvaluator interface {
	EvaluateCode(ctx context.Context, code, taskDescription, jobDescription string) (*CodeEvaluation, error)
}

type SimilarityScorer interface {
	Similarity(ctx context.Context, textA, textB string) (int, error)
}

type InterviewProcessor interface {
	Transcribe(ctx context.Context, questions []string, recordings [][]byte) ([]string, error)
	EstimateQuality(transcripts []string) int
}

type FinalAnalysisInput struct {
	JobDescription     string
	ResumeText         string
	CodeDescription    string
	TaskDescription    string
	ResumeFit          int
	CodeFit            int
	CodeQuality        int
	MCQScore           int
	InterviewQuestions []string
	Transcripts        []string
}

// FinalAnalysis is the external analyzer's advisory output. The overall
// score it carries is narrative-generating only; the orchestrator recomputes
// the committed number locally.
type FinalAnalysis struct {
	OverallScore        int      `json:"overall_score"`
	VideoInterviewScore int      `json:"video_interview_score"`
	Summary             string   `json:"summary"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	Recommendation      string   `json:"recommendation"`
}

type FinalAnalyzer interface {
	Analyze(ctx context.Context, in FinalAnalysisInput) (*FinalAnalysis, error)
}

// FinalizedCandidate is the immutable package handed to the persistence
// collaborators once a session reaches FINALIZED.
type FinalizedCandidate struct {
	CandidateID string
	JDID        string
	ResumeFit   int
	CodeFit     int
	CodeQuality int
	MCQScore    int
	Result      FinalResult
	CreatedAt   time.Time
	FinalizedAt time.Time
}

type CandidateIndexer interface {
	IndexCandidate(ctx context.Context, candidate FinalizedCandidate) error
}

type CandidateRecorder interface {
	SaveFinalized(candidate FinalizedCandidate) error
}

// Orchestrator owns the candidate-evaluation lifecycle: it sequences the
// four stages in strict order, commits each stage's immutable output into
// the session, and is the sole authority for the final weighted score.
type Orchestrator struct {
	store       SessionStore
	codeEval    CodeEvaluator
	similarity  SimilarityScorer
	interviews  InterviewProcessor
	analyzer    FinalAnalyzer
	indexer     CandidateIndexer  // nil when no vector index is configured
	recorder    CandidateRecorder // nil when no database is configured
	retry       RetryPolicy
	callTimeout time.Duration
}

type OrchestratorOption func(*Orchestrator)

func WithIndexer(indexer CandidateIndexer) OrchestratorOption {
	return func(o *Orchestrator) { o.indexer = indexer }
}

func WithRecorder(recorder CandidateRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.recorder = recorder }
}

func WithRetryPolicy(policy RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.retry = policy }
}

func WithCallTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.callTimeout = timeout }
}

func NewOrchestrator(
	store SessionStore,
	codeEval CodeEvaluator,
	similarity SimilarityScorer,
	interviews InterviewProcessor,
	analyzer FinalAnalyzer,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		codeEval:    codeEval,
		similarity:  similarity,
		interviews:  interviews,
		analyzer:    analyzer,
		retry:       DefaultRetryPolicy(),
		callTimeout: 120 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StartSession creates a session in CREATED and registers it in the store.
func (o *Orchestrator) StartSession(p SessionParams) (*EvaluationSession, error) {
	if strings.TrimSpace(p.CandidateID) == "" {
		return nil, NewValidationError("candidate_id is required")
	}
	if strings.TrimSpace(p.JobDescription) == "" {
		return nil, NewValidationError("job description is required")
	}
	if strings.TrimSpace(p.IdealProfile) == "" {
		return nil, NewValidationError("ideal candidate profile is required")
	}
	if strings.TrimSpace(p.TaskDescription) == "" {
		return nil, NewValidationError("task description is required")
	}
	if strings.TrimSpace(p.ResumeText) == "" {
		return nil, NewValidationError("resume text is required")
	}

	sess := NewSession(p)
	if err := o.store.Put(sess); err != nil {
		return nil, err
	}

	log.Printf("🚀 Evaluation session created for candidate %s (job %s)\n", p.CandidateID, p.JDID)
	return sess, nil
}

func (o *Orchestrator) Session(candidateID string) (*EvaluationSession, error) {
	return o.store.Get(candidateID)
}

func (o *Orchestrator) ActiveSessions() int {
	return o.store.Count()
}

// RunCodeEvaluation transitions CREATED -> CODE_EVALUATED. The code artifact
// has already been resolved (direct submission or repository fetch) by the
// caller.
func (o *Orchestrator) RunCodeEvaluation(ctx context.Context, candidateID, code string) (*CodeEvaluation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewValidationError("code solution is empty")
	}

	sess, err := o.store.Get(candidateID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.requireStage("run_code_evaluation", StageCreated); err != nil {
		return nil, err
	}

	log.Printf("🤖 [%s] Evaluating code solution...\n", candidateID)

	var result *CodeEvaluation
	err = o.retry.Do(ctx, "code evaluation", func() error {
		cctx, cancel := o.callContext(ctx)
		defer cancel()
		var callErr error
		result, callErr = o.codeEval.EvaluateCode(cctx, code, sess.TaskDescription, sess.JobDescription)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("code evaluation for candidate %s: %w", candidateID, err)
	}

	sess.commitCodeEvaluation(result)
	log.Printf("✅ [%s] Code quality %d/100, %d interview questions, %d MCQs\n",
		candidateID, result.QualityScore, len(result.InterviewQuestions), len(result.MCQQuestions))
	return result, nil
}

// RunFitScoring transitions CODE_EVALUATED -> FIT_SCORED. The two similarity
// calls read only immutable prior state, so they run concurrently.
func (o *Orchestrator) RunFitScoring(ctx context.Context, candidateID string) (*FitScores, error) {
	sess, err := o.store.Get(candidateID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.requireStage("run_fit_scoring", StageCodeEvaluated); err != nil {
		return nil, err
	}

	log.Printf("🔍 [%s] Calculating vector fit scores...\n", candidateID)

	codeDescription := sess.codeEval.Description

	var resumeFit, codeFit int
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.retry.Do(gctx, "resume fit scoring", func() error {
			cctx, cancel := o.callContext(gctx)
			defer cancel()
			score, callErr := o.similarity.Similarity(cctx, sess.IdealProfile, sess.ResumeText)
			if callErr != nil {
				return callErr
			}
			resumeFit = score
			return nil
		})
	})

	g.Go(func() error {
		return o.retry.Do(gctx, "code fit scoring", func() error {
			cctx, cancel := o.callContext(gctx)
			defer cancel()
			score, callErr := o.similarity.Similarity(cctx, sess.TaskDescription, codeDescription)
			if callErr != nil {
				return callErr
			}
			codeFit = score
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit scoring for candidate %s: %w", candidateID, err)
	}

	scores := &FitScores{ResumeFit: resumeFit, CodeFit: codeFit}
	sess.commitFitScores(scores)
	log.Printf("✅ [%s] Resume fit %d/100, code fit %d/100\n", candidateID, resumeFit, codeFit)
	return scores, nil
}

// RunResponseScoring transitions FIT_SCORED -> RESPONSES_SCORED.
// Transcription and MCQ scoring touch disjoint output fields, so they run
// concurrently. Transcripts are padded with the no-response sentinel to keep
// positional alignment with the interview questions.
func (o *Orchestrator) RunResponseScoring(ctx context.Context, candidateID string, recordings [][]byte, mcqAnswers []string) (*ResponseScores, error) {
	sess, err := o.store.Get(candidateID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.requireStage("run_response_scoring", StageFitScored); err != nil {
		return nil, err
	}

	log.Printf("🎬 [%s] Processing interview recordings and MCQ answers...\n", candidateID)

	questions := sess.codeEval.InterviewQuestions
	mcqQuestions := sess.codeEval.MCQQuestions

	var transcripts []string
	var mcqResult MCQResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.retry.Do(gctx, "transcription", func() error {
			cctx, cancel := o.callContext(gctx)
			defer cancel()
			out, callErr := o.interviews.Transcribe(cctx, questions, recordings)
			if callErr != nil {
				return callErr
			}
			transcripts = out
			return nil
		})
	})

	g.Go(func() error {
		mcqResult = ScoreMCQ(mcqQuestions, mcqAnswers)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("response scoring for candidate %s: %w", candidateID, err)
	}

	transcripts = padTranscripts(transcripts, len(questions))

	scores := &ResponseScores{MCQ: mcqResult, Transcripts: transcripts}
	sess.commitResponseScores(scores)
	log.Printf("✅ [%s] MCQ %d/100 (%d/%d correct), %d transcripts\n",
		candidateID, mcqResult.Score, mcqResult.CorrectCount, mcqResult.TotalCount, len(transcripts))
	return scores, nil
}

// RunFinalAnalysis transitions RESPONSES_SCORED -> FINALIZED. The external
// analyzer contributes the narrative and, when in range, the video interview
// sub-score; the committed overall score and recommendation are always
// computed locally from the weighted formula.
func (o *Orchestrator) RunFinalAnalysis(ctx context.Context, candidateID string) (*FinalResult, error) {
	sess, err := o.store.Get(candidateID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.requireStage("run_final_analysis", StageResponsesScored); err != nil {
		return nil, err
	}

	log.Printf("🤖 [%s] Generating final analysis...\n", candidateID)

	input := FinalAnalysisInput{
		JobDescription:     sess.JobDescription,
		ResumeText:         sess.ResumeText,
		CodeDescription:    sess.codeEval.Description,
		TaskDescription:    sess.TaskDescription,
		ResumeFit:          sess.fitScores.ResumeFit,
		CodeFit:            sess.fitScores.CodeFit,
		CodeQuality:        sess.codeEval.QualityScore,
		MCQScore:           sess.responseScores.MCQ.Score,
		InterviewQuestions: sess.codeEval.InterviewQuestions,
		Transcripts:        sess.responseScores.Transcripts,
	}

	var analysis *FinalAnalysis
	err = o.retry.Do(ctx, "final analysis", func() error {
		cctx, cancel := o.callContext(ctx)
		defer cancel()
		var callErr error
		analysis, callErr = o.analyzer.Analyze(cctx, input)
		return callErr
	})
	if err != nil {
		if IsTransient(err) {
			return nil, fmt.Errorf("final analysis for candidate %s: %w", candidateID, err)
		}
		// Permanent analyzer failure: fall back fully to the local
		// computation and the heuristic video score.
		log.Printf("⚠️  [%s] Final analysis unavailable, using local fallback: %v\n", candidateID, err)
		analysis = nil
	}

	videoScore := o.interviews.EstimateQuality(input.Transcripts)
	if analysis != nil && InScoreRange(analysis.VideoInterviewScore) {
		videoScore = analysis.VideoInterviewScore
	}

	overall := ComputeOverallScore(input.ResumeFit, input.CodeFit, input.CodeQuality, videoScore, input.MCQScore)

	result := &FinalResult{
		OverallScore:        overall,
		VideoInterviewScore: videoScore,
		Recommendation:      RecommendationFor(overall),
	}
	if analysis != nil {
		result.Summary = analysis.Summary
		result.Strengths = analysis.Strengths
		result.Weaknesses = analysis.Weaknesses
	}
	if result.Summary == "" {
		result.Summary = fmt.Sprintf(
			"Automated evaluation summary: overall score %d/100 (resume fit %d, code fit %d, code quality %d, interview %d, MCQ %d).",
			overall, input.ResumeFit, input.CodeFit, input.CodeQuality, videoScore, input.MCQScore)
	}

	sess.commitFinalResult(result)
	log.Printf("✅ [%s] Overall %d/100 → %s\n", candidateID, overall, result.Recommendation)
	return result, nil
}

// FinalizeAndIndex hands the finalized result to the configured persistence
// collaborators and removes the session from working storage. It only
// writes, never mutates session state, so it is safe to retry on failure.
func (o *Orchestrator) FinalizeAndIndex(ctx context.Context, candidateID string) error {
	sess, err := o.store.Get(candidateID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.requireStage("finalize_and_index", StageFinalized); err != nil {
		return err
	}

	candidate := FinalizedCandidate{
		CandidateID: sess.CandidateID,
		JDID:        sess.JDID,
		ResumeFit:   sess.fitScores.ResumeFit,
		CodeFit:     sess.fitScores.CodeFit,
		CodeQuality: sess.codeEval.QualityScore,
		MCQScore:    sess.responseScores.MCQ.Score,
		Result:      *sess.finalResult,
		CreatedAt:   sess.CreatedAt,
		FinalizedAt: sess.FinalizedAt,
	}

	if o.indexer != nil {
		err := o.retry.Do(ctx, "candidate indexing", func() error {
			cctx, cancel := o.callContext(ctx)
			defer cancel()
			return o.indexer.IndexCandidate(cctx, candidate)
		})
		if err != nil {
			return fmt.Errorf("indexing candidate %s: %w", candidateID, err)
		}
		log.Printf("💾 [%s] Candidate indexed\n", candidateID)
	}

	if o.recorder != nil {
		if err := o.recorder.SaveFinalized(candidate); err != nil {
			return fmt.Errorf("saving candidate record %s: %w", candidateID, err)
		}
		log.Printf("💾 [%s] Candidate record saved\n", candidateID)
	}

	o.store.Delete(candidateID)
	log.Printf("✅ [%s] Evaluation complete, session removed\n", candidateID)
	return nil
}

// Cancel removes an in-flight session. A finalized session can no longer be
// cancelled.
func (o *Orchestrator) Cancel(candidateID string) error {
	sess, err := o.store.Get(candidateID)
	if err != nil {
		return err
	}

	if sess.Stage() == StageFinalized {
		return NewValidationError("candidate %s is already finalized and cannot be cancelled", candidateID)
	}

	o.store.Delete(candidateID)
	log.Printf("🛑 [%s] Evaluation cancelled\n", candidateID)
	return nil
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.callTimeout)
}

func padTranscripts(transcripts []string, want int) []string {
	if len(transcripts) > want {
		return transcripts[:want]
	}
	for len(transcripts) < want {
		transcripts = append(transcripts, NoResponseSentinel)
	}
	return transcripts
}
