package pipeline

import (
	"sync"
	"time"
)

// Stage is one committed phase of the evaluation state machine. It only
// advances, never regresses, and determines which result records are set.
type Stage int

const (
	StageCreated Stage = iota
	StageCodeEvaluated
	StageFitScored
	StageResponsesScored
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageCodeEvaluated:
		return "code_evaluated"
	case StageFitScored:
		return "fit_scored"
	case StageResponsesScored:
		return "responses_scored"
	case StageFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

type MCQQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type CodeEvaluation struct {
	QualityScore       int           `json:"code_quality_score"`
	Description        string        `json:"code_description"`
	InterviewQuestions []string      `json:"interview_questions"`
	MCQQuestions       []MCQQuestion `json:"mcq_questions"`
}

type FitScores struct {
	ResumeFit int `json:"resume_fit_score"`
	CodeFit   int `json:"code_fit_score"`
}

type MCQResult struct {
	Score        int `json:"mcq_score"`
	CorrectCount int `json:"correct_count"`
	TotalCount   int `json:"total_count"`
}

type ResponseScores struct {
	MCQ         MCQResult `json:"mcq_result"`
	Transcripts []string  `json:"transcripts"`
}

type Recommendation string

const (
	RecommendStrongHire Recommendation = "Strong Hire"
	RecommendHire       Recommendation = "Hire"
	RecommendMaybe      Recommendation = "Maybe"
	RecommendNoHire     Recommendation = "No Hire"
)

type FinalResult struct {
	OverallScore        int            `json:"overall_score"`
	VideoInterviewScore int            `json:"video_interview_score"`
	Recommendation      Recommendation `json:"recommendation"`
	Summary             string         `json:"summary"`
	Strengths           []string       `json:"strengths"`
	Weaknesses          []string       `json:"weaknesses"`
}

// EvaluationSession is the mutable-until-finalized record of one candidate's
// in-progress evaluation. Stage records are append-only: each is committed
// exactly once by its producing transition and immutable afterwards.
// Transitions on the same session are serialized by mu.
type EvaluationSession struct {
	mu sync.Mutex

	CandidateID     string
	JDID            string
	JobDescription  string
	IdealProfile    string
	TaskDescription string
	ResumeText      string

	stage          Stage
	codeEval       *CodeEvaluation
	fitScores      *FitScores
	responseScores *ResponseScores
	finalResult    *FinalResult

	CreatedAt   time.Time
	FinalizedAt time.Time
}

type SessionParams struct {
	CandidateID     string
	JDID            string
	JobDescription  string
	IdealProfile    string
	TaskDescription string
	ResumeText      string
}

func NewSession(p SessionParams) *EvaluationSession {
	return &EvaluationSession{
		CandidateID:     p.CandidateID,
		JDID:            p.JDID,
		JobDescription:  p.JobDescription,
		IdealProfile:    p.IdealProfile,
		TaskDescription: p.TaskDescription,
		ResumeText:      p.ResumeText,
		stage:           StageCreated,
		CreatedAt:       time.Now().UTC(),
	}
}

func (s *EvaluationSession) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// requireStage guards a transition. Callers must hold mu.
func (s *EvaluationSession) requireStage(op string, required Stage) error {
	if s.stage != required {
		return &PreconditionViolation{
			CandidateID: s.CandidateID,
			Stage:       s.stage,
			Required:    required,
			Operation:   op,
		}
	}
	return nil
}

// commit helpers advance the stage together with the stage's output so a
// failed transition never leaves a half-written session. Callers hold mu.

func (s *EvaluationSession) commitCodeEvaluation(ce *CodeEvaluation) {
	s.codeEval = ce
	s.stage = StageCodeEvaluated
}

func (s *EvaluationSession) commitFitScores(fs *FitScores) {
	s.fitScores = fs
	s.stage = StageFitScored
}

func (s *EvaluationSession) commitResponseScores(rs *ResponseScores) {
	s.responseScores = rs
	s.stage = StageResponsesScored
}

func (s *EvaluationSession) commitFinalResult(fr *FinalResult) {
	s.finalResult = fr
	s.stage = StageFinalized
	s.FinalizedAt = time.Now().UTC()
}

// Read accessors for committed stage output. Each returns an error until its
// producing stage has completed.

func (s *EvaluationSession) CodeEvaluation() (*CodeEvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeEval == nil {
		return nil, &PreconditionViolation{
			CandidateID: s.CandidateID,
			Stage:       s.stage,
			Required:    StageCodeEvaluated,
			Operation:   "read code evaluation",
		}
	}
	return s.codeEval, nil
}

func (s *EvaluationSession) FitScores() (*FitScores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fitScores == nil {
		return nil, &PreconditionViolation{
			CandidateID: s.CandidateID,
			Stage:       s.stage,
			Required:    StageFitScored,
			Operation:   "read fit scores",
		}
	}
	return s.fitScores, nil
}

func (s *EvaluationSession) ResponseScores() (*ResponseScores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responseScores == nil {
		return nil, &PreconditionViolation{
			CandidateID: s.CandidateID,
			Stage:       s.stage,
			Required:    StageResponsesScored,
			Operation:   "read response scores",
		}
	}
	return s.responseScores, nil
}

func (s *EvaluationSession) FinalResult() (*FinalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalResult == nil {
		return nil, &PreconditionViolation{
			CandidateID: s.CandidateID,
			Stage:       s.stage,
			Required:    StageFinalized,
			Operation:   "read final result",
		}
	}
	return s.finalResult, nil
}

// InterviewQuestions returns the generated interview questions, or an empty
// slice before code evaluation has run.
func (s *EvaluationSession) InterviewQuestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeEval == nil {
		return nil
	}
	return s.codeEval.InterviewQuestions
}

// MCQQuestions returns the generated MCQ questions, or an empty slice before
// code evaluation has run.
func (s *EvaluationSession) MCQQuestions() []MCQQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeEval == nil {
		return nil
	}
	return s.codeEval.MCQQuestions
}
