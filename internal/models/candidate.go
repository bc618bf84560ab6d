package models

import (
	"time"

	"github.com/google/uuid"
)

// CandidateRecord is the minimal finalized-evaluation row kept for lookup
// after the in-flight session has been discarded.
type CandidateRecord struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CandidateID         string    `gorm:"type:text;not null;index" json:"candidate_id"`
	JDID                string    `gorm:"type:text;index" json:"jd_id"`
	OverallScore        int       `gorm:"not null" json:"overall_score"`
	ResumeFitScore      int       `json:"resume_fit_score"`
	CodeFitScore        int       `json:"code_fit_score"`
	CodeQualityScore    int       `json:"code_quality_score"`
	VideoInterviewScore int       `json:"video_interview_score"`
	MCQScore            int       `json:"mcq_score"`
	Recommendation      string    `gorm:"type:text" json:"recommendation"`
	Summary             string    `gorm:"type:text" json:"summary"`
	Strengths           string    `gorm:"type:text" json:"strengths"`
	Weaknesses          string    `gorm:"type:text" json:"weaknesses"`
	CreatedAt           time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	FinalizedAt         time.Time `gorm:"type:timestamp" json:"finalized_at"`
}

func (CandidateRecord) TableName() string {
	return "candidate_records"
}
