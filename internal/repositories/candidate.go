package repositories

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"aihiring/candidate-pipeline/internal/models"
	"aihiring/candidate-pipeline/internal/pipeline"
)

type CandidateRepository interface {
	SaveFinalized(candidate pipeline.FinalizedCandidate) error
	FindByCandidateID(candidateID string) (*models.CandidateRecord, error)
	ListByJD(jdID string, limit int) ([]models.CandidateRecord, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// SaveFinalized implements pipeline.CandidateRecorder.
func (r *candidateRepository) SaveFinalized(candidate pipeline.FinalizedCandidate) error {
	record := &models.CandidateRecord{
		ID:                  uuid.New(),
		CandidateID:         candidate.CandidateID,
		JDID:                candidate.JDID,
		OverallScore:        candidate.Result.OverallScore,
		ResumeFitScore:      candidate.ResumeFit,
		CodeFitScore:        candidate.CodeFit,
		CodeQualityScore:    candidate.CodeQuality,
		VideoInterviewScore: candidate.Result.VideoInterviewScore,
		MCQScore:            candidate.MCQScore,
		Recommendation:      string(candidate.Result.Recommendation),
		Summary:             candidate.Result.Summary,
		Strengths:           strings.Join(candidate.Result.Strengths, "\n"),
		Weaknesses:          strings.Join(candidate.Result.Weaknesses, "\n"),
		CreatedAt:           candidate.CreatedAt,
		FinalizedAt:         candidate.FinalizedAt,
	}

	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create candidate record: %w", err)
	}
	return nil
}

func (r *candidateRepository) FindByCandidateID(candidateID string) (*models.CandidateRecord, error) {
	var record models.CandidateRecord
	err := r.db.
		Where("candidate_id = ?", candidateID).
		Order("finalized_at DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("candidate record not found")
		}
		return nil, fmt.Errorf("failed to find candidate record: %w", err)
	}
	return &record, nil
}

func (r *candidateRepository) ListByJD(jdID string, limit int) ([]models.CandidateRecord, error) {
	var records []models.CandidateRecord
	err := r.db.
		Where("jd_id = ?", jdID).
		Order("overall_score DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate records: %w", err)
	}
	return records, nil
}
