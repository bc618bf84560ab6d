package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"aihiring/candidate-pipeline/internal/pipeline"
)

// SimilarityService scores how semantically aligned two text artifacts are
// on a 1-100 scale by comparing their embeddings.
type SimilarityService struct {
	gemini GeminiService
}

func NewSimilarityService(gemini GeminiService) *SimilarityService {
	return &SimilarityService{gemini: gemini}
}

// Similarity implements pipeline.SimilarityScorer. Cosine similarity is
// rescaled from [-1,1] to [1,100]. Empty input yields the low default
// without an embedding call.
func (s *SimilarityService) Similarity(ctx context.Context, textA, textB string) (int, error) {
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return 1, nil
	}

	var embA, embB []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		embA, err = s.gemini.GenerateEmbedding(gctx, textA)
		return err
	})
	g.Go(func() error {
		var err error
		embB, err = s.gemini.GenerateEmbedding(gctx, textB)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	cos, err := cosineSimilarity(embA, embB)
	if err != nil {
		return 0, pipeline.NewPermanentError("embedding", err)
	}

	score := int(math.Round((cos + 1) / 2 * 100))
	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, errors.New("embedding vectors have mismatched dimensions")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, errors.New("zero-magnitude embedding vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
