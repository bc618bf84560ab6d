package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"aihiring/candidate-pipeline/internal/pipeline"
)

type QdrantService interface {
	InitCollection() error
	IndexCandidate(ctx context.Context, candidate pipeline.FinalizedCandidate) error
	SearchCandidates(ctx context.Context, jdText string, limit int) ([]CandidateHit, error)
}

type CandidateHit struct {
	CandidateID string                 `json:"candidate_id"`
	Score       float32                `json:"score"`
	Payload     map[string]interface{} `json:"payload"`
}

type qdrantService struct {
	client         *qdrant.Client
	gemini         GeminiService
	collectionName string
	vectorSize     uint64
}

func NewQdrantService(urlStr, apiKey, collectionName string, gemini GeminiService) (QdrantService, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		gemini:         gemini,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004 size
	}, nil
}

// InitCollection implements QdrantService.
func (q *qdrantService) InitCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Candidate collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})

	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// IndexCandidate implements pipeline.CandidateIndexer. The summary embedding
// keys searchability; the point ID is derived deterministically from the
// candidate ID so retries of the finalize step overwrite the same point.
func (q *qdrantService) IndexCandidate(ctx context.Context, candidate pipeline.FinalizedCandidate) error {
	embedding, err := q.gemini.GenerateEmbedding(ctx, candidate.Result.Summary)
	if err != nil {
		return fmt.Errorf("failed to embed candidate summary: %w", err)
	}

	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(candidate.CandidateID))

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"candidate_id":          candidate.CandidateID,
			"jd_id":                 candidate.JDID,
			"overall_score":         int64(candidate.Result.OverallScore),
			"video_interview_score": int64(candidate.Result.VideoInterviewScore),
			"resume_fit_score":      int64(candidate.ResumeFit),
			"code_fit_score":        int64(candidate.CodeFit),
			"code_quality_score":    int64(candidate.CodeQuality),
			"mcq_score":             int64(candidate.MCQScore),
			"recommendation":        string(candidate.Result.Recommendation),
			"summary":               candidate.Result.Summary,
			"strengths":             strings.Join(candidate.Result.Strengths, "\n"),
			"weaknesses":            strings.Join(candidate.Result.Weaknesses, "\n"),
			"created_at":            candidate.CreatedAt.Format(time.RFC3339),
			"finalized_at":          candidate.FinalizedAt.Format(time.RFC3339),
		}),
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return pipeline.NewTransientError("qdrant", fmt.Errorf("failed to upsert candidate point: %w", err))
	}

	return nil
}

// SearchCandidates implements QdrantService. Finds indexed candidates whose
// summaries align with the given job description text.
func (q *qdrantService) SearchCandidates(ctx context.Context, jdText string, limit int) ([]CandidateHit, error) {
	if limit <= 0 {
		limit = 5
	}

	embedding, err := q.gemini.GenerateEmbedding(ctx, jdText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, pipeline.NewTransientError("qdrant", fmt.Errorf("failed to search candidates: %w", err))
	}

	var hits []CandidateHit
	for _, point := range searchResult {
		hit := CandidateHit{
			Score:   point.Score,
			Payload: make(map[string]interface{}),
		}

		for key, value := range point.Payload {
			hit.Payload[key] = qdrantValue(value)
		}
		if id, ok := hit.Payload["candidate_id"].(string); ok {
			hit.CandidateID = id
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

func qdrantValue(v *qdrant.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}
