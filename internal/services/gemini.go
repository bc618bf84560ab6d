package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"aihiring/candidate-pipeline/internal/pipeline"
)

type GeminiService interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, temperature float32) (string, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	TranscribeMedia(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	ttsModel   string
	ttsVoice   string
}

func NewGeminiService(apiKey, ttsVoice string) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  "gemini-2.5-flash",
		embedModel: "text-embedding-004",
		ttsModel:   "gemini-2.5-flash-preview-tts",
		ttsVoice:   ttsVoice,
	}, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError("gemini", err)
	}
	if resp == nil {
		return "", pipeline.NewPermanentError("gemini", errors.New("nil response"))
	}

	text := resp.Text()
	if text == "" {
		return "", pipeline.NewPermanentError("gemini", errors.New("no text content in response"))
	}

	return text, nil
}

// GenerateJSON implements GeminiService. The response is constrained to the
// given schema so downstream parsing only has to handle well-formed JSON.
func (g *geminiService) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError("gemini", err)
	}
	if resp == nil {
		return "", pipeline.NewPermanentError("gemini", errors.New("nil response"))
	}

	text := resp.Text()
	if text == "" {
		return "", pipeline.NewPermanentError("gemini", errors.New("no JSON content in response"))
	}

	return text, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, classifyGeminiError("embedding", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, pipeline.NewPermanentError("embedding", errors.New("empty embedding result"))
	}

	return result.Embeddings[0].Values, nil
}

// TranscribeMedia implements GeminiService. The recording is sent inline as
// a media part followed by the transcription instruction.
func (g *geminiService) TranscribeMedia(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	zero := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:     &zero,
		MaxOutputTokens: 2048,
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", classifyGeminiError("transcription", err)
	}
	if resp == nil {
		return "", pipeline.NewPermanentError("transcription", errors.New("nil response"))
	}

	return strings.TrimSpace(resp.Text()), nil
}

// GenerateSpeech implements GeminiService. Returns raw audio bytes for the
// given text using the configured prebuilt voice.
func (g *geminiService) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	if g.ttsVoice == "" {
		return nil, pipeline.NewPermanentError("tts", errors.New("no TTS voice configured"))
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: g.ttsVoice,
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.ttsModel, genai.Text(text), config)
	if err != nil {
		return nil, classifyGeminiError("tts", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, pipeline.NewPermanentError("tts", errors.New("no audio in response"))
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}

	return nil, pipeline.NewPermanentError("tts", errors.New("no audio part in response"))
}

// classifyGeminiError sorts an API failure into the retryable and
// non-retryable halves of the error taxonomy. Rate limits, timeouts and
// server-side errors are transient; everything else is permanent.
func classifyGeminiError(service string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return pipeline.NewTransientError(service, err)
		default:
			return pipeline.NewPermanentError(service, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return pipeline.NewTransientError(service, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "timeout") {
		return pipeline.NewTransientError(service, err)
	}

	return pipeline.NewPermanentError(service, err)
}
