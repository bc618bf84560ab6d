package services

import (
	"context"
	"encoding/base64"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"aihiring/candidate-pipeline/internal/models"
	"aihiring/candidate-pipeline/internal/pipeline"
)

// Recordings below this size carry no usable speech; they are mapped to the
// no-response sentinel without a transcription call.
const minRecordingBytes = 1000

const recordingMIMEType = "video/mp4"

// InterviewService transcribes recorded interview responses and provides the
// deterministic quality heuristic used when the external analyzer cannot
// score the interview itself. It also produces optional TTS audio for the
// generated questions.
type InterviewService struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	ttsEnabled    bool
}

func NewInterviewService(gemini GeminiService, ttsEnabled bool) *InterviewService {
	return &InterviewService{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		ttsEnabled:    ttsEnabled,
	}
}

// Transcribe implements pipeline.InterviewProcessor. The result is always
// position-aligned with questions; missing, undersized or unusable
// recordings yield the sentinel transcript. Transient transcription failures
// propagate so the whole transition can be retried.
func (s *InterviewService) Transcribe(ctx context.Context, questions []string, recordings [][]byte) ([]string, error) {
	transcripts := make([]string, len(questions))

	for i := range questions {
		if i >= len(recordings) || len(recordings[i]) < minRecordingBytes {
			transcripts[i] = pipeline.NoResponseSentinel
			continue
		}

		log.Printf("🎬 Transcribing response %d/%d (%d bytes)...\n", i+1, len(questions), len(recordings[i]))

		text, err := s.gemini.TranscribeMedia(ctx, recordings[i], recordingMIMEType, s.promptBuilder.BuildTranscriptionPrompt())
		if err != nil {
			if pipeline.IsTransient(err) {
				return nil, err
			}
			log.Printf("⚠️  Transcription %d failed permanently, recording no response: %v\n", i+1, err)
			transcripts[i] = pipeline.NoResponseSentinel
			continue
		}

		if len(strings.TrimSpace(text)) < 3 {
			transcripts[i] = pipeline.NoResponseSentinel
			continue
		}
		transcripts[i] = text
	}

	return transcripts, nil
}

// EstimateQuality implements pipeline.InterviewProcessor. It buckets the
// mean character length of the meaningful transcripts; sentinel and empty
// entries are excluded. With nothing to measure it returns the neutral 50.
func (s *InterviewService) EstimateQuality(transcripts []string) int {
	total := 0
	counted := 0
	for _, t := range transcripts {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || trimmed == pipeline.NoResponseSentinel {
			continue
		}
		total += len(trimmed)
		counted++
	}

	if counted == 0 {
		return 50
	}

	mean := total / counted
	switch {
	case mean < 30:
		return 35
	case mean < 80:
		return 55
	case mean < 200:
		return 70
	case mean < 400:
		return 85
	default:
		return 90
	}
}

// GenerateQuestionAudio produces TTS audio for each interview question.
// Audio is an optional enhancement: any failure degrades to a nil audio
// payload for that question instead of failing the evaluation.
func (s *InterviewService) GenerateQuestionAudio(ctx context.Context, questions []string) []models.InterviewAudio {
	audio := make([]models.InterviewAudio, len(questions))
	for i, q := range questions {
		audio[i] = models.InterviewAudio{Question: q}
	}

	if !s.ttsEnabled {
		return audio
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		g.Go(func() error {
			data, err := s.gemini.GenerateSpeech(gctx, q)
			if err != nil {
				log.Printf("⚠️  TTS generation failed for question %d: %v\n", i+1, err)
				return nil
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			mime := "audio/mpeg"
			audio[i].AudioBase64 = &encoded
			audio[i].MIMEType = &mime
			return nil
		})
	}
	_ = g.Wait()

	return audio
}
