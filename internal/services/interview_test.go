package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihiring/candidate-pipeline/internal/pipeline"
)

func TestEstimateQuality_Buckets(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{}, false)

	tests := []struct {
		name    string
		lengths []int
		want    int
	}{
		{"very short answers", []int{10, 10}, 35},
		{"short answers", []int{50}, 55},
		{"medium answers", []int{150}, 70},
		{"long answers", []int{300}, 85},
		{"very long answers", []int{500}, 90},
		{"mixed lengths average", []int{100, 200}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcripts := make([]string, len(tt.lengths))
			for i, n := range tt.lengths {
				transcripts[i] = strings.Repeat("a", n)
			}
			assert.Equal(t, tt.want, svc.EstimateQuality(transcripts))
		})
	}
}

func TestEstimateQuality_NoMeaningfulTranscripts(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{}, false)

	assert.Equal(t, 50, svc.EstimateQuality(nil))
	assert.Equal(t, 50, svc.EstimateQuality([]string{"", "   "}))
	assert.Equal(t, 50, svc.EstimateQuality([]string{
		pipeline.NoResponseSentinel,
		pipeline.NoResponseSentinel,
	}))
}

func TestEstimateQuality_SentinelsExcludedFromMean(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{}, false)

	// One 300-char answer plus sentinels: the mean is over the single
	// meaningful answer only.
	transcripts := []string{
		strings.Repeat("a", 300),
		pipeline.NoResponseSentinel,
		pipeline.NoResponseSentinel,
	}
	assert.Equal(t, 85, svc.EstimateQuality(transcripts))
}

func TestTranscribe_UndersizedRecordingSkipsCall(t *testing.T) {
	gemini := &fakeGemini{
		transcribeFn: func([]byte) (string, error) { return "should not be called", nil },
	}
	svc := NewInterviewService(gemini, false)

	transcripts, err := svc.Transcribe(context.Background(),
		[]string{"q1", "q2"},
		[][]byte{make([]byte, 100), nil},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{pipeline.NoResponseSentinel, pipeline.NoResponseSentinel}, transcripts)
	assert.Equal(t, 0, gemini.transcribeCalls)
}

func TestTranscribe_MissingRecordingsPadWithSentinel(t *testing.T) {
	gemini := &fakeGemini{
		transcribeFn: func([]byte) (string, error) { return "I used a layered architecture.", nil },
	}
	svc := NewInterviewService(gemini, false)

	transcripts, err := svc.Transcribe(context.Background(),
		[]string{"q1", "q2", "q3"},
		[][]byte{make([]byte, 2000)},
	)

	require.NoError(t, err)
	require.Len(t, transcripts, 3)
	assert.Equal(t, "I used a layered architecture.", transcripts[0])
	assert.Equal(t, pipeline.NoResponseSentinel, transcripts[1])
	assert.Equal(t, pipeline.NoResponseSentinel, transcripts[2])
	assert.Equal(t, 1, gemini.transcribeCalls)
}

func TestTranscribe_PermanentFailureYieldsSentinel(t *testing.T) {
	gemini := &fakeGemini{
		transcribeFn: func([]byte) (string, error) {
			return "", pipeline.NewPermanentError("gemini", errors.New("unsupported codec"))
		},
	}
	svc := NewInterviewService(gemini, false)

	transcripts, err := svc.Transcribe(context.Background(),
		[]string{"q1"}, [][]byte{make([]byte, 2000)})

	require.NoError(t, err)
	assert.Equal(t, []string{pipeline.NoResponseSentinel}, transcripts)
}

func TestTranscribe_TransientFailurePropagates(t *testing.T) {
	gemini := &fakeGemini{
		transcribeFn: func([]byte) (string, error) {
			return "", pipeline.NewTransientError("gemini", errors.New("rate limited"))
		},
	}
	svc := NewInterviewService(gemini, false)

	_, err := svc.Transcribe(context.Background(),
		[]string{"q1"}, [][]byte{make([]byte, 2000)})

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestTranscribe_TooShortTranscriptBecomesSentinel(t *testing.T) {
	gemini := &fakeGemini{
		transcribeFn: func([]byte) (string, error) { return " a ", nil },
	}
	svc := NewInterviewService(gemini, false)

	transcripts, err := svc.Transcribe(context.Background(),
		[]string{"q1"}, [][]byte{make([]byte, 2000)})

	require.NoError(t, err)
	assert.Equal(t, []string{pipeline.NoResponseSentinel}, transcripts)
}

func TestGenerateQuestionAudio_Disabled(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{speech: []byte("audio")}, false)

	audio := svc.GenerateQuestionAudio(context.Background(), []string{"q1", "q2"})

	require.Len(t, audio, 2)
	for i, a := range audio {
		assert.Equal(t, []string{"q1", "q2"}[i], a.Question)
		assert.Nil(t, a.AudioBase64)
		assert.Nil(t, a.MIMEType)
	}
}

func TestGenerateQuestionAudio_Enabled(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{speech: []byte("audio-bytes")}, true)

	audio := svc.GenerateQuestionAudio(context.Background(), []string{"q1"})

	require.Len(t, audio, 1)
	require.NotNil(t, audio[0].AudioBase64)
	assert.NotEmpty(t, *audio[0].AudioBase64)
	require.NotNil(t, audio[0].MIMEType)
}

func TestGenerateQuestionAudio_FailureDegradesToNil(t *testing.T) {
	svc := NewInterviewService(&fakeGemini{speechErr: errors.New("tts unavailable")}, true)

	audio := svc.GenerateQuestionAudio(context.Background(), []string{"q1"})

	require.Len(t, audio, 1)
	assert.Equal(t, "q1", audio[0].Question)
	assert.Nil(t, audio[0].AudioBase64)
}
