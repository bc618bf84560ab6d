package services

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// fakeGemini implements GeminiService for tests without touching the network.
type fakeGemini struct {
	textResponse string
	textErr      error

	jsonResponse string
	jsonErr      error
	jsonCalls    int

	embeddings map[string][]float32
	embedErr   error
	embedCalls int

	transcribeFn    func(data []byte) (string, error)
	transcribeCalls int

	speech    []byte
	speechErr error
}

func (f *fakeGemini) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textResponse, nil
}

func (f *fakeGemini) GenerateJSON(_ context.Context, prompt string, _ *genai.Schema, _ float32) (string, error) {
	f.jsonCalls++
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	return f.jsonResponse, nil
}

func (f *fakeGemini) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	emb, ok := f.embeddings[text]
	if !ok {
		return nil, errors.New("no embedding configured for input")
	}
	return emb, nil
}

func (f *fakeGemini) TranscribeMedia(_ context.Context, data []byte, _, _ string) (string, error) {
	f.transcribeCalls++
	if f.transcribeFn == nil {
		return "", errors.New("transcription not configured")
	}
	return f.transcribeFn(data)
}

func (f *fakeGemini) GenerateSpeech(_ context.Context, _ string) ([]byte, error) {
	if f.speechErr != nil {
		return nil, f.speechErr
	}
	return f.speech, nil
}
