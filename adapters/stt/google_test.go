package stt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxpense/adapters/stt"
	"github.com/satriahrh/voxpense/domain/extraction"
	"github.com/satriahrh/voxpense/domain/repositories"
)

var (
	_ repositories.SpeechToText = &stt.GoogleSpeechToText{}
	_ repositories.SpeechToText = &stt.GeminiSpeechToText{}
	_ repositories.SpeechToText = &stt.MockSpeechToText{}
)

func TestMockSpeechToText(t *testing.T) {
	mock := stt.NewMockSpeechToText(zaptest.NewLogger(t))
	config := repositories.AudioConfig{SampleRate: 16000, Encoding: "FLAC", Language: "en-US"}

	text, err := mock.TranscribeAudio(context.Background(), make([]byte, 20000), config)
	require.NoError(t, err)
	assert.True(t, extraction.Extract(text).HasAmount())

	text, err = mock.TranscribeAudio(context.Background(), make([]byte, 100), config)
	require.NoError(t, err)
	assert.False(t, extraction.Extract(text).HasAmount())

	_, err = mock.TranscribeAudio(context.Background(), nil, config)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = mock.TranscribeAudio(ctx, make([]byte, 100), config)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGeminiSpeechToText_RequiresKey(t *testing.T) {
	_, err := stt.NewGeminiSpeechToText(context.Background(), "", "gemini-2.0-flash", zaptest.NewLogger(t))
	assert.Error(t, err)
}
