package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/repositories"
)

// MockSpeechToText answers with canned expense phrases picked by recording
// size, for running without cloud credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Mock transcription based on audio size
	switch {
	case len(audioData) == 0:
		return "", fmt.Errorf("no audio data received")
	case len(audioData) > 64000:
		return "Flight to Denver 240 dollars", nil
	case len(audioData) > 16000:
		return "Lunch at the food court $12.50", nil
	case len(audioData) > 4000:
		return "Taxi to the airport 35 USD", nil
	default:
		return "I went for a walk", nil
	}
}
