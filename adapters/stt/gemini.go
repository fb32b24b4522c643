package stt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voxpense/domain/repositories"
)

const geminiTranscribePrompt = "Transcribe this audio recording verbatim. " +
	"Reply with the spoken words only. Write amounts of money with digits. " +
	"If nothing intelligible is said, reply with an empty message."

// GeminiSpeechToText transcribes recordings with a multimodal Gemini model
type GeminiSpeechToText struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiSpeechToText creates a Gemini API client
func NewGeminiSpeechToText(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiSpeechToText, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSpeechToText{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// TranscribeAudio implements repositories.SpeechToText
func (g *GeminiSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	mimeType, err := audioMIMEType(config.Encoding)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(geminiTranscribePrompt),
			genai.NewPartFromBytes(audioData, mimeType),
		}, genai.RoleUser),
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate transcript: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", nil
	}

	var transcript strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		transcript.WriteString(part.Text)
	}

	g.logger.Debug("Gemini transcript received",
		zap.String("model", g.model),
		zap.Int("audioSize", len(audioData)),
		zap.String("mimeType", mimeType))

	return strings.TrimSpace(transcript.String()), nil
}

// audioMIMEType maps an encoding name to the MIME type Gemini expects for
// inline audio. Raw PCM has no container Gemini accepts.
func audioMIMEType(encoding string) (string, error) {
	switch encoding {
	case "FLAC":
		return "audio/flac", nil
	case "WAV":
		return "audio/wav", nil
	case "OGG_OPUS":
		return "audio/ogg", nil
	case "WEBM_OPUS":
		return "audio/webm", nil
	case "MP3":
		return "audio/mp3", nil
	default:
		return "", fmt.Errorf("unsupported encoding for gemini: %s", encoding)
	}
}
