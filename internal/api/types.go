package api

import (
	"github.com/shopspring/decimal"

	"github.com/satriahrh/voxpense/domain/entities"
)

// CreateExpenseRequest is a manual or spoken expense entry. voice_text (or
// audio_data, transcribed first) supplies the description and, when amount
// is absent, the amount.
type CreateExpenseRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	VoiceText   string           `json:"voice_text"`
	AudioData   string           `json:"audio_data"` // base64 encoded
	AudioFormat
}

// AudioFormat describes uploaded audio; zero fields take server defaults
type AudioFormat struct {
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Language   string `json:"language,omitempty"`
}

// CreateExpenseResponse is the stored expense plus the text it came from
type CreateExpenseResponse struct {
	*entities.Expense
	TranscribedText string `json:"transcribed_text,omitempty"`
	Message         string `json:"message"`
}

// TextExpenseRequest submits a transcript through a text-input session
type TextExpenseRequest struct {
	Text string `json:"text"`
}

// TranscribeRequest carries base64 audio to transcribe without submitting
type TranscribeRequest struct {
	AudioData string `json:"audio_data"`
	AudioFormat
}

// TranscribeResponse is a transcript with its extraction
type TranscribeResponse struct {
	TranscribedText string               `json:"transcribed_text"`
	Amount          decimal.NullDecimal  `json:"amount"`
	Category        entities.CategoryTag `json:"category"`
}

// HealthResponse reports service status
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	SpeechService string `json:"speech_service"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
