package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Messages sent by the client
const (
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeCancel         MessageType = "cancel"
	MessageTypeConfirm        MessageType = "confirm"
	MessageTypeAcknowledge    MessageType = "acknowledge"
	MessageTypeTranscript     MessageType = "transcript"
)

// Messages sent by the server
const (
	MessageTypeSessionState    MessageType = "session_state"
	MessageTypeExpensesChanged MessageType = "expenses_changed"
	MessageTypeError           MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ClientMessage is any control message sent by the client. Audio travels
// separately as binary frames between listening_start and listening_end.
type ClientMessage struct {
	BaseMessage
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Language   string `json:"language,omitempty"`
	Text       string `json:"text,omitempty"`
}

// SessionStateMessage carries a capture session snapshot
type SessionStateMessage struct {
	BaseMessage
	Session capture.Snapshot `json:"session"`
}

// ExpensesChangedMessage tells clients to refresh their expense list
type ExpensesChangedMessage struct {
	BaseMessage
	Expense *entities.Expense      `json:"expense,omitempty"`
	Stats   *entities.ExpenseStats `json:"stats,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// ParseClientMessage decodes and validates a control message
func ParseClientMessage(messageBytes []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		return msg, fmt.Errorf("invalid JSON: %w", err)
	}

	switch msg.Type {
	case MessageTypeListeningStart:
		if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
			return msg, fmt.Errorf("sample_rate must be between 8000 and 48000")
		}
	case MessageTypeTranscript:
		if msg.Text == "" {
			return msg, fmt.Errorf("text is required")
		}
	case MessageTypeListeningEnd, MessageTypeCancel, MessageTypeConfirm, MessageTypeAcknowledge:
	case "":
		return msg, fmt.Errorf("message type is required")
	default:
		return msg, fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return msg, nil
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// NewSessionStateMessage creates a session_state message
func NewSessionStateMessage(snapshot capture.Snapshot) SessionStateMessage {
	return SessionStateMessage{BaseMessage: newBase(MessageTypeSessionState), Session: snapshot}
}

// NewExpensesChangedMessage creates an expenses_changed message
func NewExpensesChangedMessage(expense *entities.Expense, stats *entities.ExpenseStats) ExpensesChangedMessage {
	return ExpensesChangedMessage{BaseMessage: newBase(MessageTypeExpensesChanged), Expense: expense, Stats: stats}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) ErrorMessage {
	return ErrorMessage{BaseMessage: newBase(MessageTypeError), Code: code, Message: message}
}
