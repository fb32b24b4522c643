package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"listening start", `{"type":"listening_start","sample_rate":16000,"encoding":"LINEAR16"}`, false},
		{"listening start with defaults", `{"type":"listening_start"}`, false},
		{"invalid sample rate", `{"type":"listening_start","sample_rate":100000}`, true},
		{"listening end", `{"type":"listening_end"}`, false},
		{"confirm", `{"type":"confirm"}`, false},
		{"transcript", `{"type":"transcript","text":"coffee $4"}`, false},
		{"transcript without text", `{"type":"transcript"}`, true},
		{"missing type", `{"text":"hello"}`, true},
		{"unknown type", `{"type":"speaking_start"}`, true},
		{"invalid json", `{"type":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClientMessage([]byte(tt.message))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionStateMessage_JSON(t *testing.T) {
	state := capture.NewState("session-1", capture.ModeText)
	state.Phase = capture.PhaseError
	state.Err = entities.ErrTranscription

	data, err := json.Marshal(NewSessionStateMessage(state.Snapshot()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "session_state", decoded["type"])
	assert.NotEmpty(t, decoded["timestamp"])

	session := decoded["session"].(map[string]any)
	assert.Equal(t, "session-1", session["session_id"])
	assert.Equal(t, "error", session["phase"])
	assert.Equal(t, "transcription failed", session["error"])
}
