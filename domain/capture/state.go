// Package capture holds the pure state machine of an expense capture session.
// State values are never mutated in place; Apply returns the next value.
package capture

import (
	"time"

	"github.com/satriahrh/voxpense/domain/entities"
)

// Phase is the position of a session in its lifecycle
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhaseProcessing Phase = "processing"
	PhaseReview     Phase = "review"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
	PhaseError      Phase = "error"
)

// Terminal reports whether the session is finished with
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted
}

// Busy reports whether a collaborator call is outstanding
func (p Phase) Busy() bool {
	return p == PhaseProcessing || p == PhaseSubmitting
}

// Mode tells how the transcript was obtained
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeText  Mode = "text"
)

// State is one immutable step of a session. The audio buffer itself is owned
// by the session driver; State only tracks its size.
type State struct {
	ID         string
	Mode       Mode
	Phase      Phase
	AudioBytes int
	Result     *entities.ExtractionResult
	Expense    *entities.Expense
	Err        error
	StartedAt  time.Time
}

// NewState returns an idle session state
func NewState(id string, mode Mode) State {
	return State{ID: id, Mode: mode, Phase: PhaseIdle}
}

// NeedsManualEntry reports whether the review holds a transcript without an
// amount; such a session can only be retried or completed by hand.
func (s State) NeedsManualEntry() bool {
	return s.Phase == PhaseReview && s.Result != nil && !s.Result.HasAmount()
}

// Snapshot is the read-only view of a session handed to listeners
type Snapshot struct {
	SessionID        string                     `json:"session_id"`
	Mode             Mode                       `json:"mode"`
	Phase            Phase                      `json:"phase"`
	AudioBytes       int                        `json:"audio_bytes"`
	Result           *entities.ExtractionResult `json:"result,omitempty"`
	Expense          *entities.Expense          `json:"expense,omitempty"`
	NeedsManualEntry bool                       `json:"needs_manual_entry"`
	Error            string                     `json:"error,omitempty"`
}

// Snapshot projects the state for presentation
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:        s.ID,
		Mode:             s.Mode,
		Phase:            s.Phase,
		AudioBytes:       s.AudioBytes,
		NeedsManualEntry: s.NeedsManualEntry(),
	}
	if s.Result != nil {
		r := *s.Result
		snap.Result = &r
	}
	if s.Expense != nil {
		e := *s.Expense
		snap.Expense = &e
	}
	if s.Err != nil {
		snap.Error = s.Err.Error()
	}
	return snap
}
