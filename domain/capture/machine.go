package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satriahrh/voxpense/domain/entities"
)

var (
	// ErrInvalidTransition is returned for an event the current phase does not accept
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrTranscriptionInFlight rejects a second stop while a transcription is outstanding
	ErrTranscriptionInFlight = errors.New("transcription already in flight")
)

// Apply returns the state that follows s after ev. s is left untouched; on
// error the returned state equals s.
func Apply(s State, ev Event) (State, error) {
	next := s

	switch e := ev.(type) {
	case RecordingStarted:
		if s.Phase != PhaseIdle {
			return s, invalid(s, ev)
		}
		next = reset(s)
		next.Mode = ModeVoice
		next.Phase = PhaseRecording
		next.StartedAt = e.At

	case DeviceFailed:
		if s.Phase != PhaseIdle {
			return s, invalid(s, ev)
		}
		next = reset(s)
		next.Err = wrap(entities.ErrDeviceAccess, e.Err)

	case AudioReceived:
		if s.Phase != PhaseRecording {
			return s, invalid(s, ev)
		}
		next.AudioBytes += e.Bytes

	case RecordingStopped:
		switch s.Phase {
		case PhaseRecording:
			if s.AudioBytes == 0 {
				next = reset(s)
				next.Err = entities.ErrEmptyRecording
				break
			}
			next.Phase = PhaseProcessing
		case PhaseProcessing:
			return s, ErrTranscriptionInFlight
		default:
			return s, invalid(s, ev)
		}

	case Transcribed:
		if s.Phase != PhaseProcessing {
			return s, invalid(s, ev)
		}
		result := e.Result
		next.Phase = PhaseReview
		next.Result = &result
		next.AudioBytes = 0

	case TranscriptionFailed:
		if s.Phase != PhaseProcessing {
			return s, invalid(s, ev)
		}
		next = reset(s)
		next.Phase = PhaseError
		next.Err = wrap(entities.ErrTranscription, e.Err)

	case TranscriptProvided:
		if s.Phase != PhaseIdle {
			return s, invalid(s, ev)
		}
		result := e.Result
		next = reset(s)
		next.Mode = ModeText
		next.Phase = PhaseReview
		next.Result = &result
		next.StartedAt = e.At

	case SubmitStarted:
		if s.Phase != PhaseReview || s.Result == nil {
			return s, invalid(s, ev)
		}
		if !s.Result.HasAmount() {
			return s, entities.ErrAmountMissing
		}
		next.Phase = PhaseSubmitting
		next.Err = nil

	case Submitted:
		if s.Phase != PhaseSubmitting {
			return s, invalid(s, ev)
		}
		next.Phase = PhaseSubmitted
		next.Expense = e.Expense

	case SubmitFailed:
		if s.Phase != PhaseSubmitting {
			return s, invalid(s, ev)
		}
		next.Phase = PhaseReview
		next.Err = wrap(entities.ErrSubmission, e.Err)

	case Cancelled:
		switch s.Phase {
		case PhaseRecording, PhaseProcessing, PhaseReview:
			next = reset(s)
		default:
			return s, invalid(s, ev)
		}

	case Acknowledged:
		if s.Phase != PhaseError {
			return s, invalid(s, ev)
		}
		next = reset(s)

	default:
		return s, fmt.Errorf("unknown event %T", ev)
	}

	return next, nil
}

// reset drops everything but the session identity
func reset(s State) State {
	return State{ID: s.ID, Mode: s.Mode, Phase: PhaseIdle}
}

func wrap(kind, err error) error {
	if err == nil {
		return kind
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func invalid(s State, ev Event) error {
	name := strings.TrimPrefix(fmt.Sprintf("%T", ev), "capture.")
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, name, s.Phase)
}
