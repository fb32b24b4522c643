package entities

import "errors"

// Error taxonomy of the voice-to-expense pipeline. Collaborator errors are
// wrapped with one of these so callers can match them with errors.Is.
var (
	// ErrDeviceAccess means the microphone could not be acquired
	ErrDeviceAccess = errors.New("audio device unavailable")
	// ErrTranscription covers transcription transport and service failures
	ErrTranscription = errors.New("transcription failed")
	// ErrSubmission means the expense store rejected or could not be reached
	ErrSubmission = errors.New("expense submission failed")
	// ErrAmountMissing is the ambiguous extraction outcome: no amount in the transcript
	ErrAmountMissing = errors.New("no amount found in transcript")

	ErrUnintelligibleAudio = errors.New("no speech detected in audio")
	ErrEmptyRecording      = errors.New("no audio captured")
	ErrEmptyTranscript     = errors.New("transcript is empty")
	ErrExpenseNotFound     = errors.New("expense not found")
)
