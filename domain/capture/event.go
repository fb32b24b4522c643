package capture

import (
	"time"

	"github.com/satriahrh/voxpense/domain/entities"
)

// Event drives a transition of the session state machine
type Event interface {
	event()
}

// RecordingStarted is applied once the capture device has been acquired
type RecordingStarted struct{ At time.Time }

// DeviceFailed reports that the capture device could not be acquired
type DeviceFailed struct{ Err error }

// AudioReceived accounts for a captured audio frame
type AudioReceived struct{ Bytes int }

// RecordingStopped is applied after the capture device has been released
type RecordingStopped struct{}

// Transcribed carries the extraction of a successful transcription
type Transcribed struct{ Result entities.ExtractionResult }

// TranscriptionFailed reports a transcription service or transport failure
type TranscriptionFailed struct{ Err error }

// TranscriptProvided starts a session from text that already exists
type TranscriptProvided struct {
	Result entities.ExtractionResult
	At     time.Time
}

// SubmitStarted is applied before the expense store is called
type SubmitStarted struct{}

// Submitted records the persisted expense
type Submitted struct{ Expense *entities.Expense }

// SubmitFailed returns the session to review with the store error
type SubmitFailed struct{ Err error }

// Cancelled abandons the session
type Cancelled struct{}

// Acknowledged clears an error
type Acknowledged struct{}

func (RecordingStarted) event()    {}
func (DeviceFailed) event()        {}
func (AudioReceived) event()       {}
func (RecordingStopped) event()    {}
func (Transcribed) event()         {}
func (TranscriptionFailed) event() {}
func (TranscriptProvided) event()  {}
func (SubmitStarted) event()       {}
func (Submitted) event()           {}
func (SubmitFailed) event()        {}
func (Cancelled) event()           {}
func (Acknowledged) event()        {}
