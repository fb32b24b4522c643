package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/extraction"
	"github.com/satriahrh/voxpense/domain/repositories"
)

// CaptureSession coordinates one recording attempt: microphone capture,
// audio buffering, a single transcription request, extraction and submission.
type CaptureSession struct {
	*sessionCore

	source   repositories.AudioSource
	packager repositories.AudioPackager
	stt      repositories.SpeechToText

	// guarded by sessionCore.mu
	opening    bool
	device     repositories.AudioCapture
	buffer     []byte
	generation uint64
	abort      context.CancelFunc
}

// NewCaptureSession creates an idle capture session
func NewCaptureSession(
	source repositories.AudioSource,
	packager repositories.AudioPackager,
	stt repositories.SpeechToText,
	coordinator *SubmissionCoordinator,
	logger *zap.Logger,
	opts SessionOptions,
) *CaptureSession {
	return &CaptureSession{
		sessionCore: newSessionCore(capture.ModeVoice, coordinator, logger, opts),
		source:      source,
		packager:    packager,
		stt:         stt,
	}
}

// Start acquires the capture device and begins recording. If the device
// cannot be acquired the session stays idle and the error wraps
// entities.ErrDeviceAccess.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.lock()
	if _, err := capture.Apply(s.state, capture.RecordingStarted{}); err != nil {
		s.unlock()
		return err
	}
	if s.opening {
		s.unlock()
		return fmt.Errorf("%w: device is being opened", capture.ErrInvalidTransition)
	}
	s.opening = true
	s.unlock()

	device, err := s.source.Open(ctx, s.feed)

	s.lock()
	defer s.unlock()
	s.opening = false

	if err != nil {
		s.logger.Warn("Failed to acquire capture device", zap.Error(err))
		s.mustApplyLocked(capture.DeviceFailed{Err: err})
		return s.state.Err
	}

	s.device = device
	s.buffer = s.buffer[:0]
	s.mustApplyLocked(capture.RecordingStarted{At: time.Now()})
	s.logger.Info("Recording started")
	return nil
}

// feed is the device frame handler. Frames outside Recording are dropped.
func (s *CaptureSession) feed(frame []byte) {
	if len(frame) == 0 {
		return
	}
	s.lock()
	defer s.unlock()
	if s.state.Phase != capture.PhaseRecording {
		return
	}
	s.buffer = append(s.buffer, frame...)
	s.mustApplyLocked(capture.AudioReceived{Bytes: len(frame)})
}

// Stop releases the capture device and sends the recording for
// transcription. It returns once the request is under way; the result is
// delivered to the listener. ctx bounds the transcription request.
func (s *CaptureSession) Stop(ctx context.Context) error {
	s.lock()
	if err := s.applyLocked(capture.RecordingStopped{}); err != nil {
		s.unlock()
		return err
	}

	device := s.device
	audio := s.buffer
	s.device = nil
	s.buffer = nil

	var requestCtx context.Context
	if s.state.Phase == capture.PhaseProcessing {
		requestCtx, s.abort = context.WithCancel(ctx)
	}
	generation := s.generation
	stateErr := s.state.Err
	s.unlock()

	s.release(device)

	if requestCtx == nil {
		return stateErr
	}

	s.logger.Info("Recording stopped, transcribing", zap.Int("audioBytes", len(audio)))
	go s.transcribe(ctx, requestCtx, generation, audio)
	return nil
}

func (s *CaptureSession) transcribe(ctx, requestCtx context.Context, generation uint64, audio []byte) {
	start := time.Now()
	text, err := s.request(requestCtx, audio)

	s.lock()
	if s.generation != generation {
		s.unlock()
		s.logger.Info("Dropping result of abandoned transcription")
		return
	}
	s.abort()
	s.abort = nil

	if err != nil {
		s.logger.Error("Transcription failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		s.mustApplyLocked(capture.TranscriptionFailed{Err: err})
		s.unlock()
		return
	}

	result := extraction.Extract(text)
	s.logger.Info("Transcription completed",
		zap.String("text", text),
		zap.Bool("hasAmount", result.HasAmount()),
		zap.String("category", string(result.Category)),
		zap.Duration("elapsed", time.Since(start)))

	submit, err := s.reviewLocked(capture.Transcribed{Result: result})
	if err != nil {
		s.logger.Error("Unexpected session transition failure", zap.Error(err))
	}
	s.unlock()

	if submit {
		s.runSubmit(ctx, result, true)
	}
}

func (s *CaptureSession) request(ctx context.Context, audio []byte) (string, error) {
	payload, config, err := s.packager.Package(audio)
	if err != nil {
		return "", fmt.Errorf("packaging audio: %w", err)
	}
	text, err := s.stt.TranscribeAudio(ctx, payload, config)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", entities.ErrUnintelligibleAudio
	}
	return text, nil
}

// Cancel abandons the session from Recording, Processing or Review. The
// device is released, the buffer and any pending result are discarded and
// the expense store is not called.
func (s *CaptureSession) Cancel() error {
	s.lock()
	if err := s.applyLocked(capture.Cancelled{}); err != nil {
		s.unlock()
		return err
	}
	device := s.device
	s.device = nil
	s.buffer = nil
	s.generation++
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
	s.unlock()

	s.release(device)
	s.logger.Info("Session cancelled")
	return nil
}

// Acknowledge clears an error and returns the session to Idle
func (s *CaptureSession) Acknowledge() error {
	s.lock()
	defer s.unlock()
	return s.applyLocked(capture.Acknowledged{})
}

// Close cancels whatever is in progress. It is meant for owners that go away
// mid-session, such as a disconnected client.
func (s *CaptureSession) Close() {
	err := s.Cancel()
	if err != nil && !errors.Is(err, capture.ErrInvalidTransition) {
		s.logger.Warn("Failed to close session", zap.Error(err))
	}
}

func (s *CaptureSession) release(device repositories.AudioCapture) {
	if device == nil {
		return
	}
	if err := device.Close(); err != nil {
		s.logger.Warn("Failed to release capture device", zap.Error(err))
	}
}
