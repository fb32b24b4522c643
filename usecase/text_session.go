package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/extraction"
)

// TextInputSession is the capture flow for a transcript that already exists,
// typed by the user or produced by a recognizer on the client.
type TextInputSession struct {
	*sessionCore
}

// NewTextInputSession creates an idle text-input session
func NewTextInputSession(coordinator *SubmissionCoordinator, logger *zap.Logger, opts SessionOptions) *TextInputSession {
	return &TextInputSession{
		sessionCore: newSessionCore(capture.ModeText, coordinator, logger, opts),
	}
}

// SubmitTranscript extracts an expense from text and moves the session to
// review, auto-submitting when an amount was found.
func (s *TextInputSession) SubmitTranscript(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.ErrEmptyTranscript
	}
	result := extraction.Extract(text)

	s.lock()
	submit, err := s.reviewLocked(capture.TranscriptProvided{Result: result, At: time.Now()})
	s.unlock()
	if err != nil {
		return err
	}

	s.logger.Info("Transcript received",
		zap.Bool("hasAmount", result.HasAmount()),
		zap.String("category", string(result.Category)))

	if submit {
		go s.runSubmit(ctx, result, true)
	}
	return nil
}

// Cancel discards the reviewed result without calling the expense store
func (s *TextInputSession) Cancel() error {
	s.lock()
	defer s.unlock()
	return s.applyLocked(capture.Cancelled{})
}
