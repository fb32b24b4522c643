package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
)

// Listener receives a snapshot after every phase change. It is called in
// transition order and must not call back into the session.
type Listener func(snapshot capture.Snapshot)

// SessionOptions configures a capture or text-input session
type SessionOptions struct {
	// HoldForReview disables auto-submission of results that carry an amount
	HoldForReview bool
	// Listener is notified of state changes; may be nil
	Listener Listener
}

// sessionCore is the state machine driver shared by both session variants
type sessionCore struct {
	coordinator *SubmissionCoordinator
	autoSubmit  bool
	listener    Listener
	logger      *zap.Logger

	mu      sync.Mutex
	state   capture.State
	wasBusy bool
	settled chan struct{}
	pending []capture.Snapshot

	notifyMu sync.Mutex
}

func newSessionCore(mode capture.Mode, coordinator *SubmissionCoordinator, logger *zap.Logger, opts SessionOptions) *sessionCore {
	id := uuid.New().String()
	return &sessionCore{
		coordinator: coordinator,
		autoSubmit:  !opts.HoldForReview,
		listener:    opts.Listener,
		logger:      logger.With(zap.String("sessionID", id)),
		state:       capture.NewState(id, mode),
	}
}

func (c *sessionCore) lock() {
	c.mu.Lock()
	c.wasBusy = c.state.Phase.Busy()
}

// unlock publishes the snapshots queued while the lock was held
func (c *sessionCore) unlock() {
	var done chan struct{}
	busy := c.state.Phase.Busy()
	switch {
	case !c.wasBusy && busy:
		c.settled = make(chan struct{})
	case c.wasBusy && !busy:
		done = c.settled
	}

	pending := c.pending
	c.pending = nil

	c.notifyMu.Lock()
	c.mu.Unlock()
	if c.listener != nil {
		for _, snap := range pending {
			c.listener(snap)
		}
	}
	c.notifyMu.Unlock()

	// waiters wake only after listeners have seen the settling snapshot
	if done != nil {
		close(done)
	}
}

func (c *sessionCore) applyLocked(ev capture.Event) error {
	next, err := capture.Apply(c.state, ev)
	if err != nil {
		return err
	}
	phaseChanged := next.Phase != c.state.Phase
	c.state = next
	if _, frame := ev.(capture.AudioReceived); !frame || phaseChanged {
		c.pending = append(c.pending, next.Snapshot())
	}
	return nil
}

// Snapshot returns the current session state
func (c *sessionCore) Snapshot() capture.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// ID returns the session identifier
func (c *sessionCore) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ID
}

// Wait blocks until no transcription or submission is outstanding
func (c *sessionCore) Wait(ctx context.Context) (capture.Snapshot, error) {
	c.mu.Lock()
	if !c.state.Phase.Busy() {
		snap := c.state.Snapshot()
		c.mu.Unlock()
		// let a dispatch already in flight reach the listener first
		c.notifyMu.Lock()
		c.notifyMu.Unlock()
		return snap, nil
	}
	settled := c.settled
	c.mu.Unlock()

	select {
	case <-settled:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Confirm submits the reviewed result. It is how a held result is submitted
// and how a submission is retried after a store failure.
func (c *sessionCore) Confirm(ctx context.Context) error {
	c.lock()
	if err := c.applyLocked(capture.SubmitStarted{}); err != nil {
		c.unlock()
		return err
	}
	result := *c.state.Result
	c.unlock()

	go c.runSubmit(ctx, result, false)
	return nil
}

// reviewLocked moves a fresh result into review and, when allowed, straight on
// to submission. It reports whether the caller must run the submission.
func (c *sessionCore) reviewLocked(ev capture.Event) (bool, error) {
	if err := c.applyLocked(ev); err != nil {
		return false, err
	}
	if !c.autoSubmit || !c.state.Result.HasAmount() {
		c.logger.Info("Result held for review",
			zap.Bool("hasAmount", c.state.Result.HasAmount()))
		return false, nil
	}
	if err := c.applyLocked(capture.SubmitStarted{}); err != nil {
		return false, err
	}
	return true, nil
}

func (c *sessionCore) runSubmit(ctx context.Context, result entities.ExtractionResult, auto bool) {
	var (
		expense *entities.Expense
		err     error
	)
	if auto {
		_, expense, err = c.coordinator.TryAutoSubmit(ctx, result)
	} else {
		expense, err = c.coordinator.Submit(ctx, result)
	}

	c.lock()
	defer c.unlock()
	if err != nil {
		c.logger.Warn("Submission failed, result kept for review", zap.Error(err))
		c.mustApplyLocked(capture.SubmitFailed{Err: err})
		return
	}
	c.mustApplyLocked(capture.Submitted{Expense: expense})
}

func (c *sessionCore) mustApplyLocked(ev capture.Event) {
	if err := c.applyLocked(ev); err != nil {
		c.logger.Error("Unexpected session transition failure", zap.Error(err))
	}
}
