package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/repositories"
)

type fakeDevice struct {
	mu     sync.Mutex
	closed int
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeSource struct {
	err     error
	device  *fakeDevice
	onFrame repositories.FrameHandler
	opened  int
}

func (f *fakeSource) Open(_ context.Context, onFrame repositories.FrameHandler) (repositories.AudioCapture, error) {
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	f.device = &fakeDevice{}
	f.onFrame = onFrame
	return f.device, nil
}

func (f *fakeSource) push(frames ...string) {
	for _, frame := range frames {
		f.onFrame([]byte(frame))
	}
}

type passthroughPackager struct{}

func (passthroughPackager) Package(raw []byte) ([]byte, repositories.AudioConfig, error) {
	return raw, repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US"}, nil
}

// fakeSTT answers with text, or err, once release is closed (nil release answers at once)
type fakeSTT struct {
	text    string
	err     error
	release chan struct{}

	mu    sync.Mutex
	calls int
	audio []byte
}

func (f *fakeSTT) TranscribeAudio(ctx context.Context, audioData []byte, _ repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	f.calls++
	f.audio = append([]byte(nil), audioData...)
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeSTT) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu      sync.Mutex
	fail    error
	drafts  []entities.ExpenseDraft
	counter int
}

func (f *fakeStore) Create(_ context.Context, draft entities.ExpenseDraft) (*entities.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	if f.fail != nil {
		return nil, f.fail
	}
	f.counter++
	return entities.NewExpense(fmt.Sprintf("exp-%d", f.counter), draft, time.Now()), nil
}

func (f *fakeStore) List(context.Context) ([]*entities.Expense, error) { return nil, nil }

func (f *fakeStore) Delete(context.Context, string) error { return entities.ErrExpenseNotFound }

func (f *fakeStore) Stats(context.Context, time.Time) (*entities.ExpenseStats, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeStore) createCalls() []entities.ExpenseDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.ExpenseDraft(nil), f.drafts...)
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []capture.Phase
}

func (r *phaseRecorder) listen(snap capture.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, snap.Phase)
}

func (r *phaseRecorder) seen() []capture.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capture.Phase(nil), r.phases...)
}
