package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/adapters"
	"github.com/satriahrh/voxpense/domain/repositories"
	"github.com/satriahrh/voxpense/usecase"
)

type stubSTT struct {
	text string

	mu     sync.Mutex
	audio  []byte
	config repositories.AudioConfig
}

func (s *stubSTT) TranscribeAudio(_ context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append([]byte(nil), audio...)
	s.config = config
	return s.text, nil
}

type hubFixture struct {
	hub   *Hub
	store *adapters.MemoryExpenseRepository
	stt   *stubSTT
	url   string
}

func newHubFixture(t *testing.T, autoSubmit bool) *hubFixture {
	t.Helper()
	logger := zap.NewNop()

	store := adapters.NewMemoryExpenseRepository()
	stt := &stubSTT{text: "Taxi 23 dollars"}
	coordinator := usecase.NewSubmissionCoordinator(store, logger)
	hub := NewHub(stt, coordinator, store, Options{
		AudioConfig: repositories.AudioConfig{SampleRate: 48000, Encoding: "WEBM_OPUS", Language: "en-US"},
		AutoSubmit:  autoSubmit,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, logger)
	})
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &hubFixture{
		hub:   hub,
		store: store,
		stt:   stt,
		url:   "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
	}
}

func (f *hubFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return f.hub.ClientCount() > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

type received struct {
	Type      string          `json:"type"`
	ErrorCode string          `json:"error_code"`
	Session   json.RawMessage `json:"session"`
	Stats     json.RawMessage `json:"stats"`
}

func (r received) phase(t *testing.T) string {
	var s struct {
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(r.Session, &s))
	return s.Phase
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// readUntil reads messages until match returns true, returning everything read
func readUntil(t *testing.T, conn *websocket.Conn, match func(received) bool) []received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var all []received
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))
		all = append(all, msg)
		if match(msg) {
			return all
		}
	}
}

func isPhase(t *testing.T, phase string) func(received) bool {
	return func(r received) bool {
		return r.Type == string(MessageTypeSessionState) && r.phase(t) == phase
	}
}

func TestHub_TranscriptSubmitsAndBroadcasts(t *testing.T) {
	f := newHubFixture(t, true)
	conn := f.dial(t)

	send(t, conn, `{"type":"transcript","text":"Lunch at Chipotle $12.50"}`)

	var sawSubmitted, sawChanged bool
	readUntil(t, conn, func(r received) bool {
		if r.Type == string(MessageTypeSessionState) && r.phase(t) == "submitted" {
			sawSubmitted = true
		}
		if r.Type == string(MessageTypeExpensesChanged) {
			sawChanged = true
			assert.Contains(t, string(r.Stats), `"total_expenses":"12.5"`)
		}
		return sawSubmitted && sawChanged
	})

	assert.Equal(t, 1, f.store.Count())
}

func TestHub_AudioStreamIsTranscribed(t *testing.T) {
	f := newHubFixture(t, true)
	conn := f.dial(t)

	send(t, conn, `{"type":"listening_start","sample_rate":16000}`)
	readUntil(t, conn, isPhase(t, "recording"))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("abc")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("def")))
	send(t, conn, `{"type":"listening_end"}`)

	readUntil(t, conn, isPhase(t, "submitted"))

	f.stt.mu.Lock()
	defer f.stt.mu.Unlock()
	assert.Equal(t, []byte("abcdef"), f.stt.audio)
	assert.Equal(t, 16000, f.stt.config.SampleRate)
	assert.Equal(t, "WEBM_OPUS", f.stt.config.Encoding)
}

func TestHub_HeldForReviewUntilConfirmed(t *testing.T) {
	f := newHubFixture(t, false)
	conn := f.dial(t)

	send(t, conn, `{"type":"transcript","text":"Movie tickets 30 dollars"}`)
	readUntil(t, conn, isPhase(t, "review"))
	assert.Equal(t, 0, f.store.Count())

	send(t, conn, `{"type":"confirm"}`)
	readUntil(t, conn, isPhase(t, "submitted"))
	assert.Equal(t, 1, f.store.Count())
}

func TestHub_Errors(t *testing.T) {
	f := newHubFixture(t, true)
	conn := f.dial(t)

	send(t, conn, `{"type":"bogus"}`)
	msgs := readUntil(t, conn, func(r received) bool { return r.Type == string(MessageTypeError) })
	assert.Equal(t, "invalid_message", msgs[len(msgs)-1].ErrorCode)

	send(t, conn, `{"type":"confirm"}`)
	msgs = readUntil(t, conn, func(r received) bool { return r.Type == string(MessageTypeError) })
	assert.Equal(t, "invalid_transition", msgs[len(msgs)-1].ErrorCode)

	send(t, conn, `{"type":"listening_start"}`)
	readUntil(t, conn, isPhase(t, "recording"))
	send(t, conn, `{"type":"listening_end"}`)
	msgs = readUntil(t, conn, func(r received) bool { return r.Type == string(MessageTypeError) })
	assert.Equal(t, "empty_recording", msgs[len(msgs)-1].ErrorCode)

	send(t, conn, `{"type":"transcript","text":"I went for a walk"}`)
	readUntil(t, conn, isPhase(t, "review"))
	send(t, conn, `{"type":"confirm"}`)
	msgs = readUntil(t, conn, func(r received) bool { return r.Type == string(MessageTypeError) })
	assert.Equal(t, "amount_missing", msgs[len(msgs)-1].ErrorCode)

	assert.Equal(t, 0, f.store.Count())
}

func TestSessionCleanupService_ExpiresStaleRecordings(t *testing.T) {
	f := newHubFixture(t, true)
	conn := f.dial(t)

	send(t, conn, `{"type":"listening_start"}`)
	readUntil(t, conn, isPhase(t, "recording"))

	cleanup := NewSessionCleanupService(f.hub, time.Nanosecond, zap.NewNop())
	assert.Equal(t, 1, cleanup.runCleanup())

	msgs := readUntil(t, conn, func(r received) bool { return r.Type == string(MessageTypeError) })
	assert.Equal(t, "recording_timeout", msgs[len(msgs)-1].ErrorCode)
	assert.Equal(t, 0, cleanup.runCleanup())
}

func TestHub_SessionReplacement(t *testing.T) {
	f := newHubFixture(t, true)
	conn := f.dial(t)
	isError := func(r received) bool { return r.Type == string(MessageTypeError) }

	send(t, conn, `{"type":"listening_start"}`)
	readUntil(t, conn, isPhase(t, "recording"))
	send(t, conn, `{"type":"transcript","text":"Coffee $4"}`)
	msgs := readUntil(t, conn, isError)
	assert.Equal(t, "session_busy", msgs[len(msgs)-1].ErrorCode)

	send(t, conn, `{"type":"cancel"}`)
	readUntil(t, conn, isPhase(t, "idle"))

	send(t, conn, `{"type":"transcript","text":"Coffee $4"}`)
	readUntil(t, conn, isPhase(t, "submitted"))

	// a finished session gives way to the next attempt
	send(t, conn, `{"type":"transcript","text":"free coffee 0 dollars"}`)
	msgs = readUntil(t, conn, isPhase(t, "review"))
	assert.Contains(t, string(msgs[len(msgs)-1].Session), `"needs_manual_entry":true`)

	send(t, conn, `{"type":"confirm"}`)
	msgs = readUntil(t, conn, isError)
	assert.Equal(t, "amount_missing", msgs[len(msgs)-1].ErrorCode)

	assert.Equal(t, 1, f.store.Count())
}
