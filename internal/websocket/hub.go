package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/adapters/encoder"
	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/domain/repositories"
	"github.com/satriahrh/voxpense/usecase"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// must stay below pongWait
	pingPeriod = (pongWait * 9) / 10

	// one binary frame of recorded audio
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options configures the sessions the hub creates for its clients
type Options struct {
	// AudioConfig fills in what listening_start leaves out
	AudioConfig  repositories.AudioConfig
	AutoSubmit   bool
	RecentWindow time.Duration
}

// Hub tracks connected clients, gives each one its own capture sessions and
// tells all of them when the stored expenses change.
type Hub struct {
	// keyed by client id, guarded by mu
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// closed when Run returns
	done chan struct{}

	stt         repositories.SpeechToText
	coordinator *usecase.SubmissionCoordinator
	expenses    repositories.ExpenseRepository
	opts        Options

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. Every expense the coordinator submits
// is announced to all clients.
func NewHub(
	stt repositories.SpeechToText,
	coordinator *usecase.SubmissionCoordinator,
	expenses repositories.ExpenseRepository,
	opts Options,
	logger *zap.Logger,
) *Hub {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = entities.RecentWindow
	}
	h := &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		stt:         stt,
		coordinator: coordinator,
		expenses:    expenses,
		opts:        opts,
		logger:      logger,
	}
	coordinator.OnSubmitted(func(expense *entities.Expense) {
		go h.NotifyExpensesChanged(expense)
	})
	return h
}

// Run starts the hub's main loop. It disconnects every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyExpensesChanged pushes fresh stats to every client. expense is the
// record that was added, or nil after a deletion.
func (h *Hub) NotifyExpensesChanged(expense *entities.Expense) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.expenses.Stats(ctx, entities.RecentSince(time.Now(), h.opts.RecentWindow))
	if err != nil {
		h.logger.Error("Failed to load expense stats for broadcast", zap.Error(err))
		stats = nil
	}
	h.broadcast(NewExpensesChangedMessage(expense, stats))
}

func (h *Hub) broadcast(message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
	}
}

func (h *Hub) forEachClient(fn func(*Client)) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		fn(c)
	}
}

type WriteData struct {
	// websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// activeSession is the part of a capture or text-input session the client
// drives from control messages
type activeSession interface {
	Confirm(ctx context.Context) error
	Cancel() error
	Snapshot() capture.Snapshot
}

// Client is one websocket peer: a browser tab or a recording device.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger

	// from the device_id query parameter when given
	id string

	// outbound queue; closed once, under sendMu
	sendMu sync.Mutex
	send   chan WriteData
	closed bool

	// Lifetime of the connection; bounds transcription and submission
	ctx    context.Context
	cancel context.CancelFunc

	mutex          sync.Mutex
	session        activeSession
	recording      *usecase.CaptureSession
	listeningStart time.Time
	stream         *streamCapture
}

// HandleWebSocket upgrades the request and attaches the peer to hub
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	id := c.QueryParam("device_id")
	if id == "" {
		id = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan WriteData, 256),
		id:     id,
		logger: logger.With(zap.String("clientID", id)),
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		cancel()
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump dispatches control messages and audio frames until the peer goes
// away, then abandons the client's session.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump is the only writer on the connection; it also keeps the peer alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) enqueue(data WriteData) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendJSON(message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(err error) {
	c.sendJSON(NewErrorMessage(errorCode(err), err.Error()))
}

func (c *Client) sendSnapshot(snapshot capture.Snapshot) {
	c.sendJSON(NewSessionStateMessage(snapshot))
}

// processMessage processes incoming control messages
func (c *Client) processMessage(message []byte) {
	msg, err := ParseClientMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendJSON(NewErrorMessage("invalid_message", err.Error()))
		return
	}

	switch msg.Type {
	case MessageTypeListeningStart:
		err = c.handleListeningStart(msg)
	case MessageTypeListeningEnd:
		err = c.handleListeningEnd()
	case MessageTypeTranscript:
		err = c.handleTranscript(msg)
	case MessageTypeConfirm:
		err = c.withSession(func(s activeSession) error { return s.Confirm(c.ctx) })
	case MessageTypeCancel:
		err = c.withSession(func(s activeSession) error { return s.Cancel() })
	case MessageTypeAcknowledge:
		err = c.handleAcknowledge()
	}

	if err != nil {
		c.logger.Info("Message failed",
			zap.String("type", string(msg.Type)),
			zap.Error(err))
		c.sendError(err)
	}
}

// processBinaryAudioChunk hands audio to the open recording, if any
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	stream := c.stream
	c.mutex.Unlock()

	if stream == nil {
		c.logger.Warn("Received binary audio chunk but no recording is open",
			zap.Int("size", len(data)))
		return
	}
	stream.onFrame(data)
}

// handleListeningStart starts a new capture session reading from this connection
func (c *Client) handleListeningStart(msg ClientMessage) error {
	config := c.hub.opts.AudioConfig
	if msg.SampleRate > 0 {
		config.SampleRate = msg.SampleRate
	}
	if msg.Language != "" {
		config.Language = msg.Language
	}
	if msg.Encoding != "" {
		config.Encoding = msg.Encoding
	}

	session := usecase.NewCaptureSession(
		streamSource{client: c},
		encoder.ForConfig(config),
		c.hub.stt,
		c.hub.coordinator,
		c.logger,
		c.sessionOptions(),
	)
	if err := c.replaceSession(session, session); err != nil {
		return err
	}

	if err := session.Start(c.ctx); err != nil {
		return err
	}

	c.mutex.Lock()
	c.listeningStart = time.Now()
	c.mutex.Unlock()

	c.logger.Info("Audio session started",
		zap.String("sessionID", session.ID()),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))
	return nil
}

// handleListeningEnd stops the recording and starts transcription
func (c *Client) handleListeningEnd() error {
	c.mutex.Lock()
	recording := c.recording
	started := c.listeningStart
	c.mutex.Unlock()

	if recording == nil {
		return capture.ErrInvalidTransition
	}

	c.logger.Info("Audio session ended", zap.Duration("duration", time.Since(started)))
	return recording.Stop(c.ctx)
}

func (c *Client) handleTranscript(msg ClientMessage) error {
	session := usecase.NewTextInputSession(c.hub.coordinator, c.logger, c.sessionOptions())
	if err := c.replaceSession(session, nil); err != nil {
		return err
	}
	return session.SubmitTranscript(c.ctx, msg.Text)
}

func (c *Client) handleAcknowledge() error {
	c.mutex.Lock()
	recording := c.recording
	c.mutex.Unlock()

	if recording == nil {
		return capture.ErrInvalidTransition
	}
	return recording.Acknowledge()
}

func (c *Client) sessionOptions() usecase.SessionOptions {
	return usecase.SessionOptions{
		HoldForReview: !c.hub.opts.AutoSubmit,
		Listener:      c.sendSnapshot,
	}
}

func (c *Client) withSession(fn func(activeSession) error) error {
	c.mutex.Lock()
	session := c.session
	c.mutex.Unlock()

	if session == nil {
		return capture.ErrInvalidTransition
	}
	return fn(session)
}

// replaceSession installs next as the client's session. A session still
// recording or waiting on a collaborator is never replaced; one held for
// review is discarded.
func (c *Client) replaceSession(next activeSession, recording *usecase.CaptureSession) error {
	c.mutex.Lock()
	prev := c.session
	if prev != nil {
		if phase := prev.Snapshot().Phase; phase == capture.PhaseRecording || phase.Busy() {
			c.mutex.Unlock()
			return errSessionBusy
		}
	}
	c.session = next
	c.recording = recording
	c.mutex.Unlock()

	if prev != nil {
		discard(prev)
	}
	return nil
}

// expireRecording cancels a recording that has been open longer than maxAge
func (c *Client) expireRecording(maxAge time.Duration) bool {
	c.mutex.Lock()
	recording := c.recording
	started := c.listeningStart
	c.mutex.Unlock()

	if recording == nil || recording.Snapshot().Phase != capture.PhaseRecording || time.Since(started) < maxAge {
		return false
	}
	if err := recording.Cancel(); err != nil {
		return false
	}
	c.sendJSON(NewErrorMessage("recording_timeout", "recording exceeded the maximum duration"))
	return true
}

// shutdown abandons whatever the client was doing
func (c *Client) shutdown() {
	c.cancel()

	c.mutex.Lock()
	session := c.session
	c.session = nil
	c.recording = nil
	c.mutex.Unlock()

	if session != nil {
		discard(session)
	}
}

func discard(session activeSession) {
	if cs, ok := session.(*usecase.CaptureSession); ok {
		cs.Close()
		return
	}
	_ = session.Cancel()
}

var errSessionBusy = errors.New("a session is already in progress")

func errorCode(err error) string {
	switch {
	case errors.Is(err, errSessionBusy):
		return "session_busy"
	case errors.Is(err, capture.ErrTranscriptionInFlight):
		return "transcription_in_flight"
	case errors.Is(err, capture.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, entities.ErrAmountMissing):
		return "amount_missing"
	case errors.Is(err, entities.ErrEmptyRecording):
		return "empty_recording"
	case errors.Is(err, entities.ErrEmptyTranscript):
		return "empty_transcript"
	case errors.Is(err, entities.ErrDeviceAccess):
		return "device_unavailable"
	default:
		return "internal_error"
	}
}
