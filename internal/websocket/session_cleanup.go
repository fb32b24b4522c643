package websocket

import (
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRecording bounds a websocket recording when no limit is configured
const DefaultMaxRecording = 2 * time.Minute

// SessionCleanupService cancels recordings whose client never sent
// listening_end, so an abandoned stream cannot hold a session open.
type SessionCleanupService struct {
	hub          *Hub
	maxRecording time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(hub *Hub, maxRecording time.Duration, logger *zap.Logger) *SessionCleanupService {
	if maxRecording <= 0 {
		maxRecording = DefaultMaxRecording
	}
	return &SessionCleanupService{
		hub:          hub,
		maxRecording: maxRecording,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started", zap.Duration("maxRecording", s.maxRecording))
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	s.logger.Info("Session cleanup service stopped")
}

// cleanupLoop checks twice per allowed recording duration
func (s *SessionCleanupService) cleanupLoop() {
	ticker := time.NewTicker(s.maxRecording / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup cancels every recording older than maxRecording
func (s *SessionCleanupService) runCleanup() int {
	expired := 0
	s.hub.forEachClient(func(c *Client) {
		if c.expireRecording(s.maxRecording) {
			expired++
			c.logger.Warn("Recording expired", zap.Duration("maxRecording", s.maxRecording))
		}
	})
	if expired > 0 {
		s.logger.Info("Session cleanup completed", zap.Int("expired", expired))
	}
	return expired
}
