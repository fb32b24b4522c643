package websocket

import (
	"context"
	"errors"

	"github.com/satriahrh/voxpense/domain/repositories"
)

// streamSource presents a client connection as an audio device: binary
// frames received while it is open are the recording.
type streamSource struct {
	client *Client
}

// Open implements repositories.AudioSource
func (s streamSource) Open(_ context.Context, onFrame repositories.FrameHandler) (repositories.AudioCapture, error) {
	c := s.client
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stream != nil {
		return nil, errors.New("audio stream already open")
	}
	if c.ctx.Err() != nil {
		return nil, errors.New("connection closed")
	}

	stream := &streamCapture{client: c, onFrame: onFrame}
	c.stream = stream
	return stream, nil
}

type streamCapture struct {
	client  *Client
	onFrame repositories.FrameHandler
}

// Close implements repositories.AudioCapture
func (s *streamCapture) Close() error {
	c := s.client
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.stream == s {
		c.stream = nil
	}
	return nil
}
