package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/satriahrh/voxpense/domain/repositories"
)

// Microphone is the default capture device of the host, opened through
// miniaudio. Frames are 16-bit little-endian mono PCM.
type Microphone struct {
	sampleRate uint32
	logger     *zap.Logger
}

// NewMicrophone creates an audio source recording at sampleRate
func NewMicrophone(sampleRate int, logger *zap.Logger) *Microphone {
	return &Microphone{
		sampleRate: uint32(sampleRate),
		logger:     logger,
	}
}

// Open implements repositories.AudioSource
func (m *Microphone) Open(_ context.Context, onFrame repositories.FrameHandler) (repositories.AudioCapture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = m.sampleRate

	capture := &microphoneCapture{ctx: ctx, logger: m.logger}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, _ uint32) {
			// miniaudio reuses the buffer after the callback returns
			onFrame(append([]byte(nil), data...))
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		capture.freeContext()
		return nil, fmt.Errorf("malgo device: %w", err)
	}
	capture.device = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		capture.freeContext()
		return nil, fmt.Errorf("malgo start: %w", err)
	}

	m.logger.Info("Microphone opened", zap.Uint32("sampleRate", m.sampleRate))
	return capture, nil
}

type microphoneCapture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	logger *zap.Logger
	once   sync.Once
}

// Close implements repositories.AudioCapture
func (c *microphoneCapture) Close() error {
	var err error
	c.once.Do(func() {
		err = c.device.Stop()
		c.device.Uninit()
		c.freeContext()
		c.logger.Info("Microphone released")
	})
	return err
}

func (c *microphoneCapture) freeContext() {
	if err := c.ctx.Uninit(); err != nil {
		c.logger.Warn("Failed to uninit audio context", zap.Error(err))
	}
	c.ctx.Free()
}
