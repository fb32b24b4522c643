package repositories

import "context"

// FrameHandler receives raw audio frames while a capture is open
type FrameHandler func(frame []byte)

// AudioSource hands out exclusive access to a capture device
type AudioSource interface {
	// Open acquires the device and starts delivering frames to onFrame.
	// On error no device is held.
	Open(ctx context.Context, onFrame FrameHandler) (AudioCapture, error)
}

// AudioCapture is an acquired capture device
type AudioCapture interface {
	// Close stops delivery and releases the device. It is safe to call more than once.
	Close() error
}

// AudioPackager turns a captured buffer into the payload sent for transcription
type AudioPackager interface {
	Package(raw []byte) ([]byte, AudioConfig, error)
}
