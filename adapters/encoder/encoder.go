package encoder

import "github.com/satriahrh/voxpense/domain/repositories"

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// PassthroughPackager forwards audio that is already in a container the
// recognizer understands, such as WebM/Opus chunks recorded by a browser.
type PassthroughPackager struct {
	Config repositories.AudioConfig
}

// Package implements repositories.AudioPackager
func (p PassthroughPackager) Package(raw []byte) ([]byte, repositories.AudioConfig, error) {
	return raw, p.Config, nil
}

// ForConfig picks the packager for audio described by config: raw PCM is
// wrapped in FLAC, anything else is assumed to be in a container already.
func ForConfig(config repositories.AudioConfig) repositories.AudioPackager {
	if config.Encoding == "LINEAR16" {
		return FLACPackager{SampleRate: config.SampleRate, Language: config.Language}
	}
	return PassthroughPackager{Config: config}
}
