package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/satriahrh/voxpense/domain/repositories"
)

// FLACPackager wraps 16-bit little-endian mono PCM into a FLAC stream for
// transcription. A zero SampleRate means the package default.
type FLACPackager struct {
	SampleRate int
	Language   string
}

// Package implements repositories.AudioPackager
func (p FLACPackager) Package(raw []byte) ([]byte, repositories.AudioConfig, error) {
	rate := p.SampleRate
	if rate == 0 {
		rate = SampleRate
	}
	config := repositories.AudioConfig{
		SampleRate: rate,
		Encoding:   "FLAC",
		Language:   p.Language,
	}

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	data, err := EncodeFLAC(samples, rate)
	if err != nil {
		return nil, config, err
	}
	return data, config, nil
}

// EncodeFLAC encodes mono samples as verbatim FLAC frames of BlockSize
func EncodeFLAC(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
		NSamples:      uint64(len(samples)),
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}

	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := writeBlock(enc, samples[i:end], uint32(sampleRate)); err != nil {
			return nil, err
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBlock(enc *flac.Encoder, block []int16, sampleRate uint32) error {
	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(s)
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    sampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples32,
			NSamples:  len(block),
		}},
	}
	if err := enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}
