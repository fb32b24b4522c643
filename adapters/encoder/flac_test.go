package encoder

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/voxpense/domain/repositories"
)

func pcm(n int) []byte {
	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(i%1000)))
	}
	return raw
}

func TestFLACPackager(t *testing.T) {
	data, config, err := FLACPackager{Language: "en-US"}.Package(pcm(BlockSize*2 + BlockSize/4))
	require.NoError(t, err)

	require.True(t, len(data) > 4)
	assert.Equal(t, "fLaC", string(data[:4]))
	assert.Equal(t, "FLAC", config.Encoding)
	assert.Equal(t, SampleRate, config.SampleRate)
	assert.Equal(t, "en-US", config.Language)
}

func TestEncodeFLAC_Empty(t *testing.T) {
	data, err := EncodeFLAC(nil, SampleRate)
	require.NoError(t, err)
	assert.Equal(t, "fLaC", string(data[:4]))
}

func TestPassthroughPackager(t *testing.T) {
	p := PassthroughPackager{}
	p.Config.Encoding = "WEBM_OPUS"

	data, config, err := p.Package([]byte("webm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("webm"), data)
	assert.Equal(t, "WEBM_OPUS", config.Encoding)
}

func TestForConfig(t *testing.T) {
	pcmConfig := repositories.AudioConfig{SampleRate: 48000, Encoding: "LINEAR16", Language: "en-US"}
	data, config, err := ForConfig(pcmConfig).Package(pcm(100))
	require.NoError(t, err)
	assert.Equal(t, "fLaC", string(data[:4]))
	assert.Equal(t, 48000, config.SampleRate)
	assert.Equal(t, "FLAC", config.Encoding)

	webm := repositories.AudioConfig{SampleRate: 48000, Encoding: "WEBM_OPUS"}
	assert.Equal(t, PassthroughPackager{Config: webm}, ForConfig(webm))
}
