package stt

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
)

func TestGetAudioEncoding(t *testing.T) {
	enc, err := getAudioEncoding("FLAC")
	assert.NoError(t, err)
	assert.Equal(t, speechpb.RecognitionConfig_FLAC, enc)

	enc, err = getAudioEncoding("WEBM_OPUS")
	assert.NoError(t, err)
	assert.Equal(t, speechpb.RecognitionConfig_WEBM_OPUS, enc)

	_, err = getAudioEncoding("AIFF")
	assert.Error(t, err)
}

func TestAudioMIMEType(t *testing.T) {
	mime, err := audioMIMEType("FLAC")
	assert.NoError(t, err)
	assert.Equal(t, "audio/flac", mime)

	_, err = audioMIMEType("LINEAR16")
	assert.Error(t, err)
}
