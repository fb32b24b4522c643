package audio

import "github.com/satriahrh/voxpense/domain/repositories"

var (
	_ repositories.AudioSource  = &Microphone{}
	_ repositories.AudioCapture = &microphoneCapture{}
)
