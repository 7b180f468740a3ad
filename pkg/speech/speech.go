package speech

import "context"

// VoiceVariant selects the synthesized voice.
type VoiceVariant string

const (
	VoiceMale   VoiceVariant = "male"
	VoiceFemale VoiceVariant = "female"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceVariant) ([]byte, error)
}
