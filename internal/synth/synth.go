package synth

import "context"

// Voice selects the synthesized speech's voice and locale. It is fixed for
// an entire run and passed unchanged to every synthesis call.
type Voice struct {
	Name     string
	Language string
}

// Synthesizer is the contract for rendering one chunk of text as encoded
// audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}

// VoiceInfo describes one entry of a backend's voice catalog.
type VoiceInfo struct {
	Name       string
	Languages  []string
	Gender     string
	SampleRate int64
}
