package tts

import "context"

// Synthesis is encoded speech for one utterance.
type Synthesis struct {
	Audio      []byte
	Encoding   string // e.g. "MP3"
	SampleRate int32
}

type Provider interface {
	Synthesize(ctx context.Context, text string) (Synthesis, error)
	Close() error
}
