package stt

import "context"

// Result is one recognition outcome. An empty transcript with zero
// confidence means the recognizer heard nothing usable.
type Result struct {
	Transcript string
	Confidence float64
}

type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (Result, error)
	Close() error
}
