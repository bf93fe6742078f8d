package llm

import "context"

// Provider generates interviewer text. Generate blocks for one complete
// response; Stream returns incremental chunks for the low-latency path.
// A stream is finite and not restartable.
type Provider interface {
	// Generate returns one complete response for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Stream returns a stream of text chunks (incremental). The chunks
	// channel closes when the stream ends; errs carries at most one error.
	Stream(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)

	Close() error
}
