package interview

import "sync/atomic"

// Scripted utterances used when a collaborator is unavailable or the
// candidate could not be understood. A conversational turn never fails
// outright; it degrades to one of these.
const (
	RepeatPrompt      = "I couldn't hear that clearly. Please repeat your answer."
	DidNotCatchPrompt = "I didn't catch that. Please speak again."
	BadAudioPrompt    = "I couldn't process the audio. Please try again."
)

var fallbackResponses = []string{
	"That's a good point. Can you tell me more about your approach to solving problems in this area?",
	"I see. What would you say is the most challenging aspect of working with this technology?",
	"Interesting perspective. How do you typically handle situations where you need to learn something new quickly?",
}

// FallbackGreeting stands in for the opening message when generation fails.
func FallbackGreeting(field string) string {
	return "Hello! Welcome to your " + field + " interview. I'm your AI interviewer today. Before we begin, please tell me a little about yourself and your experience with " + field + "."
}

// FallbackSelector hands out canned follow-up responses round-robin, so
// the degraded path stays deterministic and testable.
type FallbackSelector struct {
	next atomic.Uint64
}

func (f *FallbackSelector) Next() string {
	n := f.next.Add(1) - 1
	return fallbackResponses[n%uint64(len(fallbackResponses))]
}
