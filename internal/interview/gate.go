// Package interview holds the interview session core: the transcription
// gate, the phase transition engine, prompt construction, and the
// evaluation compiler. Everything here is pure logic; external calls
// (STT, LLM, TTS, storage) live behind provider interfaces and are
// sequenced by the service layer.
package interview

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

const (
	// MinVoiceBytes is the smallest audio payload worth transcribing on a
	// conversational turn. Anything shorter is treated as silence.
	MinVoiceBytes = 4000

	// MinCaptionBytes is the lower threshold for caption-only requests.
	MinCaptionBytes = 3000

	// MinTranscriptLen is the semantic gate: a trimmed transcript shorter
	// than this is unintelligible and must not advance the state machine.
	MinTranscriptLen = 5
)

// DecodeAudio decodes a base64 audio payload, tolerating a
// "data:...;base64," data-URI prefix.
func DecodeAudio(payload string) ([]byte, error) {
	raw := payload
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}

// GateAudio decodes the payload and applies the byte-level gate. A decode
// failure is treated exactly like an undersized payload: ok=false and no
// audio to transcribe.
func GateAudio(payload string, minBytes int) (audio []byte, ok bool) {
	b, err := DecodeAudio(payload)
	if err != nil {
		return nil, false
	}
	if len(b) < minBytes {
		return nil, false
	}
	return b, true
}

// Unintelligible applies the semantic gate to a transcript that already
// passed the byte-level gate. The threshold counts characters, not bytes,
// so short non-ASCII utterances don't slip through.
func Unintelligible(transcript string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(transcript)) < MinTranscriptLen
}
