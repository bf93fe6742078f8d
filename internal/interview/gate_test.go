package interview

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(n int) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, n))
}

func TestDecodeAudioStripsDataURIPrefix(t *testing.T) {
	raw := []byte("hello audio")
	payload := "data:audio/webm;base64," + base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeAudio(payload)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeAudioRejectsGarbage(t *testing.T) {
	_, err := DecodeAudio("!!!not-base64!!!")
	assert.Error(t, err)
}

func TestGateAudioThresholds(t *testing.T) {
	_, ok := GateAudio(b64(100), MinVoiceBytes)
	assert.False(t, ok, "100 bytes is silence")

	_, ok = GateAudio(b64(MinVoiceBytes-1), MinVoiceBytes)
	assert.False(t, ok)

	audio, ok := GateAudio(b64(MinVoiceBytes), MinVoiceBytes)
	assert.True(t, ok)
	assert.Len(t, audio, MinVoiceBytes)

	// the caption gate sits lower
	_, ok = GateAudio(b64(3500), MinCaptionBytes)
	assert.True(t, ok)
	_, ok = GateAudio(b64(3500), MinVoiceBytes)
	assert.False(t, ok)
}

func TestGateAudioDecodeFailureActsLikeUndersized(t *testing.T) {
	audio, ok := GateAudio("%%%", MinVoiceBytes)
	assert.False(t, ok)
	assert.Nil(t, audio)
}

func TestUnintelligible(t *testing.T) {
	assert.True(t, Unintelligible(""))
	assert.True(t, Unintelligible("  hi  "), "trimmed length under 5")
	assert.True(t, Unintelligible("abcd"))
	assert.False(t, Unintelligible("abcde"))
	assert.False(t, Unintelligible("  I worked on Go services  "))

	// characters, not bytes: "你好" is 2 runes (6 bytes)
	assert.True(t, Unintelligible("你好"))
	assert.False(t, Unintelligible("我在做后端开发"))
}
