package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackSelectorRoundRobin(t *testing.T) {
	var f FallbackSelector

	first := f.Next()
	second := f.Next()
	third := f.Next()

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)

	// wraps around deterministically
	assert.Equal(t, first, f.Next())
	assert.Equal(t, second, f.Next())
}

func TestFallbackGreetingMentionsField(t *testing.T) {
	assert.Contains(t, FallbackGreeting("databases"), "databases")
}
