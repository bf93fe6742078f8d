package config

import (
	"os"
	"time"

	"github.com/voxhire/backend/internal/session"
)

// SessionIdleTTL reads SESSION_IDLE_TTL (Go duration, e.g. "2h") with a
// sane default for abandoned sessions.
func SessionIdleTTL() time.Duration {
	v := os.Getenv("SESSION_IDLE_TTL")
	if v == "" {
		return session.DefaultIdleTTL
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return session.DefaultIdleTTL
	}
	return d
}
