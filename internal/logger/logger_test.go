package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStampsServiceField(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("boot")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "voxhire-backend", entry["service"])
	assert.Equal(t, "boot", entry["msg"])
}

func TestNewServiceNameOverride(t *testing.T) {
	t.Setenv("SERVICE_NAME", "voxhire-staging")

	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Warn("drift")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "voxhire-staging", entry["service"])
}
