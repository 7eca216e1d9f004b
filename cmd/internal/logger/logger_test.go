package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useBuffer(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Log
	Log = NewLoggerTo(&buf, level)
	t.Cleanup(func() { Log = prev })
	return &buf
}

func TestInfoWithFieldsWritesJSONLine(t *testing.T) {
	t.Setenv("SERVICE_NAME", "assistant-test")
	buf := useBuffer(t, "info")

	InfoWithFields("session adopted", Fields{"session_id": "s-1"})

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	assert.Equal(t, "session adopted", out["message"])
	assert.Equal(t, "s-1", out["session_id"])
	assert.Equal(t, "assistant-test", out["service_name"])
}

func TestDebugIsSuppressedAtInfoLevel(t *testing.T) {
	buf := useBuffer(t, "info")

	DebugWithFields("hidden", nil)

	assert.Empty(t, strings.TrimSpace(buf.String()))
}
