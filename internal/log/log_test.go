package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelInfo)
	Debug("hidden debug")
	Info("fetch done", "events", 3)
	Error("fetch failed", errors.New("boom"), "url", "https://example.com/...(redacted)")

	out := buf.String()
	assert.NotContains(t, out, "hidden debug")
	assert.Contains(t, out, "fetch done")
	assert.Contains(t, out, "events")
	assert.Contains(t, out, "boom")

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("visible debug")
	assert.Contains(t, buf.String(), "visible debug")

	buf.Reset()
	SetLevel(LevelError)
	Warn("quiet warning")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}
