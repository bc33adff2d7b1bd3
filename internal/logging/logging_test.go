package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected clog.Level
	}{
		{"debug", clog.DebugLevel},
		{"info", clog.InfoLevel},
		{"", clog.InfoLevel},
		{"warn", clog.WarnLevel},
		{"WARNING", clog.WarnLevel},
		{"error", clog.ErrorLevel},
		{"bogus", clog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "debug"})

	l.With("table", "Thing").Info("fetch done", "rows", 3)

	out := buf.String()
	assert.Contains(t, out, "fetch done")
	assert.Contains(t, out, "table")
	assert.Contains(t, out, "Thing")
	assert.Contains(t, out, "rows")
}

func TestLoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "error"})

	l.Debug("hidden")
	l.Info("hidden too")
	assert.Empty(t, strings.TrimSpace(buf.String()))

	l.Error("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "info", JSON: true})

	l.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
