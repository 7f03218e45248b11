package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Config{Level: level, Format: "json", Output: buf}), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "json config", config: &Config{Level: "debug", Format: "json", Output: io.Discard}},
		{name: "console config", config: &Config{Level: "info", Format: "console", Output: io.Discard}},
		{name: "nil output falls back", config: &Config{Level: "warn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	l, buf := newBuffered("info")

	l.Info("comparison started")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "comparison started", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	l, buf := newBuffered("info")

	l.With().
		Str("request_id", "r-1").
		Str("table", "ORDERS").
		Logger().
		InfoWith("table compared", map[string]any{"workers": 4, "truncated": false})

	entry := decode(t, buf)
	assert.Equal(t, "r-1", entry["request_id"])
	assert.Equal(t, "ORDERS", entry["table"])
	assert.Equal(t, float64(4), entry["workers"])
	assert.Equal(t, false, entry["truncated"])
}

func TestLogger_WarnWithFields(t *testing.T) {
	l, buf := newBuffered("warn")

	l.WarnWith("metadata query failed", errors.New("permission denied"), map[string]any{
		"database": "ANALYTICS",
		"schema":   "SALES",
	})

	entry := decode(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "permission denied", entry["error"])
	assert.Equal(t, "ANALYTICS", entry["database"])
	assert.Equal(t, "SALES", entry["schema"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	l, buf := newBuffered("error")

	l.ErrorWith("export failed", errors.New("bucket missing"), map[string]any{"bucket": "reports"})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "export failed", entry["message"])
	assert.Equal(t, "bucket missing", entry["error"])
	assert.Equal(t, "reports", entry["bucket"])
}

func TestLogger_Context(t *testing.T) {
	l, buf := newBuffered("info")

	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info("from context")

	assert.Equal(t, "from context", decode(t, buf)["message"])
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	l, buf := newBuffered("info")
	prev := global
	SetGlobal(l)
	t.Cleanup(func() { SetGlobal(prev) })

	FromContext(context.Background()).Info("fallback")

	assert.Equal(t, "fallback", decode(t, buf)["message"])
}

func TestLogger_LevelsArePerLogger(t *testing.T) {
	quiet, quietBuf := newBuffered("error")
	loud, loudBuf := newBuffered("debug")

	quiet.Info("dropped")
	loud.DebugWith("kept", nil)

	assert.Empty(t, quietBuf.String())
	assert.NotEmpty(t, loudBuf.String())
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{name: "debug level logs debug", level: "debug", logFunc: func(l *Logger) { l.DebugWith("query", map[string]any{"n": 1}) }, expected: true},
		{name: "info level skips debug", level: "info", logFunc: func(l *Logger) { l.DebugWith("debug message", nil) }, expected: false},
		{name: "warn level logs warn", level: "warn", logFunc: func(l *Logger) { l.WarnWith("skipped", nil, map[string]any{"schema": "S"}) }, expected: true},
		{name: "error level skips info", level: "error", logFunc: func(l *Logger) { l.Info("info message") }, expected: false},
		{name: "unknown level defaults to info", level: "loud", logFunc: func(l *Logger) { l.Info("info message") }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBuffered(tt.level)

			tt.logFunc(l)

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().ErrorWith("ignored", errors.New("x"), nil)
	})
}

func BenchmarkLogger_WithFields(b *testing.B) {
	l := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.With().
			Str("table", "ORDERS").
			Logger().
			InfoWith("table compared", map[string]any{"index": i})
	}
}
