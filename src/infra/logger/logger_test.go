package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbaccess/src/core/domain"
	"dbaccess/src/infra/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)

	WithComponent(log, "db").Info("pool created", "max_connections", 20)
	log.Debug("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "pool created", entry["msg"])
	assert.Equal(t, "db", entry["component"])
	assert.EqualValues(t, 20, entry["max_connections"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "warn", Format: "text"}, &buf)

	log.Info("dropped")
	WithRequestID(log, "req-1").Warn("slow request")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=\"slow request\"")
	assert.Contains(t, out, "request_id=req-1")
}

func TestNewWithWriter_Plain(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "info", Format: "plain"}, &buf)

	WithComponent(log, "db").Warn("retrying", "attempt", 2)

	assert.Equal(t, "WARN retrying component=db attempt=2\n", buf.String())
}

func TestParamsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)

	log.Info("statement", "param", domain.Text("hunter2"))

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "<text>")
}

func TestWithComponent_NilLogger(t *testing.T) {
	log := WithComponent(nil, "db")
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Error("ignored") })
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
}
