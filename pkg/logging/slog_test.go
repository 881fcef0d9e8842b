package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextLevelsAreFiltered(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "text", &buf)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn", "attempt", 2)
	log.Error(ctx, "err", "op", "signup")

	out := buf.String()
	assert.NotContains(t, out, "msg=dbg")
	assert.NotContains(t, out, "msg=inf")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "op=signup")
}

func TestNew_JSONWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf).With("component", "mailer")

	log.Info(context.Background(), "sent", "category", "Email Verification")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sent", line["msg"])
	assert.Equal(t, "mailer", line["component"])
	assert.Equal(t, "Email Verification", line["category"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	log.With("k", "v").Error(context.Background(), "ignored")
}
