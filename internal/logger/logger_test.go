package logger

import (
	"bytes"
	"context"
	"ctchen222/tictactoe-engine/internal/config"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warn := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	l := slog.New(NewMultiHandler(debug, warn))

	// When: records below and above the warn level are logged
	l.Debug("thinking", "session.id", "s1")
	l.Warn("rejected move", "row", 3)

	// Then: each handler only receives what it is enabled for
	assert.Contains(t, debugBuf.String(), "thinking")
	assert.Contains(t, debugBuf.String(), "rejected move")
	assert.NotContains(t, warnBuf.String(), "thinking")
	assert.Contains(t, warnBuf.String(), "rejected move")
}

func TestMultiHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewMultiHandler(slog.NewTextHandler(&buf, nil)))

	l.With("session.id", "s1").WithGroup("move").Info("applied", "row", 1)

	assert.Contains(t, buf.String(), "session.id=s1")
	assert.Contains(t, buf.String(), "move.row=1")
}

func TestMultiHandlerKeepsGoingOnError(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(failingHandler{}, slog.NewTextHandler(&buf, nil))

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "game finished", 0))

	require.Error(t, err)
	assert.Contains(t, buf.String(), "game finished")
}

func TestNew(t *testing.T) {
	t.Run("JSON format", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, config.Log{Level: "info", Format: "json"}, false)

		l.Info("Game started", "session.id", "s1")
		l.Debug("hidden")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "Game started", record["msg"])
		assert.Equal(t, "s1", record["session.id"])
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("Text format with otel bridge", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, config.Log{Level: "debug", Format: "text"}, true)

		l.Debug("Bot selected move", "row", 1)

		_, ok := l.Handler().(*MultiHandler)
		assert.True(t, ok)
		assert.True(t, strings.Contains(buf.String(), "Bot selected move"))
	})
}
