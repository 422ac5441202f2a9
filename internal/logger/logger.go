package logger

import (
	"context"
	"ctchen222/tictactoe-engine/internal/config"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const instrumentationName = "ctchen222/tictactoe-engine"

// MultiHandler is a slog.Handler that dispatches records to multiple handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a new MultiHandler.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any underlying handler handles records at level.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle dispatches the record to every underlying handler enabled for its level.
// A failing handler does not keep the record from the others.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return NewMultiHandler(newHandlers...)
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return NewMultiHandler(newHandlers...)
}

// New builds a logger writing to w in the configured format and, when withOtel
// is set, to the global OpenTelemetry logger provider.
func New(w io.Writer, cfg config.Log, withOtel bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.SlogLevel() == slog.LevelDebug,
		Level:     cfg.SlogLevel(),
	}

	var consoleHandler slog.Handler
	if cfg.Format == "json" {
		consoleHandler = slog.NewJSONHandler(w, opts)
	} else {
		consoleHandler = slog.NewTextHandler(w, opts)
	}

	if !withOtel {
		return slog.New(consoleHandler)
	}
	return slog.New(NewMultiHandler(consoleHandler, otelslog.NewHandler(instrumentationName)))
}

// Init installs the logger built by New as the slog default. Console output goes
// to stderr so that it does not mix with the game's own output.
func Init(cfg *config.Config) *slog.Logger {
	l := New(os.Stderr, cfg.Log, cfg.Telemetry.Enabled)
	slog.SetDefault(l)
	return l
}
