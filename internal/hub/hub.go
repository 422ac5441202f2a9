package hub

import (
	"context"
	"ctchen222/tictactoe-engine/internal/session"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrSessionNotFound = errors.New("session not found")

var tracer = otel.Tracer("hub")

// Hub manages all the live sessions of the process.
type Hub struct {
	mu         sync.Mutex
	sessions   map[string]*session.Session
	calculator session.MoveCalculator
	observers  []session.Observer
}

// NewHub creates a new hub. Every session it creates shares the calculator and
// reports to the observers.
func NewHub(calculator session.MoveCalculator, observers ...session.Observer) *Hub {
	return &Hub{
		sessions:   make(map[string]*session.Session),
		calculator: calculator,
		observers:  observers,
	}
}

// CreateSession creates and registers an idle session under a fresh id.
// The session is removed from the hub once it is closed.
func (h *Hub) CreateSession(ctx context.Context, opts session.Options) (*session.Session, error) {
	id := uuid.New().String()
	ctx, span := tracer.Start(ctx, "hub.CreateSession", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("game.type", opts.GameType.String()),
	))
	defer span.End()

	s, err := session.New(id, opts, h.calculator, h.observers...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create session")
		return nil, err
	}

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	go h.unregisterWhenDone(s)

	slog.InfoContext(ctx, "Session created", "session.id", id, "game.type", opts.GameType.String(), "difficulty", opts.Difficulty.String())
	return s, nil
}

func (h *Hub) unregisterWhenDone(s *session.Session) {
	<-s.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.ID()] == s {
		delete(h.sessions, s.ID())
		slog.Info("Session unregistered", "session.id", s.ID())
	}
}

// Get returns the session registered under id.
func (h *Hub) Get(id string) (*session.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close destroys the session registered under id.
func (h *Hub) Close(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// CloseAll destroys every registered session.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make([]*session.Session, 0, len(h.sessions))
	for id, s := range h.sessions {
		sessions = append(sessions, s)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
}

// Len returns the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
