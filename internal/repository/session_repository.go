package repository

import (
	"context"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.session")

var ErrSessionStateNotFound = errors.New("session state not found")

// Hash fields of a mirrored session.
const (
	FieldBoard       = "board"
	FieldState       = "state"
	FieldWinner      = "winner"
	FieldCurrent     = "current"
	FieldInteraction = "interaction"
	FieldMoveCount   = "move_count"
)

// DefaultStateTTL bounds how long a mirror outlives its last event.
const DefaultStateTTL = time.Hour

// SessionState is the live state of a session as mirrored in Redis.
type SessionState struct {
	ID                 string
	Board              game.Board
	State              string
	Winner             string
	CurrentPlayer      string
	InteractionEnabled bool
	MoveCount          int
}

// SessionStateRepository mirrors the state of live sessions into Redis hashes so
// that views in other processes can render a game they join midway. It folds the
// session's events and is registered as a session observer.
type SessionStateRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStateRepository creates a new Redis-based SessionStateRepository.
func NewSessionStateRepository(rdb *redis.Client, ttl time.Duration) *SessionStateRepository {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &SessionStateRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Notify folds ev into the mirrored state. Failures are logged only.
func (r *SessionStateRepository) Notify(ctx context.Context, ev events.Event) {
	ctx, span := tracer.Start(ctx, "SessionStateRepository.Notify", trace.WithAttributes(
		attribute.String("session.id", ev.SessionID),
		attribute.String("event.type", string(ev.Type)),
	))
	defer span.End()

	if err := r.apply(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to mirror session event", "session.id", ev.SessionID, "event", ev.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to mirror session event")
	}
}

func (r *SessionStateRepository) apply(ctx context.Context, ev events.Event) error {
	key := sessionKey(ev.SessionID)

	switch ev.Type {
	case events.GameStateChanged:
		p, err := events.Decode[events.GameStateChangedPayload](ev)
		if err != nil {
			return err
		}
		pipe := r.rdb.TxPipeline()
		pipe.HSetNX(ctx, key, FieldBoard, emptyBoardJSON)
		pipe.HSetNX(ctx, key, FieldMoveCount, 0)
		pipe.HSet(ctx, key, FieldState, p.State, FieldWinner, p.Winner)
		if p.State != "ongoing" {
			pipe.HSet(ctx, key, FieldInteraction, false)
		}
		pipe.Expire(ctx, key, r.ttl)
		_, err = pipe.Exec(ctx)
		return err

	case events.NextPlay:
		p, err := events.Decode[events.NextPlayPayload](ev)
		if err != nil {
			return err
		}
		pipe := r.rdb.TxPipeline()
		pipe.HSet(ctx, key, FieldCurrent, p.Player, FieldInteraction, p.InteractionEnabled)
		pipe.Expire(ctx, key, r.ttl)
		_, err = pipe.Exec(ctx)
		return err

	case events.ComputerThinking:
		return r.rdb.HSet(ctx, key, FieldInteraction, false).Err()

	case events.MoveApplied:
		p, err := events.Decode[events.MoveAppliedPayload](ev)
		if err != nil {
			return err
		}
		return r.applyMove(ctx, key, p)
	}
	return nil
}

func (r *SessionStateRepository) applyMove(ctx context.Context, key string, p events.MoveAppliedPayload) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, FieldBoard).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		var board game.Board
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &board); err != nil {
				return fmt.Errorf("failed to unmarshal board for update: %w", err)
			}
		}
		board, err = board.Apply(game.Move{Row: p.Row, Col: p.Col}, game.PlayerMark(p.Mark))
		if err != nil {
			return err
		}
		boardJSON, err := json.Marshal(board)
		if err != nil {
			return fmt.Errorf("failed to marshal updated board: %w", err)
		}

		pipe := tx.TxPipeline()
		pipe.HSet(ctx, key, FieldBoard, boardJSON, FieldMoveCount, p.MoveCount)
		pipe.Expire(ctx, key, r.ttl)
		_, err = pipe.Exec(ctx)
		return err
	}

	return r.rdb.Watch(ctx, txf, key)
}

// FindByID retrieves the mirrored state of a session.
func (r *SessionStateRepository) FindByID(ctx context.Context, id string) (*SessionState, error) {
	ctx, span := tracer.Start(ctx, "SessionStateRepository.FindByID", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session state from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionStateNotFound
	}

	state := &SessionState{
		ID:            id,
		State:         data[FieldState],
		Winner:        data[FieldWinner],
		CurrentPlayer: data[FieldCurrent],
	}
	if raw := data[FieldBoard]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Board); err != nil {
			return nil, fmt.Errorf("failed to unmarshal board: %w", err)
		}
	}
	if raw := data[FieldMoveCount]; raw != "" {
		if state.MoveCount, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("failed to parse move count: %w", err)
		}
	}
	if raw := data[FieldInteraction]; raw != "" {
		if state.InteractionEnabled, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("failed to parse interaction flag: %w", err)
		}
	}
	return state, nil
}

// Delete removes the mirrored state of a session.
func (r *SessionStateRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionStateRepository.Delete")
	defer span.End()

	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

var emptyBoardJSON = func() string {
	raw, _ := json.Marshal(game.Board{})
	return string(raw)
}()
