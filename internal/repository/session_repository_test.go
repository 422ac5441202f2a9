package repository

import (
	"context"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/session"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func mustEvent(t *testing.T, typ events.Type, seq int, payload any) events.Event {
	t.Helper()
	ev, err := events.New(typ, "s1", seq, payload)
	require.NoError(t, err)
	return ev
}

func TestSessionStateRepository_FoldsEvents(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()
	repo := NewSessionStateRepository(rdb, time.Minute)

	// Given: the events of a started game with one move
	for _, ev := range []events.Event{
		mustEvent(t, events.GameStateChanged, 1, events.GameStateChangedPayload{State: "ongoing"}),
		mustEvent(t, events.NextPlay, 2, events.NextPlayPayload{Player: "home", InteractionEnabled: true}),
		mustEvent(t, events.MoveApplied, 3, events.MoveAppliedPayload{Player: "home", Mark: "X", Row: 1, Col: 1, MoveCount: 1}),
		mustEvent(t, events.NextPlay, 4, events.NextPlayPayload{Player: "visitor"}),
		mustEvent(t, events.ComputerThinking, 5, events.ComputerThinkingPayload{Player: "visitor"}),
	} {
		// When: they are folded
		repo.Notify(ctx, ev)
	}

	// Then: the mirrored state matches the game
	state, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ongoing", state.State)
	assert.Equal(t, "visitor", state.CurrentPlayer)
	assert.Equal(t, 1, state.MoveCount)
	assert.Equal(t, game.PlayerX, state.Board[1][1])
	assert.Equal(t, 1, state.Board.Count())
	assert.False(t, state.InteractionEnabled)

	ttl, err := rdb.TTL(ctx, sessionKey("s1")).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestSessionStateRepository_MirrorsSession(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()
	repo := NewSessionStateRepository(rdb, 0)

	s, err := session.New("mirrored", session.Options{GameType: game.HumanVsHuman}, nil, repo)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Start(ctx))

	// When: Home wins on the diagonal
	for _, m := range []game.Move{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 0, Col: 2}, {Row: 2, Col: 2}} {
		require.NoError(t, s.SubmitMove(ctx, m))
	}

	// Then: the mirror holds the final board and winner
	state, err := repo.FindByID(ctx, "mirrored")
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, snap.Board, state.Board)
	assert.Equal(t, snap.MoveCount, state.MoveCount)
	assert.Equal(t, "won", state.State)
	assert.Equal(t, "home", state.Winner)
	assert.False(t, state.InteractionEnabled)
}

func TestSessionStateRepository_NotFoundAndDelete(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()
	repo := NewSessionStateRepository(rdb, time.Minute)

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionStateNotFound)

	repo.Notify(ctx, mustEvent(t, events.GameStateChanged, 1, events.GameStateChangedPayload{State: "ongoing"}))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err = repo.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionStateNotFound)
}
