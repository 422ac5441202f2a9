package session

//go:generate mockgen -source=session.go -destination=mocks/session.go -package=mocks

import (
	"context"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"ctchen222/tictactoe-engine/internal/validator"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")
)

// MoveCalculator defines an agent that picks the move of a computer player.
type MoveCalculator interface {
	SelectMove(ctx context.Context, p player.Player, difficulty game.Difficulty, board game.Board) (game.Move, error)
}

// Observer receives every event of a session, in order, on the session's run loop.
// Notify must not block for long and must not call Close.
type Observer interface {
	Notify(ctx context.Context, ev events.Event)
}

// Options configures a session. ComputerDelay is the pause before each computer
// move; the game's views use one second.
type Options struct {
	GameType      game.GameType   `validate:"gametype"`
	Difficulty    game.Difficulty `validate:"difficulty"`
	ComputerDelay time.Duration   `validate:"gte=0"`
}

type moveRequest struct {
	move  game.Move
	reply chan error
}

type computerMove struct {
	player player.Player
	move   game.Move
	turn   int
}

// Session is a single game. All transitions run on one goroutine started by Start.
type Session struct {
	id         string
	opts       Options
	calculator MoveCalculator
	observers  []Observer
	broker     *events.Broker

	mu          sync.RWMutex
	state       GameState
	current     player.Player
	moveCount   int
	board       game.Board
	interaction bool
	seq         int
	started     bool
	closed      bool

	starts        chan chan error
	moves         chan moveRequest
	computerMoves chan computerMove

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once

	moveCounter     metric.Int64Counter
	finishedCounter metric.Int64Counter
}

// New creates an idle session. ComputerVsComputer games start with a random
// player, every other game type with player.Home.
func New(id string, opts Options, calculator MoveCalculator, observers ...Observer) (*Session, error) {
	if err := validator.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}
	if calculator == nil && opts.GameType != game.HumanVsHuman {
		return nil, errors.New("a move calculator is required for games with a computer player")
	}

	first := player.Home
	if opts.GameType == game.ComputerVsComputer {
		first = player.Random()
	}

	s := &Session{
		id:            id,
		opts:          opts,
		calculator:    calculator,
		observers:     observers,
		broker:        events.NewBroker(),
		state:         GameState{Phase: Idle},
		current:       first,
		starts:        make(chan chan error),
		moves:         make(chan moveRequest),
		computerMoves: make(chan computerMove),
		done:          make(chan struct{}),
	}

	var err error
	if s.moveCounter, err = meter.Int64Counter("session.moves",
		metric.WithDescription("Moves applied to sessions")); err != nil {
		slog.Warn("failed to create session.moves counter", "error", err)
	}
	if s.finishedCounter, err = meter.Int64Counter("session.games.finished",
		metric.WithDescription("Games that reached a terminal state")); err != nil {
		slog.Warn("failed to create session.games.finished counter", "error", err)
	}

	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Start moves the game from Idle to Ongoing and hands the turn to the first player.
// The session outlives ctx; it stops only on Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(loopCtx)

	reply := make(chan error, 1)
	select {
	case s.starts <- reply:
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// SubmitMove applies a human move for the current player. Rejected moves leave
// the session unchanged and return an error wrapping game.ErrInvalidMove.
func (s *Session) SubmitMove(ctx context.Context, m game.Move) error {
	s.mu.RLock()
	closed, phase := s.closed, s.state.Phase
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if phase != Ongoing {
		return s.reject(ctx, m, fmt.Errorf("%w: %w", game.ErrInvalidMove, ErrNotOngoing))
	}
	if err := validator.Struct(m); err != nil {
		return s.reject(ctx, m, fmt.Errorf("%w: %s is out of range: %w", game.ErrInvalidMove, m, err))
	}

	req := moveRequest{move: m, reply: make(chan error, 1)}
	select {
	case s.moves <- req:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		if err != nil {
			return s.reject(ctx, m, err)
		}
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) reject(ctx context.Context, m game.Move, err error) error {
	slog.WarnContext(ctx, "Rejected move", "session.id", s.id, "row", m.Row, "col", m.Col, "error", err)
	return err
}

// Snapshot returns a copy of the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		ID:                 s.id,
		GameType:           s.opts.GameType,
		Difficulty:         s.opts.Difficulty,
		State:              s.state,
		CurrentPlayer:      s.current,
		MoveCount:          s.moveCount,
		Board:              s.board,
		InteractionEnabled: s.interaction,
	}
}

// Subscribe returns a channel receiving the session's events from now on.
// The channel is closed by the returned function, ctx cancellation or Close.
func (s *Session) Subscribe(ctx context.Context) (<-chan events.Event, func()) {
	return s.broker.Subscribe(ctx)
}

// Close stops the run loop, cancels a pending computer move and closes all
// subscriptions. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.interaction = false
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		s.broker.Close()
		close(s.done)
		slog.Info("Session closed", "session.id", s.id)
	})
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
