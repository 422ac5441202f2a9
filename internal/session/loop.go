package session

import (
	"context"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// run is the main loop of the session.
func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()
	slog.DebugContext(ctx, "Session run loop started", "session.id", s.id)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Session run loop stopping.", "session.id", s.id)
			return

		case reply := <-s.starts:
			reply <- s.handleStart(ctx)

		case req := <-s.moves:
			req.reply <- s.handleHumanMove(ctx, req.move)

		case cm := <-s.computerMoves:
			s.handleComputerMove(ctx, cm)
		}
	}
}

func (s *Session) handleStart(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.Start", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("game.type", s.opts.GameType.String()),
		attribute.String("difficulty", s.opts.Difficulty.String()),
	))
	defer span.End()

	s.mu.Lock()
	if s.state.Phase != Idle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = GameState{Phase: Ongoing}
	pending := []events.Event{s.stateChangedLocked(ctx)}
	pending = append(pending, s.nextActorLocked(ctx)...)
	first := s.current
	s.mu.Unlock()

	slog.InfoContext(ctx, "Game started", "session.id", s.id, "game.type", s.opts.GameType.String(), "player", first.String())
	s.publish(ctx, pending)
	return nil
}

func (s *Session) handleHumanMove(ctx context.Context, m game.Move) error {
	ctx, span := tracer.Start(ctx, "session.SubmitMove", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("move.row", m.Row),
		attribute.Int("move.col", m.Col),
	))
	defer span.End()

	s.mu.Lock()
	switch {
	case s.state.Phase != Ongoing:
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", game.ErrInvalidMove, ErrNotOngoing)
	case !s.interaction:
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", game.ErrInvalidMove, ErrInteractionDisabled)
	case !s.board.IsEmptyCell(m):
		s.mu.Unlock()
		return fmt.Errorf("%w: cell %s already occupied", game.ErrInvalidMove, m)
	}
	pending := s.applyLocked(ctx, m, "human")
	s.mu.Unlock()

	s.publish(ctx, pending)
	return nil
}

func (s *Session) handleComputerMove(ctx context.Context, cm computerMove) {
	ctx, span := tracer.Start(ctx, "session.ComputerMove", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("player", cm.player.String()),
		attribute.Int("move.row", cm.move.Row),
		attribute.Int("move.col", cm.move.Col),
	))
	defer span.End()

	s.mu.Lock()
	if s.state.Phase != Ongoing || s.moveCount != cm.turn || s.current != cm.player {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Discarding stale computer move", "session.id", s.id, "turn", cm.turn)
		return
	}
	if !s.board.IsEmptyCell(cm.move) {
		s.mu.Unlock()
		err := fmt.Errorf("%w: computer chose %s", game.ErrInvalidMove, cm.move)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Illegal computer move")
		slog.ErrorContext(ctx, "Move calculator broke its contract", "session.id", s.id, "error", err)
		panic(err)
	}
	pending := s.applyLocked(ctx, cm.move, "computer")
	s.mu.Unlock()

	s.publish(ctx, pending)
}

// applyLocked places the current player's mark on a validated empty cell and
// advances the game.
func (s *Session) applyLocked(ctx context.Context, m game.Move, source string) []events.Event {
	mover := s.current
	s.board[m.Row][m.Col] = mover.Mark()
	s.moveCount++
	if s.moveCounter != nil {
		s.moveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}

	pending := []events.Event{s.eventLocked(ctx, events.MoveApplied, events.MoveAppliedPayload{
		Player:    mover.String(),
		Mark:      string(mover.Mark()),
		Row:       m.Row,
		Col:       m.Col,
		MoveCount: s.moveCount,
	})}
	slog.DebugContext(ctx, "Move applied", "session.id", s.id, "player", mover.String(), "row", m.Row, "col", m.Col)

	switch {
	case s.board.HasWin(mover.Mark()):
		s.finishLocked(ctx, GameState{Phase: Won, Winner: mover})
		pending = append(pending, s.stateChangedLocked(ctx))
	case s.moveCount >= game.Size:
		s.finishLocked(ctx, GameState{Phase: Draw})
		pending = append(pending, s.stateChangedLocked(ctx))
	default:
		s.current = mover.Opponent()
		pending = append(pending, s.eventLocked(ctx, events.PlayerSwitched, events.PlayerSwitchedPayload{
			Player: s.current.String(),
		}))
		pending = append(pending, s.nextActorLocked(ctx)...)
	}
	return pending
}

func (s *Session) finishLocked(ctx context.Context, state GameState) {
	s.state = state
	s.interaction = false
	if s.finishedCounter != nil {
		s.finishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", state.Phase.String())))
	}
	slog.InfoContext(ctx, "Game finished", "session.id", s.id, "state", state.String(), "moves", s.moveCount)
}

// nextActorLocked hands the turn to the current player, scheduling a computer
// move when the current player is not human.
func (s *Session) nextActorLocked(ctx context.Context) []events.Event {
	human := s.opts.GameType == game.HumanVsHuman ||
		(s.current == player.Home && s.opts.GameType == game.HumanVsComputer)
	s.interaction = human

	pending := []events.Event{s.eventLocked(ctx, events.NextPlay, events.NextPlayPayload{
		Player:             s.current.String(),
		PlayerName:         s.current.Name(),
		InteractionEnabled: human,
	})}
	if human {
		return pending
	}

	pending = append(pending, s.eventLocked(ctx, events.ComputerThinking, events.ComputerThinkingPayload{
		Player:     s.current.String(),
		Difficulty: s.opts.Difficulty.String(),
	}))
	s.wg.Add(1)
	go s.playComputerTurn(ctx, s.current, s.board, s.moveCount)
	return pending
}

// playComputerTurn waits out the computer delay, asks the calculator for a move
// and feeds it back into the run loop tagged with the turn it was computed for.
func (s *Session) playComputerTurn(ctx context.Context, p player.Player, board game.Board, turn int) {
	defer s.wg.Done()

	if s.opts.ComputerDelay > 0 {
		timer := time.NewTimer(s.opts.ComputerDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	move, err := s.calculator.SelectMove(ctx, p, s.opts.Difficulty, board)
	if err != nil {
		slog.ErrorContext(ctx, "Move calculator failed on a computer turn", "session.id", s.id, "player", p.String(), "turn", turn, "error", err)
		panic(fmt.Errorf("session %s: computer turn %d: %w", s.id, turn, err))
	}

	select {
	case s.computerMoves <- computerMove{player: p, move: move, turn: turn}:
	case <-ctx.Done():
	}
}

func (s *Session) stateChangedLocked(ctx context.Context) events.Event {
	payload := events.GameStateChangedPayload{State: s.state.Phase.String()}
	if s.state.Phase == Won {
		payload.Winner = s.state.Winner.String()
		payload.WinnerName = s.state.Winner.Name()
	}
	return s.eventLocked(ctx, events.GameStateChanged, payload)
}

func (s *Session) eventLocked(ctx context.Context, t events.Type, payload any) events.Event {
	s.seq++
	ev, err := events.New(t, s.id, s.seq, payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build event", "session.id", s.id, "event", t, "error", err)
		return events.Event{Type: t, SessionID: s.id, Seq: s.seq}
	}
	return ev
}

// publish hands events to subscribers first, then to the registered observers.
func (s *Session) publish(ctx context.Context, pending []events.Event) {
	for _, ev := range pending {
		s.broker.Notify(ctx, ev)
		for _, o := range s.observers {
			o.Notify(ctx, ev)
		}
	}
}
