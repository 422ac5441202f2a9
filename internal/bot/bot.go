package bot

import (
	"context"
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("bot")
	meter  = otel.Meter("bot")
)

// MoveCalculator picks moves for computer-controlled players.
// It satisfies session.MoveCalculator.
type MoveCalculator struct {
	searchDuration metric.Float64Histogram
}

// NewMoveCalculator creates a MoveCalculator reporting to the global meter provider.
func NewMoveCalculator() *MoveCalculator {
	h, err := meter.Float64Histogram("bot.search.duration",
		metric.WithDescription("Time spent selecting a computer move"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		slog.Warn("failed to create bot.search.duration histogram", "error", err)
	}
	return &MoveCalculator{searchDuration: h}
}

// SelectMove determines the next move for p based on the difficulty.
func (c *MoveCalculator) SelectMove(ctx context.Context, p player.Player, difficulty game.Difficulty, board game.Board) (game.Move, error) {
	ctx, span := tracer.Start(ctx, "bot.SelectMove", trace.WithAttributes(
		attribute.String("player", p.String()),
		attribute.String("difficulty", difficulty.String()),
		attribute.Int("board.empty", len(board.EmptyCells())),
	))
	defer span.End()

	start := time.Now()
	move, err := SelectMove(p, difficulty, board)
	if c.searchDuration != nil {
		c.searchDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
			metric.WithAttributes(attribute.String("difficulty", difficulty.String())))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No legal move")
		return move, err
	}

	span.SetAttributes(attribute.Int("move.row", move.Row), attribute.Int("move.col", move.Col))
	slog.DebugContext(ctx, "Bot selected move", "player", p.String(), "difficulty", difficulty.String(), "row", move.Row, "col", move.Col)
	return move, nil
}

// SelectMove dispatches to the strategy of the given difficulty. Unknown difficulties
// play like Hard. A full board yields game.ErrNoLegalMove.
func SelectMove(p player.Player, difficulty game.Difficulty, board game.Board) (game.Move, error) {
	if board.IsFull() {
		return game.Move{}, fmt.Errorf("%w: board is full", game.ErrNoLegalMove)
	}

	var (
		move  game.Move
		found bool
	)
	switch difficulty {
	case game.Easy:
		move, found = easyMove(board)
	case game.Medium:
		move, found = mediumMove(board, p)
	default:
		move, found = hardMove(board, p)
	}

	if !found {
		return game.Move{}, game.ErrNoLegalMove
	}
	return move, nil
}
