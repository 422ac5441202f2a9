package bot

import (
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// Score shaping for the minimax search.
const (
	winScore  = 10
	drawScore = 0
)

// candidate is a scored top-level move of the hard search.
type candidate struct {
	move  game.Move
	score int
}

// easyMove picks a uniformly random empty cell.
func easyMove(board game.Board) (game.Move, bool) {
	availableMoves := board.EmptyCells()
	if len(availableMoves) == 0 {
		return game.Move{}, false
	}
	return availableMoves[rand.IntN(len(availableMoves))], true
}

// mediumMove blocks the first cell where the opponent's mark would complete a line,
// otherwise moves randomly.
//
// The check places the opponent's mark only, so a cell that completes a line for
// the bot itself is never looked for on its own.
func mediumMove(board game.Board, p player.Player) (game.Move, bool) {
	if move, found := findBlockingMove(board, p.OpponentMark()); found {
		return move, true
	}
	return easyMove(board)
}

// findBlockingMove returns the first empty cell, in row-major order, where mark completes a line.
func findBlockingMove(board game.Board, mark game.PlayerMark) (game.Move, bool) {
	for _, m := range board.EmptyCells() {
		tempBoard := board
		tempBoard[m.Row][m.Col] = mark
		if tempBoard.HasWin(mark) {
			return m, true
		}
	}
	return game.Move{}, false
}

// hardMove scores every empty cell with a full minimax search, one goroutine per
// candidate, and keeps the best one. Ties go to the earliest cell in row-major order.
func hardMove(board game.Board, p player.Player) (game.Move, bool) {
	moves := board.EmptyCells()
	results := make([]candidate, len(moves))

	var g errgroup.Group
	for i, m := range moves {
		g.Go(func() error {
			branch := board
			branch[m.Row][m.Col] = p.Mark()
			results[i] = candidate{move: m, score: minimax(p, branch, 0, false)}
			return nil
		})
	}
	// Branches never fail; Wait is the join point.
	_ = g.Wait()

	bestScore := math.MinInt
	var best *candidate
	for i := range results {
		if results[i].score > bestScore {
			bestScore = results[i].score
			best = &results[i]
		}
	}
	if best == nil {
		return mediumMove(board, p)
	}
	return best.move, true
}

// minimax evaluates board from p's point of view. depth counts the plies placed since
// the top-level candidate and only shapes the score; the search always runs to a
// terminal board.
func minimax(p player.Player, board game.Board, depth int, isMaximizing bool) int {
	if board.HasWin(p.Mark()) {
		return winScore - depth
	}
	if board.HasWin(p.OpponentMark()) {
		return depth - winScore
	}
	if board.IsFull() {
		return drawScore
	}

	if isMaximizing {
		maxEval := math.MinInt
		for _, m := range board.EmptyCells() {
			next := board
			next[m.Row][m.Col] = p.Mark()
			maxEval = max(maxEval, minimax(p, next, depth+1, false))
		}
		return maxEval
	}

	minEval := math.MaxInt
	for _, m := range board.EmptyCells() {
		next := board
		next[m.Row][m.Col] = p.OpponentMark()
		minEval = min(minEval, minimax(p, next, depth+1, true))
	}
	return minEval
}
