package bot

import (
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"testing"
)

const (
	X = game.PlayerX
	O = game.PlayerO
	E = game.None
)

func TestFindBlockingMove(t *testing.T) {
	tests := []struct {
		name      string
		board     game.Board
		mark      game.PlayerMark
		want      game.Move
		wantFound bool
	}{
		{
			name:      "No threat on an empty board",
			board:     game.Board{},
			mark:      X,
			wantFound: false,
		},
		{
			name: "Row threat",
			board: game.Board{
				{X, X, E},
				{O, O, E},
				{E, E, E},
			},
			mark:      X,
			want:      game.Move{Row: 0, Col: 2},
			wantFound: true,
		},
		{
			name: "Column threat",
			board: game.Board{
				{X, O, E},
				{X, O, E},
				{E, E, E},
			},
			mark:      O,
			want:      game.Move{Row: 2, Col: 1},
			wantFound: true,
		},
		{
			name: "Anti-diagonal threat",
			board: game.Board{
				{E, E, O},
				{E, O, E},
				{E, E, E},
			},
			mark:      O,
			want:      game.Move{Row: 2, Col: 0},
			wantFound: true,
		},
		{
			name: "Two threats, first in row-major order wins",
			board: game.Board{
				{E, O, O},
				{E, X, E},
				{O, X, X},
			},
			mark:      O,
			want:      game.Move{Row: 0, Col: 0},
			wantFound: true,
		},
		{
			name: "Full board",
			board: game.Board{
				{X, O, X},
				{O, X, O},
				{O, X, O},
			},
			mark:      X,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := findBlockingMove(tt.board, tt.mark)
			if found != tt.wantFound || (found && got != tt.want) {
				t.Errorf("findBlockingMove() got (%v, %v), want (%v, %v)", got, found, tt.want, tt.wantFound)
			}
		})
	}
}

func TestEasyMove(t *testing.T) {
	t.Run("Only one spot left", func(t *testing.T) {
		board := game.Board{
			{X, O, X},
			{O, X, O},
			{X, E, O},
		}
		move, found := easyMove(board)
		if !found || move != (game.Move{Row: 2, Col: 1}) {
			t.Errorf("easyMove should pick the only available spot (2,1), got %v", move)
		}
	})

	t.Run("Roughly uniform over empty cells", func(t *testing.T) {
		board := game.Board{
			{X, E, O},
			{E, X, O},
			{E, O, E},
		}
		const runs = 8000
		empty := board.EmptyCells()
		counts := make(map[game.Move]int, len(empty))
		for i := 0; i < runs; i++ {
			move, found := easyMove(board)
			if !found || !board.IsEmptyCell(move) {
				t.Fatalf("easyMove returned an invalid move %v", move)
			}
			counts[move]++
		}

		// Expected 2000 per cell, standard deviation is about 39.
		expected := runs / len(empty)
		for _, m := range empty {
			if c := counts[m]; c < expected*8/10 || c > expected*12/10 {
				t.Errorf("cell %v picked %d times, want about %d", m, c, expected)
			}
		}
	})

	t.Run("Full board", func(t *testing.T) {
		board := game.Board{
			{X, O, X},
			{O, X, O},
			{X, O, X},
		}
		if _, found := easyMove(board); found {
			t.Errorf("easyMove on a full board should find nothing")
		}
	})
}

func TestMediumMove(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		bot   player.Player
		want  game.Move
	}{
		{
			name: "Bot must block opponent",
			board: game.Board{
				{O, O, E},
				{X, E, E},
				{E, E, E},
			},
			bot:  player.Home,
			want: game.Move{Row: 0, Col: 2},
		},
		{
			name: "Visitor blocks a column",
			board: game.Board{
				{X, O, E},
				{X, E, E},
				{E, O, E},
			},
			bot:  player.Visitor,
			want: game.Move{Row: 2, Col: 0},
		},
		{
			name: "Blocks instead of taking its own win",
			board: game.Board{
				{X, X, E},
				{O, O, E},
				{X, E, E},
			},
			bot:  player.Visitor,
			want: game.Move{Row: 0, Col: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := mediumMove(tt.board, tt.bot)
			if !found || got != tt.want {
				t.Errorf("mediumMove() got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("No threat, random empty cell", func(t *testing.T) {
		board := game.Board{
			{X, E, E},
			{E, O, E},
			{E, E, E},
		}
		for i := 0; i < 50; i++ {
			got, found := mediumMove(board, player.Home)
			if !found || !board.IsEmptyCell(got) {
				t.Fatalf("mediumMove returned a non-empty spot %v", got)
			}
		}
	})
}

func TestHardMove(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		bot   player.Player
		want  game.Move
	}{
		{
			name: "Bot can win",
			board: game.Board{
				{X, X, E},
				{O, O, E},
				{E, E, E},
			},
			bot:  player.Home,
			want: game.Move{Row: 0, Col: 2},
		},
		{
			name: "Prefers its own win over a block",
			board: game.Board{
				{X, X, E},
				{O, O, E},
				{X, E, E},
			},
			bot:  player.Visitor,
			want: game.Move{Row: 1, Col: 2},
		},
		{
			name: "Bot must block opponent",
			board: game.Board{
				{O, O, E},
				{X, E, E},
				{E, E, E},
			},
			bot:  player.Home,
			want: game.Move{Row: 0, Col: 2},
		},
		{
			name: "Answers a corner with the center",
			board: game.Board{
				{X, E, E},
				{E, E, E},
				{E, E, E},
			},
			bot:  player.Visitor,
			want: game.Move{Row: 1, Col: 1},
		},
		{
			name:  "Empty board ties break to the first cell",
			board: game.Board{},
			bot:   player.Home,
			want:  game.Move{Row: 0, Col: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := hardMove(tt.board, tt.bot)
			if !found || got != tt.want {
				t.Errorf("hardMove() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinimaxScores(t *testing.T) {
	won := game.Board{
		{X, X, X},
		{O, O, E},
		{E, E, E},
	}
	if got := minimax(player.Home, won, 2, false); got != winScore-2 {
		t.Errorf("win at depth 2 scored %d, want %d", got, winScore-2)
	}
	if got := minimax(player.Visitor, won, 2, true); got != 2-winScore {
		t.Errorf("loss at depth 2 scored %d, want %d", got, 2-winScore)
	}

	draw := game.Board{
		{X, O, X},
		{X, O, O},
		{O, X, X},
	}
	if got := minimax(player.Home, draw, 5, true); got != drawScore {
		t.Errorf("full board scored %d, want %d", got, drawScore)
	}
}

// TestHardNeverLoses lets the hard bot face every possible opponent line, both as
// first and as second player.
func TestHardNeverLoses(t *testing.T) {
	var explore func(t *testing.T, board game.Board, bot, turn player.Player)
	explore = func(t *testing.T, board game.Board, bot, turn player.Player) {
		if board.HasWin(bot.OpponentMark()) {
			t.Fatalf("hard bot (%s) lost:\n%s", bot, board)
		}
		if board.HasWin(bot.Mark()) || board.IsFull() {
			return
		}

		if turn == bot {
			move, found := hardMove(board, bot)
			if !found || !board.IsEmptyCell(move) {
				t.Fatalf("hardMove returned invalid move %v on\n%s", move, board)
			}
			next := board
			next[move.Row][move.Col] = bot.Mark()
			explore(t, next, bot, turn.Opponent())
			return
		}

		for _, m := range board.EmptyCells() {
			next := board
			next[m.Row][m.Col] = turn.Mark()
			explore(t, next, bot, turn.Opponent())
		}
	}

	t.Run("Bot moves first", func(t *testing.T) {
		explore(t, game.Board{}, player.Home, player.Home)
	})
	t.Run("Bot moves second", func(t *testing.T) {
		explore(t, game.Board{}, player.Visitor, player.Home)
	})
}

func TestHardSelfPlayDraws(t *testing.T) {
	var board game.Board
	turn := player.Home
	for !board.IsFull() {
		move, found := hardMove(board, turn)
		if !found {
			t.Fatalf("hardMove found no move on\n%s", board)
		}
		board[move.Row][move.Col] = turn.Mark()
		if board.HasWin(turn.Mark()) {
			t.Fatalf("%s won a hard self-play game:\n%s", turn, board)
		}
		turn = turn.Opponent()
	}
}
