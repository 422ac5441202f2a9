package session

import (
	"ctchen222/tictactoe-engine/internal/game"
	"ctchen222/tictactoe-engine/internal/player"
	"errors"
)

var (
	ErrNotOngoing          = errors.New("game is not ongoing")
	ErrInteractionDisabled = errors.New("interaction is disabled")
	ErrAlreadyStarted      = errors.New("session already started")
	ErrClosed              = errors.New("session closed")
)

// Phase is the lifecycle phase of a game.
type Phase int

const (
	Idle Phase = iota
	Ongoing
	Won
	Draw
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Ongoing:
		return "ongoing"
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// GameState is the phase of a game and, when Won, its winner.
type GameState struct {
	Phase  Phase
	Winner player.Player
}

// IsTerminal reports whether no further move can be applied.
func (s GameState) IsTerminal() bool {
	return s.Phase == Won || s.Phase == Draw
}

func (s GameState) String() string {
	if s.Phase == Won {
		return s.Winner.Name() + " wins"
	}
	return s.Phase.String()
}

// Snapshot is a consistent copy of a session's observable state.
type Snapshot struct {
	ID                 string
	GameType           game.GameType
	Difficulty         game.Difficulty
	State              GameState
	CurrentPlayer      player.Player
	MoveCount          int
	Board              game.Board
	InteractionEnabled bool
}
