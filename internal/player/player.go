package player

import (
	"ctchen222/tictactoe-engine/internal/game"
	"math/rand/v2"
)

// Player identifies one of the two sides of a game.
type Player int

const (
	// Home plays X and is player A.
	Home Player = iota
	// Visitor plays O and is player B.
	Visitor
)

// All lists both players in seating order.
var All = []Player{Home, Visitor}

// Name is the display name of the player.
func (p Player) Name() string {
	if p == Visitor {
		return "Player 2"
	}
	return "Player 1"
}

// Mark is the symbol the player places on the board.
func (p Player) Mark() game.PlayerMark {
	if p == Visitor {
		return game.PlayerO
	}
	return game.PlayerX
}

// OpponentMark is the symbol of the other player.
func (p Player) OpponentMark() game.PlayerMark {
	return p.Opponent().Mark()
}

// Opponent returns the other player.
func (p Player) Opponent() Player {
	if p == Visitor {
		return Home
	}
	return Visitor
}

// DisplayColor is a cosmetic hint for views.
func (p Player) DisplayColor() string {
	if p == Visitor {
		return "orange"
	}
	return "blue"
}

func (p Player) String() string {
	if p == Visitor {
		return "visitor"
	}
	return "home"
}

// Random picks one of the two players uniformly.
func Random() Player {
	return All[rand.IntN(len(All))]
}
