package game

import (
	"fmt"
	"strings"
)

// Difficulty is the strength of computer-controlled players in a game.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// GameType decides which players are computer-controlled.
type GameType int

const (
	HumanVsHuman GameType = iota
	HumanVsComputer
	ComputerVsComputer
)

func (t GameType) String() string {
	switch t {
	case HumanVsHuman:
		return "human-vs-human"
	case HumanVsComputer:
		return "human-vs-computer"
	case ComputerVsComputer:
		return "computer-vs-computer"
	default:
		return fmt.Sprintf("gametype(%d)", int(t))
	}
}

// ParseGameType accepts the String form of a GameType.
func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human-vs-human", "pvp":
		return HumanVsHuman, nil
	case "human-vs-computer", "pvc":
		return HumanVsComputer, nil
	case "computer-vs-computer", "cvc":
		return ComputerVsComputer, nil
	}
	return HumanVsHuman, fmt.Errorf("unknown game type %q", s)
}

// String renders the board one row per line, "." for empty cells.
func (b Board) String() string {
	var sb strings.Builder
	for r, row := range b {
		for c, cell := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if cell == None {
				sb.WriteByte('.')
			} else {
				sb.WriteString(string(cell))
			}
		}
		if r < BorderMax {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
