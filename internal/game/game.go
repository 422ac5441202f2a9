package game

import (
	"errors"
	"fmt"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	BorderMin = 0
	BorderMax = 2

	// Size is the number of cells on the board.
	Size = (BorderMax + 1) * (BorderMax + 1)
)

var (
	// ErrInvalidMove is returned for moves that target an occupied or out-of-range cell,
	// or that are submitted when the session does not accept them.
	ErrInvalidMove = errors.New("invalid move")
	// ErrNoLegalMove is returned when a move is requested on a full board.
	ErrNoLegalMove = errors.New("no legal move")
)

// Move addresses a single cell by row and column.
type Move struct {
	Row int `json:"row" validate:"min=0,max=2"`
	Col int `json:"col" validate:"min=0,max=2"`
}

func (m Move) String() string {
	return fmt.Sprintf("(%d, %d)", m.Row, m.Col)
}

func (m Move) inRange() bool {
	return m.Row >= BorderMin && m.Row <= BorderMax && m.Col >= BorderMin && m.Col <= BorderMax
}

// Board is the 3x3 grid, addressed [row][col].
type Board [3][3]PlayerMark

// IsEmptyCell reports whether the cell at m holds no mark.
func (b Board) IsEmptyCell(m Move) bool {
	return m.inRange() && b[m.Row][m.Col] == None
}

// EmptyCells lists the empty positions in row-major order.
func (b Board) EmptyCells() []Move {
	cells := make([]Move, 0, Size)
	for r := range [3]int{} {
		for c := range [3]int{} {
			if b[r][c] == None {
				cells = append(cells, Move{Row: r, Col: c})
			}
		}
	}
	return cells
}

// HasWin reports whether mark fills any row, column or diagonal.
func (b Board) HasWin(mark PlayerMark) bool {
	if mark == None {
		return false
	}

	// Check rows and columns
	for i := range [3]int{} {
		if b[i][0] == mark && b[i][1] == mark && b[i][2] == mark {
			return true
		}
		if b[0][i] == mark && b[1][i] == mark && b[2][i] == mark {
			return true
		}
	}

	// Check diagonals
	if b[0][0] == mark && b[1][1] == mark && b[2][2] == mark {
		return true
	}
	return b[0][2] == mark && b[1][1] == mark && b[2][0] == mark
}

// IsFull reports whether no empty cell is left.
func (b Board) IsFull() bool {
	return b.Count() == Size
}

// Count returns the number of marked cells.
func (b Board) Count() int {
	n := 0
	for r := range [3]int{} {
		for c := range [3]int{} {
			if b[r][c] != None {
				n++
			}
		}
	}
	return n
}

// Apply returns a copy of the board with mark placed at m.
func (b Board) Apply(m Move, mark PlayerMark) (Board, error) {
	if !m.inRange() {
		return b, fmt.Errorf("%w: %s is out of range", ErrInvalidMove, m)
	}
	if b[m.Row][m.Col] != None {
		return b, fmt.Errorf("%w: cell %s already occupied", ErrInvalidMove, m)
	}

	b[m.Row][m.Col] = mark
	return b, nil
}
