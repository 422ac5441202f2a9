package validator

import (
	"ctchen222/tictactoe-engine/internal/game"
	"testing"
)

func TestStruct(t *testing.T) {
	type options struct {
		GameType   game.GameType   `validate:"gametype"`
		Difficulty game.Difficulty `validate:"difficulty"`
	}

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "Valid move", value: game.Move{Row: 2, Col: 0}},
		{name: "Row out of range", value: game.Move{Row: 3, Col: 0}, wantErr: true},
		{name: "Negative column", value: game.Move{Row: 0, Col: -1}, wantErr: true},
		{name: "Valid enums", value: options{GameType: game.ComputerVsComputer, Difficulty: game.Hard}},
		{name: "Unknown game type", value: options{GameType: game.GameType(3)}, wantErr: true},
		{name: "Unknown difficulty", value: options{Difficulty: game.Difficulty(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
