package events

import (
	"encoding/json"
	"fmt"
)

// Type names a session transition.
type Type string

// Event types, one per transition of a session.
const (
	GameStateChanged Type = "game_state_changed"
	NextPlay         Type = "next_play"
	ComputerThinking Type = "computer_thinking"
	MoveApplied      Type = "move_applied"
	PlayerSwitched   Type = "player_switched"
)

// SessionChannel is the Pub/Sub channel of one session's events.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("channel:session:%s", sessionID)
}

// Event is a single transition notification.
type Event struct {
	Type      Type            `json:"event"`
	SessionID string          `json:"session_id"`
	Seq       int             `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
}

// GameStateChangedPayload is the payload for the "game_state_changed" event.
// Winner is set only when State is "won".
type GameStateChangedPayload struct {
	State      string `json:"state"`
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winner_name,omitempty"`
}

// NextPlayPayload is the payload for the "next_play" event.
type NextPlayPayload struct {
	Player             string `json:"player"`
	PlayerName         string `json:"player_name"`
	InteractionEnabled bool   `json:"interaction_enabled"`
}

// ComputerThinkingPayload is the payload for the "computer_thinking" event.
type ComputerThinkingPayload struct {
	Player     string `json:"player"`
	Difficulty string `json:"difficulty"`
}

// MoveAppliedPayload is the payload for the "move_applied" event.
type MoveAppliedPayload struct {
	Player    string `json:"player"`
	Mark      string `json:"mark"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	MoveCount int    `json:"move_count"`
}

// PlayerSwitchedPayload is the payload for the "player_switched" event.
type PlayerSwitchedPayload struct {
	Player string `json:"player"`
}

// New builds an event with a JSON encoded payload.
func New(t Type, sessionID string, seq int, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Event{Type: t, SessionID: sessionID, Seq: seq, Payload: raw}, nil
}

// Decode unmarshals the payload of ev into T.
func Decode[T any](ev Event) (T, error) {
	var payload T
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %w", ev.Type, err)
	}
	return payload, nil
}
