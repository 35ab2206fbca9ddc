package state

import (
	"encoding/json"
	"fmt"
)

// ToJSON serializes the full game state, including decks, discard piles and
// snapshots, for session resume. Times encode as RFC 3339 strings and card
// ids as plain strings, so the state round-trips without loss.
func (gs *GameState) ToJSON() ([]byte, error) {
	out, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize game state: %w", err)
	}
	return out, nil
}

// FromJSON deserializes a game state previously produced by ToJSON.
func FromJSON(raw []byte) (*GameState, error) {
	var gs GameState
	if err := json.Unmarshal(raw, &gs); err != nil {
		return nil, fmt.Errorf("failed to deserialize game state: %w", err)
	}
	return &gs, nil
}
