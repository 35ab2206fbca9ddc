package state

import (
	"time"

	"github.com/google/uuid"
)

// LogEntry describes a log append; missing fields are filled from the state
// at append time (id, timestamp, player name, turn numbers).
type LogEntry struct {
	PlayerID             string
	Type                 string
	Description          string
	Visibility           string
	ExplorationSessionID string
	IsCommitted          bool
}

// AppendLogEntry builds a full ActionLogEntry from e and appends it to the
// state's log. Used inside Store update closures so a mutation and its log
// entry commit as one state transition.
func (gs *GameState) AppendLogEntry(e LogEntry) ActionLogEntry {
	entry := ActionLogEntry{
		ID:                   uuid.NewString(),
		Timestamp:            time.Now(),
		PlayerID:             e.PlayerID,
		GlobalTurn:           gs.GlobalTurn,
		Type:                 e.Type,
		Description:          e.Description,
		Visibility:           e.Visibility,
		ExplorationSessionID: e.ExplorationSessionID,
		IsCommitted:          e.IsCommitted,
	}
	if entry.Visibility == "" {
		entry.Visibility = VisibilityPlayer
	}
	// While an exploration session is open, entries are provisional: they
	// join the session and stay uncommitted until the turn advances.
	if entry.ExplorationSessionID == "" && gs.CurrentExplorationID != "" {
		entry.ExplorationSessionID = gs.CurrentExplorationID
		entry.IsCommitted = false
	}
	if p := gs.PlayerByID(e.PlayerID); p != nil {
		entry.PlayerName = p.Name
		entry.PlayerTurn = p.TurnCount
	}
	gs.ActionLog = append(gs.ActionLog, entry)
	return entry
}
