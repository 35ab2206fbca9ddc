// Package resources implements the resource ledger: the only path by which
// any component changes a player's money and time-spent counters.
package resources

import (
	"fmt"

	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Ledger performs atomic, validated resource mutations against the store.
type Ledger struct {
	store  *state.Store
	logger *zap.Logger
}

// NewLedger creates a ledger bound to the given store.
func NewLedger(store *state.Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Change describes a combined resource mutation. Money and TimeSpent are
// signed deltas; nil means leave the field alone.
type Change struct {
	Money     *int
	TimeSpent *int
	Source    string
	Reason    string
}

// ValidationResult is the outcome of a pre-flight resource check.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Delta returns a pointer to v, for building Change literals.
func Delta(v int) *int { return &v }

// CanAfford reports whether the player's money covers amount.
func (l *Ledger) CanAfford(playerID string, amount int) bool {
	p, err := l.store.Player(playerID)
	if err != nil {
		return false
	}
	return p.Money >= amount
}

// AddMoney credits money to a player.
func (l *Ledger) AddMoney(playerID string, amount int, source, reason string) error {
	return l.apply(playerID, Change{Money: Delta(amount), Source: source, Reason: reason})
}

// SpendMoney debits money from a player, clamping at zero.
func (l *Ledger) SpendMoney(playerID string, amount int, source, reason string) error {
	return l.apply(playerID, Change{Money: Delta(-amount), Source: source, Reason: reason})
}

// AddTime adds days to a player's time-spent counter.
func (l *Ledger) AddTime(playerID string, amount int, source, reason string) error {
	return l.apply(playerID, Change{TimeSpent: Delta(amount), Source: source, Reason: reason})
}

// SpendTime removes days from a player's time-spent counter, clamping at zero.
func (l *Ledger) SpendTime(playerID string, amount int, source, reason string) error {
	return l.apply(playerID, Change{TimeSpent: Delta(-amount), Source: source, Reason: reason})
}

// UpdateResources applies a combined money/time change in one state
// transition, logging it with the caller's source tag and reason.
func (l *Ledger) UpdateResources(playerID string, ch Change) error {
	return l.apply(playerID, ch)
}

// ValidateResourceChange checks a change without mutating, for pre-flight
// use by the effect engine.
func (l *Ledger) ValidateResourceChange(playerID string, ch Change) ValidationResult {
	p, err := l.store.Player(playerID)
	if err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}
	var errors []string
	if ch.Money != nil && p.Money+*ch.Money < 0 {
		errors = append(errors, fmt.Sprintf("player %s cannot afford $%d (has $%d)", playerID, -*ch.Money, p.Money))
	}
	if ch.TimeSpent != nil && p.TimeSpent+*ch.TimeSpent < 0 {
		errors = append(errors, fmt.Sprintf("player %s time-spent would drop below zero", playerID))
	}
	return ValidationResult{Valid: len(errors) == 0, Errors: errors}
}

// apply performs the mutation and its audit log entry as a single state
// transition. Affordability is the caller's concern (checked up front via
// CanAfford); clamping at zero here is a defensive floor, not an error.
func (l *Ledger) apply(playerID string, ch Change) error {
	var applied bool
	l.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil {
			return
		}
		applied = true
		if ch.Money != nil {
			p.Money += *ch.Money
			if p.Money < 0 {
				p.Money = 0
			}
		}
		if ch.TimeSpent != nil {
			p.TimeSpent += *ch.TimeSpent
			if p.TimeSpent < 0 {
				p.TimeSpent = 0
			}
		}
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "resource_change",
			Description: describeChange(ch),
			Visibility:  state.VisibilitySystem,
			IsCommitted: true,
		})
	})
	if !applied {
		return &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	if l.logger != nil {
		l.logger.Debug("applied resource change",
			zap.String("player_id", playerID),
			zap.String("source", ch.Source),
			zap.String("reason", ch.Reason),
		)
	}
	return nil
}

func describeChange(ch Change) string {
	desc := ""
	if ch.Money != nil {
		if *ch.Money >= 0 {
			desc = fmt.Sprintf("+$%d", *ch.Money)
		} else {
			desc = fmt.Sprintf("-$%d", -*ch.Money)
		}
	}
	if ch.TimeSpent != nil {
		if desc != "" {
			desc += ", "
		}
		if *ch.TimeSpent >= 0 {
			desc += fmt.Sprintf("+%d days", *ch.TimeSpent)
		} else {
			desc += fmt.Sprintf("%d days", *ch.TimeSpent)
		}
	}
	if ch.Reason != "" {
		desc += " (" + ch.Reason + ")"
	}
	if ch.Source != "" {
		desc += " [" + ch.Source + "]"
	}
	return desc
}
