// Package movement resolves legal destinations and committed moves from the
// per-(space, visit-type) movement tables.
package movement

import (
	"fmt"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Resolver computes legal moves and applies committed moves.
type Resolver struct {
	store  *state.Store
	data   data.Service
	logger *zap.Logger
}

// NewResolver creates a movement resolver.
func NewResolver(store *state.Store, dataSvc data.Service, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, data: dataSvc, logger: logger}
}

// MovementType returns the movement mode of the player's current
// (space, visit-type) row.
func (r *Resolver) MovementType(playerID string) (data.MovementType, error) {
	p, err := r.store.Player(playerID)
	if err != nil {
		return "", err
	}
	row, err := r.data.Movement(p.CurrentSpace, p.CurrentVisit)
	if err != nil {
		return "", err
	}
	return row.MovementType, nil
}

// ValidMoves returns the deduplicated destination set for the player's
// current (space, visit-type). For dice movement with a roll already made,
// the set is the single destination for that face; without a roll it is the
// union over all faces. Terminal spaces yield an empty set.
func (r *Resolver) ValidMoves(playerID string) ([]string, error) {
	p, err := r.store.Player(playerID)
	if err != nil {
		return nil, err
	}
	return r.validMovesFor(p)
}

func (r *Resolver) validMovesFor(p *state.Player) ([]string, error) {
	row, err := r.data.Movement(p.CurrentSpace, p.CurrentVisit)
	if err != nil {
		return nil, err
	}
	switch row.MovementType {
	case data.MovementNone:
		return nil, nil
	case data.MovementFixed, data.MovementChoice:
		return dedup(row.Destinations), nil
	case data.MovementDice:
		outcome, ok := r.data.DiceOutcome(p.CurrentSpace, p.CurrentVisit)
		if !ok {
			return nil, errs.Integrityf("space %s uses dice movement but has no dice outcome row", p.CurrentSpace)
		}
		if p.LastDiceRoll >= 1 && p.LastDiceRoll <= 6 {
			dest := outcome.Destinations[p.LastDiceRoll-1]
			if dest == "" {
				return nil, errs.Integrityf("no destination for roll %d on space %s", p.LastDiceRoll, p.CurrentSpace)
			}
			return []string{dest}, nil
		}
		return dedup(outcome.Destinations[:]), nil
	default:
		return nil, errs.Integrityf("unknown movement type %q for space %s", row.MovementType, p.CurrentSpace)
	}
}

// MovePlayer commits a move to destination, rejecting destinations outside
// the legal set. On success the player's current space is updated, the visit
// is recorded and the visit classification recomputed: First if the player
// has never visited the destination, Subsequent otherwise.
func (r *Resolver) MovePlayer(playerID, destination string) error {
	p, err := r.store.Player(playerID)
	if err != nil {
		return err
	}
	valid, err := r.validMovesFor(p)
	if err != nil {
		return err
	}
	if !contains(valid, destination) {
		return &errs.InvalidMoveError{PlayerID: playerID, Destination: destination}
	}

	r.store.UpdateGame(func(gs *state.GameState) {
		pl := gs.PlayerByID(playerID)
		if pl == nil {
			return
		}
		from := pl.CurrentSpace
		if pl.HasVisited(destination) {
			pl.CurrentVisit = data.VisitSubsequent
		} else {
			pl.CurrentVisit = data.VisitFirst
			pl.VisitedSpaces = append(pl.VisitedSpaces, destination)
		}
		pl.CurrentSpace = destination
		pl.LastDiceRoll = 0
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "movement",
			Description: fmt.Sprintf("Moved from %s to %s", from, destination),
			IsCommitted: true,
		})
	})

	if r.logger != nil {
		r.logger.Info("player moved",
			zap.String("player_id", playerID),
			zap.String("destination", destination),
		)
	}
	return nil
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
