// Package choices holds the pending-decision broker and the negotiation
// coordinator. A pending choice is first-class state: at most one exists at
// a time and its presence blocks turn advancement.
package choices

import (
	"github.com/google/uuid"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/movement"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Broker manages the single pending choice slot in game state.
type Broker struct {
	store    *state.Store
	resolver *movement.Resolver
	logger   *zap.Logger
}

// NewBroker creates a choice broker.
func NewBroker(store *state.Store, resolver *movement.Resolver, logger *zap.Logger) *Broker {
	return &Broker{store: store, resolver: resolver, logger: logger}
}

// Pending returns a copy of the pending choice, or nil.
func (b *Broker) Pending() *state.Choice {
	return b.store.State().PendingChoice
}

// CreateChoice records a new pending choice. Creating one while another is
// pending is rejected.
func (b *Broker) CreateChoice(playerID string, choiceType state.ChoiceType, options []string, reason string) (*state.Choice, error) {
	if len(options) == 0 {
		return nil, errs.Validationf("a choice needs at least one option")
	}
	gs := b.store.State()
	if gs.PendingChoice != nil {
		return nil, errs.Conflictf("a choice is already pending for player %s", gs.PendingChoice.PlayerID)
	}
	if gs.PlayerByID(playerID) == nil {
		return nil, &errs.NotFoundError{Kind: "player", ID: playerID}
	}

	choice := &state.Choice{
		ID:       uuid.NewString(),
		Type:     choiceType,
		PlayerID: playerID,
		Options:  append([]string(nil), options...),
		Reason:   reason,
	}
	b.store.UpdateGame(func(next *state.GameState) {
		next.PendingChoice = choice.Clone()
		next.TurnPhase = state.TurnPhaseChoice
	})

	if b.logger != nil {
		b.logger.Debug("created choice",
			zap.String("player_id", playerID),
			zap.String("type", string(choiceType)),
			zap.Strings("options", options),
		)
	}
	return choice, nil
}

// ResolveChoice validates the selection against the offered options, clears
// the pending choice, and for movement choices commits the move.
func (b *Broker) ResolveChoice(playerID, selection string) error {
	gs := b.store.State()
	choice := gs.PendingChoice
	if choice == nil {
		return errs.Conflictf("no choice is pending")
	}
	if choice.PlayerID != playerID {
		return errs.Validationf("the pending choice belongs to player %s", choice.PlayerID)
	}
	valid := false
	for _, opt := range choice.Options {
		if opt == selection {
			valid = true
			break
		}
	}
	if !valid {
		return errs.Validationf("%s is not among the offered options", selection)
	}

	if choice.Type == state.ChoiceMovement {
		if err := b.resolver.MovePlayer(playerID, selection); err != nil {
			return err
		}
	}
	b.store.UpdateGame(func(next *state.GameState) {
		next.PendingChoice = nil
		if next.TurnPhase == state.TurnPhaseChoice {
			next.TurnPhase = state.TurnPhaseActions
		}
		next.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "choice_resolved",
			Description: "Chose " + selection,
			IsCommitted: true,
		})
	})
	return nil
}

// BlocksAction reports whether the pending choice conflicts with the named
// action. Movement choices only block movement; they must not disable
// unrelated manual actions or dice rolls.
func (b *Broker) BlocksAction(action string) bool {
	choice := b.store.State().PendingChoice
	if choice == nil {
		return false
	}
	switch choice.Type {
	case state.ChoiceMovement:
		return action == "move" || action == "end_turn"
	default:
		return action != "resolve_choice"
	}
}
