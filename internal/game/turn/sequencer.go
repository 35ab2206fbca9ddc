// Package turn implements the turn-sequencing state machine: arrival
// processing, dice rolls, the try-again revert and turn advancement.
package turn

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/cards"
	"github.com/tomaszsb/Code2027-sub004/internal/game/choices"
	"github.com/tomaszsb/Code2027-sub004/internal/game/effects"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/movement"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// tryAgainPenalty is the fallback time cost of a revert when the space's
// effect table carries no time row to derive it from.
const tryAgainPenalty = 1

// Sequencer orchestrates turns. It sits on top of the effect engine and the
// leaf components; nothing below it calls back up.
type Sequencer struct {
	store    *state.Store
	data     data.Service
	ledger   *resources.Ledger
	bank     *cards.Bank
	resolver *movement.Resolver
	broker   *choices.Broker
	effects  *effects.Engine
	logger   *zap.Logger

	// RollFn produces die faces in [1,6]. Tests replace it for determinism.
	RollFn func() int
}

// NewSequencer wires a sequencer over the given components.
func NewSequencer(store *state.Store, dataSvc data.Service, ledger *resources.Ledger, bank *cards.Bank, resolver *movement.Resolver, broker *choices.Broker, engine *effects.Engine, logger *zap.Logger) *Sequencer {
	return &Sequencer{
		store:    store,
		data:     dataSvc,
		ledger:   ledger,
		bank:     bank,
		resolver: resolver,
		broker:   broker,
		effects:  engine,
		logger:   logger,
		RollFn:   func() int { return rand.Intn(6) + 1 },
	}
}

// ArrivalResult reports what happened when a player's arrival on their
// current space was processed.
type ArrivalResult struct {
	SpaceName      string
	VisitType      data.VisitType
	Effects        effects.BatchResult
	PlayerFinished bool
	GameEnded      bool
}

// ProcessArrival runs the space-entry protocol for the player's current
// space: lock player actions, save the revert snapshot exactly once, apply
// every arrival-triggered effect, then unlock. The snapshot must precede
// effect processing, otherwise a revert would restore a state that already
// has the effects applied and try-again would be a no-op.
func (s *Sequencer) ProcessArrival(playerID string) (ArrivalResult, error) {
	p, err := s.store.Player(playerID)
	if err != nil {
		return ArrivalResult{}, err
	}
	res := ArrivalResult{SpaceName: p.CurrentSpace, VisitType: p.CurrentVisit}

	s.store.UpdateGame(func(gs *state.GameState) {
		gs.ActionsLocked = true
		gs.TurnPhase = state.TurnPhaseArrival
		gs.CurrentExplorationID = uuid.NewString()
		if pl := gs.PlayerByID(playerID); pl != nil {
			pl.UsedManual = false
		}
	})

	if !s.store.HasSnapshot(playerID, p.CurrentSpace) {
		if err := s.store.SaveSnapshot(playerID, p.CurrentSpace); err != nil {
			return res, err
		}
	}

	res.Effects = s.effects.ProcessEffects(
		s.effects.ArrivalEffects(p.CurrentSpace, p.CurrentVisit),
		effects.Context{PlayerID: playerID, Source: "arrival"},
	)

	cfg, cfgErr := s.data.SpaceConfig(p.CurrentSpace)
	if cfgErr == nil && cfg.IsEndingSpace {
		res.PlayerFinished = true
		res.GameEnded = s.finishPlayer(playerID, p.CurrentSpace)
	}
	if !res.PlayerFinished {
		if err := s.raiseMovementChoice(playerID); err != nil {
			return res, err
		}
	}

	s.store.UpdateGame(func(gs *state.GameState) {
		gs.ActionsLocked = false
		if gs.PendingChoice != nil {
			gs.TurnPhase = state.TurnPhaseChoice
		} else {
			gs.TurnPhase = state.TurnPhaseActions
		}
	})

	if s.logger != nil {
		s.logger.Info("processed arrival",
			zap.String("player_id", playerID),
			zap.String("space", res.SpaceName),
			zap.String("visit", string(res.VisitType)),
			zap.Int("failed_effects", res.Effects.FailedEffects),
		)
	}
	return res, nil
}

// raiseMovementChoice puts the destination decision of a choice-mode space
// into the pending choice slot, so the turn cannot end until the player has
// picked a branch. Spaces whose destination set collapses to a single entry
// behave as fixed movement and raise nothing. An arrival effect may already
// hold the slot (opponent targeting); the movement choice then waits for the
// player's next arrival on the space.
func (s *Sequencer) raiseMovementChoice(playerID string) error {
	moveType, err := s.resolver.MovementType(playerID)
	if err != nil || moveType != data.MovementChoice {
		return nil
	}
	moves, err := s.resolver.ValidMoves(playerID)
	if err != nil || len(moves) < 2 {
		return err
	}
	p, err := s.store.Player(playerID)
	if err != nil {
		return err
	}
	if _, err := s.broker.CreateChoice(playerID, state.ChoiceMovement, moves,
		fmt.Sprintf("Choose where to go from %s", p.CurrentSpace)); err != nil {
		var conflict *errs.StateConflictError
		if errors.As(err, &conflict) {
			return nil
		}
		return err
	}
	return nil
}

// finishPlayer records the player as finished and reports whether the game
// is over. Reaching an ending space ends the game for everyone; remaining
// players are ranked by the order of arrival recorded so far.
func (s *Sequencer) finishPlayer(playerID, space string) bool {
	var ended bool
	s.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil || p.Finished {
			return
		}
		p.Finished = true
		gs.FinishOrder = append(gs.FinishOrder, playerID)
		gs.GamePhase = state.GamePhaseEnd
		ended = true
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "game_end",
			Description: fmt.Sprintf("Reached %s, the game is over", space),
			IsCommitted: true,
		})
	})
	return ended
}

// RollResult reports a dice roll and everything it triggered.
type RollResult struct {
	Roll       int
	Effects    effects.BatchResult
	ValidMoves []string
}

// RollDice rolls for the player, applies the space's dice effects for the
// rolled face, and returns the movement options the roll opens up. Spaces
// that neither require a roll nor use dice movement reject the attempt, as
// does a repeat roll in the same turn.
func (s *Sequencer) RollDice(playerID string) (RollResult, error) {
	if err := s.checkActionAllowed("roll_dice"); err != nil {
		return RollResult{}, err
	}
	p, err := s.store.Player(playerID)
	if err != nil {
		return RollResult{}, err
	}
	if p.LastDiceRoll != 0 {
		return RollResult{}, errs.Conflictf("player %s already rolled a %d this turn", playerID, p.LastDiceRoll)
	}

	cfg, err := s.data.SpaceConfig(p.CurrentSpace)
	if err != nil {
		return RollResult{}, err
	}
	moveType, err := s.resolver.MovementType(playerID)
	if err != nil {
		return RollResult{}, err
	}
	if !cfg.RequiresDiceRoll && moveType != data.MovementDice {
		return RollResult{}, errs.Validationf("space %s does not call for a dice roll", p.CurrentSpace)
	}

	roll := s.RollFn()
	if roll < 1 || roll > 6 {
		return RollResult{}, errs.Integrityf("die produced %d, outside 1-6", roll)
	}
	if _, err := s.store.UpdatePlayer(playerID, func(pl *state.Player) {
		pl.LastDiceRoll = roll
	}); err != nil {
		return RollResult{}, err
	}
	s.store.AppendLog(state.LogEntry{
		PlayerID:    playerID,
		Type:        "dice_roll",
		Description: fmt.Sprintf("Rolled a %d", roll),
	})

	res := RollResult{Roll: roll}
	res.Effects = s.effects.ProcessEffects(
		s.effects.DiceEffects(p.CurrentSpace, p.CurrentVisit, roll),
		effects.Context{PlayerID: playerID, Source: "dice"},
	)
	if moveType == data.MovementDice {
		if moves, err := s.resolver.ValidMoves(playerID); err == nil {
			res.ValidMoves = moves
		}
	}

	if s.logger != nil {
		s.logger.Info("rolled dice",
			zap.String("player_id", playerID),
			zap.Int("roll", roll),
		)
	}
	return res, nil
}

// TryAgainResult reports a completed try-again revert.
type TryAgainResult struct {
	SpaceName         string
	TimePenalty       int
	ShouldAdvanceTurn bool
}

// TryAgainOnSpace reverts the player to the snapshot taken when they entered
// their current space, at a fixed time cost. It signals that the turn should
// advance rather than advancing it; orchestration stays with the caller.
// The penalty applies on every attempt and the snapshot survives the revert,
// so a further try-again in the same turn remains possible.
func (s *Sequencer) TryAgainOnSpace(playerID string) (TryAgainResult, error) {
	p, err := s.store.Player(playerID)
	if err != nil {
		return TryAgainResult{}, err
	}
	space := p.CurrentSpace

	content, err := s.data.SpaceContent(space, p.CurrentVisit)
	if err != nil || !content.CanNegotiate {
		return TryAgainResult{}, &errs.NotNegotiableError{Space: space}
	}
	if !s.store.HasSnapshot(playerID, space) {
		return TryAgainResult{}, &errs.NoSnapshotError{PlayerID: playerID, Space: space}
	}

	if _, err := s.store.RevertToSnapshot(playerID); err != nil {
		return TryAgainResult{}, err
	}

	// The snapshot was taken mid-arrival, so it carries the action lock;
	// release it. A fresh session id separates the new attempt's log
	// entries from the abandoned ones restored with the snapshot.
	s.store.UpdateGame(func(gs *state.GameState) {
		gs.ActionsLocked = false
		gs.TurnPhase = state.TurnPhaseActions
		gs.CurrentExplorationID = uuid.NewString()
	})

	penalty := s.revertPenalty(space, p.CurrentVisit)
	if err := s.ledger.AddTime(playerID, penalty, "try_again",
		fmt.Sprintf("Tried again on %s", space)); err != nil {
		return TryAgainResult{}, err
	}

	if s.logger != nil {
		s.logger.Info("player tried again",
			zap.String("player_id", playerID),
			zap.String("space", space),
			zap.Int("time_penalty", penalty),
		)
	}
	return TryAgainResult{SpaceName: space, TimePenalty: penalty, ShouldAdvanceTurn: true}, nil
}

// revertPenalty derives the try-again time cost from the space's arrival
// time effect, falling back to a single day.
func (s *Sequencer) revertPenalty(space string, visit data.VisitType) int {
	for _, eff := range s.effects.ArrivalEffects(space, visit) {
		if eff.Kind == effects.KindTime && eff.Parsed && eff.Value > 0 {
			return eff.Value
		}
	}
	return tryAgainPenalty
}

// TurnResult reports a completed turn advance.
type TurnResult struct {
	EndedPlayerID  string
	NextPlayerID   string
	GlobalTurn     int
	SkippedPlayers []string
}

// EndTurn advances the game to the next player: runs the active-card
// expiration sweep, clears the ending player's snapshot, commits the turn's
// log session, bumps the counters and hands play to the next eligible seat,
// honoring forced-skip modifiers. A pending choice blocks the advance. The
// turn-ended log entry is appended only after every mutation has committed.
func (s *Sequencer) EndTurn(playerID string) (TurnResult, error) {
	gs := s.store.State()
	if gs.CurrentPlayerID != playerID {
		return TurnResult{}, errs.Validationf("it is not player %s's turn", playerID)
	}
	if gs.PendingChoice != nil {
		return TurnResult{}, errs.Conflictf("a choice is still pending, resolve it before ending the turn")
	}
	if gs.ActionsLocked {
		return TurnResult{}, errs.Conflictf("arrival processing is still running")
	}

	// The end-of-turn sweep runs inside its own phase; the advance below
	// lands on the next player's arrival phase.
	s.store.UpdateGame(func(next *state.GameState) {
		next.TurnPhase = state.TurnPhaseTurnEnd
	})
	if err := s.bank.EndOfTurn(); err != nil {
		return TurnResult{}, err
	}
	s.store.ClearSnapshot(playerID)
	s.store.CommitLogSession(gs.CurrentExplorationID)

	res := TurnResult{EndedPlayerID: playerID}
	s.store.UpdateGame(func(next *state.GameState) {
		next.CurrentExplorationID = ""
		if p := next.PlayerByID(playerID); p != nil {
			p.TurnCount++
			p.LastDiceRoll = 0
		}
		next.GlobalTurn++

		candidate := next.NextPlayerID(playerID)
		for candidate != playerID {
			p := next.PlayerByID(candidate)
			if p == nil || p.TurnModifiers.SkipTurns <= 0 {
				break
			}
			p.TurnModifiers.SkipTurns--
			res.SkippedPlayers = append(res.SkippedPlayers, candidate)
			next.AppendLogEntry(state.LogEntry{
				PlayerID:    candidate,
				Type:        "turn_skipped",
				Description: "Forced to skip the turn",
				Visibility:  state.VisibilitySystem,
				IsCommitted: true,
			})
			candidate = next.NextPlayerID(candidate)
		}
		next.CurrentPlayerID = candidate
		next.TurnPhase = state.TurnPhaseArrival
		res.NextPlayerID = candidate
		res.GlobalTurn = next.GlobalTurn
	})

	// Strictly after the advance has committed.
	ended := s.store.State().PlayerByID(playerID)
	name := playerID
	turnNo := 0
	if ended != nil {
		name = ended.Name
		turnNo = ended.TurnCount
	}
	s.store.AppendLog(state.LogEntry{
		PlayerID:    playerID,
		Type:        "turn_end",
		Description: fmt.Sprintf("%s ended turn %d", name, turnNo),
		IsCommitted: true,
	})

	if s.logger != nil {
		s.logger.Info("turn ended",
			zap.String("player_id", playerID),
			zap.String("next_player_id", res.NextPlayerID),
			zap.Int("global_turn", res.GlobalTurn),
		)
	}
	return res, nil
}

// checkActionAllowed rejects actions while arrival processing holds the lock
// or a pending choice conflicts with the action.
func (s *Sequencer) checkActionAllowed(action string) error {
	gs := s.store.State()
	if gs.ActionsLocked {
		return errs.Conflictf("arrival processing is still running")
	}
	if s.broker.BlocksAction(action) {
		return errs.Conflictf("a pending choice blocks %s", action)
	}
	return nil
}
