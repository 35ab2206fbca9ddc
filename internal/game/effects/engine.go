package effects

import (
	"fmt"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/cards"
	"github.com/tomaszsb/Code2027-sub004/internal/game/choices"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// scopeThreshold splits small from large projects for scope conditions.
const scopeThreshold = 4_000_000

// loanScaleUnit is the principal slice for per-principal scaled effects.
const loanScaleUnit = 200_000

// Engine applies effect batches. It depends only on the leaf components, so
// the turn sequencer can depend on it without a cycle.
type Engine struct {
	store  *state.Store
	data   data.Service
	ledger *resources.Ledger
	bank   *cards.Bank
	broker *choices.Broker
	logger *zap.Logger
}

// NewEngine creates an effect engine over the given leaf components.
func NewEngine(store *state.Store, dataSvc data.Service, ledger *resources.Ledger, bank *cards.Bank, broker *choices.Broker, logger *zap.Logger) *Engine {
	return &Engine{store: store, data: dataSvc, ledger: ledger, bank: bank, broker: broker, logger: logger}
}

// Context identifies the acting player and, when targeting has already been
// resolved (a targeting choice was answered), the explicit target list.
type Context struct {
	PlayerID        string
	TargetPlayerIDs []string
	Source          string
}

// Result is the outcome of one effect application.
type Result struct {
	Success  bool
	Message  string
	Metadata map[string]any
}

// BatchResult aggregates a ProcessEffects call.
type BatchResult struct {
	Success           bool
	TotalEffects      int
	SuccessfulEffects int
	FailedEffects     int
	Results           []Result
	Errors            []string
}

// ArrivalEffects returns the auto-triggered effects for a space and visit
// type, in table order.
func (e *Engine) ArrivalEffects(space string, visit data.VisitType) []Effect {
	var out []Effect
	for _, row := range e.data.SpaceEffects(space, visit) {
		if row.TriggerType != "" && row.TriggerType != "auto" {
			continue
		}
		out = append(out, FromSpaceEffect(row))
	}
	return out
}

// ManualEffects returns the manually triggered effects for a space and visit
// type.
func (e *Engine) ManualEffects(space string, visit data.VisitType) []Effect {
	var out []Effect
	for _, row := range e.data.SpaceEffects(space, visit) {
		if row.TriggerType == "manual" {
			out = append(out, FromSpaceEffect(row))
		}
	}
	return out
}

// DiceEffects returns the effects a rolled face triggers on a space.
func (e *Engine) DiceEffects(space string, visit data.VisitType, roll int) []Effect {
	var out []Effect
	for _, row := range e.data.DiceEffects(space, visit) {
		if eff, ok := FromDiceEffect(row, roll); ok {
			out = append(out, eff)
		}
	}
	return out
}

// ProcessEffects applies each effect in order and folds the outcomes. The
// batch is not transactional: a failure is recorded and processing continues.
func (e *Engine) ProcessEffects(effects []Effect, ctx Context) BatchResult {
	batch := BatchResult{TotalEffects: len(effects)}
	for _, eff := range effects {
		res := e.ProcessEffect(eff, ctx)
		batch.Results = append(batch.Results, res)
		if res.Success {
			batch.SuccessfulEffects++
		} else {
			batch.FailedEffects++
			batch.Errors = append(batch.Errors, res.Message)
		}
	}
	batch.Success = batch.FailedEffects == 0
	if e.logger != nil {
		e.logger.Debug("processed effect batch",
			zap.String("player_id", ctx.PlayerID),
			zap.Int("total", batch.TotalEffects),
			zap.Int("failed", batch.FailedEffects),
		)
	}
	return batch
}

// ProcessEffect applies one effect. A condition that does not hold skips the
// effect without error.
func (e *Engine) ProcessEffect(eff Effect, ctx Context) Result {
	multiplier, met := e.evaluateCondition(eff.Condition, ctx.PlayerID)
	if !met {
		return Result{Success: true, Message: "Condition not met, skipped", Metadata: map[string]any{"skipped": true}}
	}

	targets, pending := e.resolveTargets(eff, ctx)
	if pending != nil {
		return *pending
	}

	var messages []string
	for _, target := range targets {
		res := e.applyTo(eff, target, multiplier)
		if !res.Success {
			return res
		}
		messages = append(messages, res.Message)
	}
	if len(messages) == 0 {
		return Result{Success: true, Message: "No target, skipped", Metadata: map[string]any{"skipped": true}}
	}
	return Result{Success: true, Message: messages[0], Metadata: map[string]any{"targets": targets}}
}

// evaluateCondition returns the value multiplier the condition yields and
// whether the effect should run at all. Unrecognized conditions skip the
// effect rather than failing the batch.
func (e *Engine) evaluateCondition(condition, playerID string) (multiplier int, met bool) {
	switch condition {
	case "":
		return 1, true
	case "scope_le_4m":
		return 1, e.projectScope(playerID) <= scopeThreshold
	case "scope_gt_4m":
		return 1, e.projectScope(playerID) > scopeThreshold
	case "per_200k":
		p, err := e.store.Player(playerID)
		if err != nil {
			return 0, false
		}
		units := p.TotalLoanPrincipal() / loanScaleUnit
		return units, units > 0
	default:
		if e.logger != nil {
			e.logger.Warn("unrecognized effect condition, skipping", zap.String("condition", condition))
		}
		return 0, false
	}
}

// projectScope is the total work cost of the player's W cards in hand.
func (e *Engine) projectScope(playerID string) int {
	p, err := e.store.Player(playerID)
	if err != nil {
		return 0
	}
	total := 0
	for _, id := range p.Hand[data.CardTypeWork] {
		if def, err := e.data.Card(id); err == nil {
			total += def.WorkCost
		}
	}
	return total
}

// resolveTargets expands the effect's target scope into player ids. Explicit
// targeting data in the context always wins; it is how an answered targeting
// choice flows back in. A "Choose Opponent" effect with several candidates
// and no explicit target raises a targeting choice instead of guessing.
func (e *Engine) resolveTargets(eff Effect, ctx Context) ([]string, *Result) {
	if len(ctx.TargetPlayerIDs) > 0 {
		return ctx.TargetPlayerIDs, nil
	}
	gs := e.store.State()
	switch eff.Target {
	case "", "Self":
		return []string{ctx.PlayerID}, nil
	case "All Players":
		ids := make([]string, 0, len(gs.Players))
		for _, p := range gs.Players {
			ids = append(ids, p.ID)
		}
		return ids, nil
	case "Choose Opponent":
		var opponents []string
		for _, p := range gs.Players {
			if p.ID != ctx.PlayerID {
				opponents = append(opponents, p.ID)
			}
		}
		if len(opponents) <= 1 {
			return opponents, nil
		}
		pending := &Result{
			Success:  true,
			Message:  "Choose an opponent to target",
			Metadata: map[string]any{"pending_targeting": true},
		}
		// A batch can carry several opponent-targeted effects; the first one
		// raised the choice and the rest ride on it.
		if cur := e.broker.Pending(); cur != nil && cur.Type == state.ChoiceTargeting && cur.PlayerID == ctx.PlayerID {
			return nil, pending
		}
		if _, err := e.broker.CreateChoice(ctx.PlayerID, state.ChoiceTargeting, opponents, "Choose an opponent"); err != nil {
			return nil, &Result{Success: false, Message: err.Error()}
		}
		return nil, pending
	default:
		return []string{ctx.PlayerID}, nil
	}
}

// applyTo dispatches one effect to one target through the owning leaf
// component.
func (e *Engine) applyTo(eff Effect, targetID string, multiplier int) Result {
	switch eff.Kind {
	case KindTime:
		return e.applyTime(eff, targetID, multiplier)
	case KindMoney:
		return e.applyMoney(eff, targetID, multiplier)
	case KindCards:
		return e.applyCards(eff, targetID, multiplier)
	case KindQuality:
		e.store.AppendLog(state.LogEntry{
			PlayerID:    targetID,
			Type:        "quality_change",
			Description: fmt.Sprintf("Quality %s %s", eff.Action, eff.RawValue),
			Visibility:  state.VisibilitySystem,
			IsCommitted: true,
		})
		return Result{Success: true, Message: fmt.Sprintf("Quality %s %s", eff.Action, eff.RawValue)}
	case KindUnknown:
		return Result{Success: false, Message: fmt.Sprintf("unknown effect type for value %q from %s", eff.RawValue, eff.Source)}
	default:
		return Result{Success: false, Message: fmt.Sprintf("unhandled effect kind %q", eff.Kind)}
	}
}

func (e *Engine) applyTime(eff Effect, targetID string, multiplier int) Result {
	if !eff.Parsed {
		return Result{Success: false, Message: fmt.Sprintf("time effect value %q from %s is not numeric", eff.RawValue, eff.Source)}
	}
	amount := eff.Value * multiplier
	var err error
	switch eff.Action {
	case "deduct", "subtract", "remove":
		err = e.ledger.SpendTime(targetID, amount, eff.Source, eff.Description)
		amount = -amount
	default:
		err = e.ledger.AddTime(targetID, amount, eff.Source, eff.Description)
	}
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	word := "day"
	if amount < 0 {
		return Result{Success: true, Message: fmt.Sprintf("Removed %d %s%s", -amount, word, plural(-amount))}
	}
	return Result{Success: true, Message: fmt.Sprintf("Added %d %s%s", amount, word, plural(amount))}
}

func (e *Engine) applyMoney(eff Effect, targetID string, multiplier int) Result {
	if !eff.Parsed {
		return Result{Success: false, Message: fmt.Sprintf("money effect value %q from %s is not numeric", eff.RawValue, eff.Source)}
	}
	amount := eff.Value
	if eff.Percent {
		p, err := e.store.Player(targetID)
		if err != nil {
			return Result{Success: false, Message: err.Error()}
		}
		amount = p.Money * eff.Value / 100
	}
	amount *= multiplier

	var err error
	credit := true
	switch eff.Action {
	case "deduct", "subtract", "fee", "pay", "remove":
		credit = false
		err = e.ledger.SpendMoney(targetID, amount, eff.Source, eff.Description)
	default:
		err = e.ledger.AddMoney(targetID, amount, eff.Source, eff.Description)
	}
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	if credit {
		return Result{Success: true, Message: fmt.Sprintf("Received $%d", amount)}
	}
	return Result{Success: true, Message: fmt.Sprintf("Paid $%d", amount)}
}

// applyCards draws or discards. An unparseable count falls back to a single
// card, and the message reports the number actually moved.
func (e *Engine) applyCards(eff Effect, targetID string, multiplier int) Result {
	count := eff.Value
	if !eff.Parsed {
		count = 1
	}
	count *= multiplier
	if count <= 0 {
		return Result{Success: true, Message: "No cards to move", Metadata: map[string]any{"skipped": true}}
	}

	switch eff.Action {
	case "draw":
		drawn, err := e.bank.DrawCards(targetID, eff.CardType, count)
		if err != nil {
			return Result{Success: false, Message: err.Error()}
		}
		n := len(drawn)
		return Result{
			Success:  true,
			Message:  fmt.Sprintf("Drew %d %s card%s", n, eff.CardType, plural(n)),
			Metadata: map[string]any{"card_ids": drawn},
		}
	case "discard", "remove":
		p, err := e.store.Player(targetID)
		if err != nil {
			return Result{Success: false, Message: err.Error()}
		}
		hand := p.Hand[eff.CardType]
		if count > len(hand) {
			count = len(hand)
		}
		discarded := 0
		for i := 0; i < count; i++ {
			if err := e.bank.DiscardCard(targetID, hand[i]); err != nil {
				break
			}
			discarded++
		}
		return Result{Success: true, Message: fmt.Sprintf("Discarded %d %s card%s", discarded, eff.CardType, plural(discarded))}
	default:
		return Result{Success: false, Message: fmt.Sprintf("unknown card action %q from %s", eff.Action, eff.Source)}
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
