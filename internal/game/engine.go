// Package game assembles the per-game engine: an explicitly wired object
// graph over the state store and the gameplay components, exposing command
// entry points to the transport layer. One Engine per active game, no shared
// globals.
package game

import (
	"fmt"
	"sync"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/cards"
	"github.com/tomaszsb/Code2027-sub004/internal/game/choices"
	"github.com/tomaszsb/Code2027-sub004/internal/game/effects"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/movement"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"github.com/tomaszsb/Code2027-sub004/internal/game/turn"
	"go.uber.org/zap"
)

// Settings are the per-game tunables applied at setup.
type Settings struct {
	StartingMoney int
	MaxPlayers    int
}

// DefaultSettings returns the standard game setup.
func DefaultSettings() Settings {
	return Settings{StartingMoney: 100_000, MaxPlayers: 6}
}

// PlayerSetup describes one participant at game creation.
type PlayerSetup struct {
	ID    string
	Name  string
	Color string
}

// CommandResult is the uniform outcome of every player-facing command.
// Message is always human-readable; Payload carries structured data for the
// transport layer.
type CommandResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Engine is one game's fully wired component graph. Public methods assume at
// most one in-flight command at a time; the mutex enforces it for callers
// that cannot.
type Engine struct {
	mu sync.Mutex

	gameID     string
	store      *state.Store
	data       data.Service
	ledger     *resources.Ledger
	bank       *cards.Bank
	resolver   *movement.Resolver
	broker     *choices.Broker
	negotiator *choices.Negotiator
	effects    *effects.Engine
	sequencer  *turn.Sequencer
	logger     *zap.Logger

	// Effects parked while a targeting choice is outstanding.
	pendingTargeted []effects.Effect
}

// NewEngine creates a game with the given players on the board's starting
// space and wires the component graph. Call StartGame to process the first
// player's arrival.
func NewEngine(gameID string, players []PlayerSetup, dataSvc data.Service, settings Settings, logger *zap.Logger) (*Engine, error) {
	if len(players) == 0 {
		return nil, errs.Validationf("a game needs at least one player")
	}
	if settings.MaxPlayers > 0 && len(players) > settings.MaxPlayers {
		return nil, errs.Validationf("at most %d players are allowed, got %d", settings.MaxPlayers, len(players))
	}
	start := dataSvc.StartingSpace()
	if start == "" {
		return nil, errs.Integrityf("the board has no starting space")
	}

	gs := &state.GameState{
		GameID:       gameID,
		GamePhase:    state.GamePhasePlay,
		TurnPhase:    state.TurnPhaseArrival,
		Decks:        cards.BuildDecks(dataSvc),
		DiscardPiles: make(map[data.CardType][]string),
		Snapshots:    make(map[string]*state.Snapshot),
	}
	for i, ps := range players {
		if ps.ID == "" {
			return nil, errs.Validationf("player %d has no id", i)
		}
		if gs.PlayerByID(ps.ID) != nil {
			return nil, errs.Validationf("duplicate player id %s", ps.ID)
		}
		gs.Players = append(gs.Players, &state.Player{
			ID:            ps.ID,
			Name:          ps.Name,
			Color:         ps.Color,
			CurrentSpace:  start,
			CurrentVisit:  data.VisitFirst,
			VisitedSpaces: []string{start},
			Money:         settings.StartingMoney,
			Hand:          make(map[data.CardType][]string),
		})
	}
	gs.CurrentPlayerID = players[0].ID

	return newEngineFromState(gameID, gs, dataSvc, logger), nil
}

// ResumeEngine rebuilds a game's component graph around a previously
// persisted state.
func ResumeEngine(gameID string, gs *state.GameState, dataSvc data.Service, logger *zap.Logger) (*Engine, error) {
	if gs == nil || len(gs.Players) == 0 {
		return nil, errs.Integrityf("persisted state for game %s has no players", gameID)
	}
	return newEngineFromState(gameID, gs, dataSvc, logger), nil
}

func newEngineFromState(gameID string, gs *state.GameState, dataSvc data.Service, logger *zap.Logger) *Engine {
	store := state.NewStore(gs, logger)
	ledger := resources.NewLedger(store, logger)
	bank := cards.NewBank(store, dataSvc, ledger, logger)
	resolver := movement.NewResolver(store, dataSvc, logger)
	broker := choices.NewBroker(store, resolver, logger)
	negotiator := choices.NewNegotiator(store, dataSvc, logger)
	engine := effects.NewEngine(store, dataSvc, ledger, bank, broker, logger)
	sequencer := turn.NewSequencer(store, dataSvc, ledger, bank, resolver, broker, engine, logger)

	return &Engine{
		gameID:     gameID,
		store:      store,
		data:       dataSvc,
		ledger:     ledger,
		bank:       bank,
		resolver:   resolver,
		broker:     broker,
		negotiator: negotiator,
		effects:    engine,
		sequencer:  sequencer,
		logger:     logger,
	}
}

// GameID returns the engine's game identifier.
func (e *Engine) GameID() string { return e.gameID }

// State returns a copy of the current game state.
func (e *Engine) State() *state.GameState { return e.store.State() }

// Subscribe registers fn for state-change notifications and returns the
// unsubscribe function.
func (e *Engine) Subscribe(fn state.Subscriber) func() { return e.store.Subscribe(fn) }

// StartGame processes the first player's arrival on the starting space.
func (e *Engine) StartGame() CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startTurn(e.store.State().CurrentPlayerID)
}

// startTurn runs the arrival protocol for the player and reports it.
func (e *Engine) startTurn(playerID string) CommandResult {
	res, err := e.sequencer.ProcessArrival(playerID)
	if err != nil {
		return fail(err)
	}
	msg := fmt.Sprintf("Arrived on %s", res.SpaceName)
	if res.GameEnded {
		msg = fmt.Sprintf("Reached %s, the game is over", res.SpaceName)
	}
	return CommandResult{
		Success: true,
		Message: msg,
		Payload: map[string]any{
			"space":      res.SpaceName,
			"visit_type": string(res.VisitType),
			"effects":    res.Effects,
			"game_ended": res.GameEnded,
			"player_id":  playerID,
		},
	}
}

// RollDice rolls for the player and applies the face's dice effects.
func (e *Engine) RollDice(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireTurn(playerID); err != nil {
		return fail(err)
	}
	res, err := e.sequencer.RollDice(playerID)
	if err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Rolled a %d", res.Roll),
		Payload: map[string]any{
			"roll":        res.Roll,
			"effects":     res.Effects,
			"valid_moves": res.ValidMoves,
		},
	}
}

// TriggerManualEffects runs the player-invoked effects of the current space.
// Each space's manual action is available once per stay.
func (e *Engine) TriggerManualEffects(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireTurn(playerID); err != nil {
		return fail(err)
	}
	if e.broker.BlocksAction("manual_effects") {
		return fail(errs.Conflictf("a pending choice blocks space actions"))
	}
	p, err := e.store.Player(playerID)
	if err != nil {
		return fail(err)
	}
	if p.UsedManual {
		return fail(errs.Conflictf("the space action on %s was already used this stay", p.CurrentSpace))
	}
	effs := e.effects.ManualEffects(p.CurrentSpace, p.CurrentVisit)
	if len(effs) == 0 {
		return fail(errs.Validationf("space %s has no manual action", p.CurrentSpace))
	}
	batch := e.effects.ProcessEffects(effs, effects.Context{PlayerID: playerID, Source: "manual:" + p.CurrentSpace})
	if _, err := e.store.UpdatePlayer(playerID, func(pl *state.Player) {
		pl.UsedManual = true
	}); err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Used the space action on %s", p.CurrentSpace),
		Payload: map[string]any{"effects": batch},
	}
}

// GetValidMoves returns the player's legal destinations.
func (e *Engine) GetValidMoves(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	moves, err := e.resolver.ValidMoves(playerID)
	if err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("%d destination%s available", len(moves), plural(len(moves))),
		Payload: map[string]any{"valid_moves": moves},
	}
}

// MovePlayer commits a move. Arrival on the destination is processed at the
// start of the player's next turn, not here; moving is the closing action of
// a turn.
func (e *Engine) MovePlayer(playerID, destination string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireTurn(playerID); err != nil {
		return fail(err)
	}
	if e.broker.BlocksAction("move") {
		return fail(errs.Conflictf("a pending choice blocks moving"))
	}
	if err := e.resolver.MovePlayer(playerID, destination); err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Moved to %s", destination),
		Payload: map[string]any{"destination": destination},
	}
}

// PlayCard plays a card from the player's hand and applies its companion
// effects, including multi-target ones.
func (e *Engine) PlayCard(playerID, cardID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireTurn(playerID); err != nil {
		return fail(err)
	}
	if e.broker.BlocksAction("play_card") {
		return fail(errs.Conflictf("a pending choice blocks playing cards"))
	}
	def, err := e.bank.PlayCard(playerID, cardID)
	if err != nil {
		return fail(err)
	}
	batch := e.processCardEffects(playerID, def)
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Played %s", def.CardName),
		Payload: map[string]any{"card": def, "effects": batch},
	}
}

// processCardEffects runs a played card's companion effects. When one of
// them raises a targeting choice, the whole batch is parked until the choice
// is resolved, then re-applied with the explicit target.
func (e *Engine) processCardEffects(playerID string, def data.CardDefinition) effects.BatchResult {
	effs := effects.CardEffects(def)
	batch := e.effects.ProcessEffects(effs, effects.Context{PlayerID: playerID, Source: "card:" + def.CardID})
	for _, r := range batch.Results {
		if pending, ok := r.Metadata["pending_targeting"].(bool); ok && pending {
			e.pendingTargeted = effs
			break
		}
	}
	return batch
}

// DrawCards draws count cards of a type into the player's hand.
func (e *Engine) DrawCards(playerID string, cardType data.CardType, count int) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	drawn, err := e.bank.DrawCards(playerID, cardType, count)
	if err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Drew %d %s card%s", len(drawn), cardType, plural(len(drawn))),
		Payload: map[string]any{"card_ids": drawn},
	}
}

// TransferCard moves a card between hands.
func (e *Engine) TransferCard(fromID, toID, cardID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.bank.TransferCard(fromID, toID, cardID); err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Transferred card to %s", toID),
		Payload: map[string]any{"card_id": cardID, "to": toID},
	}
}

// TryAgainOnSpace reverts the player to their space-entry snapshot at a time
// cost and advances the turn, as the revert contract requires.
func (e *Engine) TryAgainOnSpace(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireTurn(playerID); err != nil {
		return fail(err)
	}
	res, err := e.sequencer.TryAgainOnSpace(playerID)
	if err != nil {
		return fail(err)
	}
	result := CommandResult{
		Success: true,
		Message: fmt.Sprintf("Trying %s again costs %d day%s", res.SpaceName, res.TimePenalty, plural(res.TimePenalty)),
		Payload: map[string]any{"space": res.SpaceName, "time_penalty": res.TimePenalty},
	}
	if res.ShouldAdvanceTurn {
		if end := e.endTurnLocked(playerID); !end.Success {
			return end
		}
	}
	return result
}

// EndTurn finishes the player's turn and starts the next player's.
func (e *Engine) EndTurn(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endTurnLocked(playerID)
}

func (e *Engine) endTurnLocked(playerID string) CommandResult {
	res, err := e.sequencer.EndTurn(playerID)
	if err != nil {
		return fail(err)
	}
	next := e.store.State()
	if next.GamePhase == state.GamePhaseEnd {
		return CommandResult{
			Success: true,
			Message: "The game is over",
			Payload: map[string]any{"finish_order": next.FinishOrder},
		}
	}
	arrival := e.startTurn(res.NextPlayerID)
	if !arrival.Success {
		return arrival
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Turn passed to %s", res.NextPlayerID),
		Payload: map[string]any{
			"next_player_id": res.NextPlayerID,
			"global_turn":    res.GlobalTurn,
			"skipped":        res.SkippedPlayers,
			"arrival":        arrival.Payload,
		},
	}
}

// ResolveChoice answers the pending choice. Answered targeting choices
// release any parked card effects against the chosen target.
func (e *Engine) ResolveChoice(playerID, selection string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	pending := e.store.State().PendingChoice
	if pending == nil {
		return fail(errs.Conflictf("no choice is pending"))
	}
	choiceType := pending.Type
	if err := e.broker.ResolveChoice(playerID, selection); err != nil {
		return fail(err)
	}

	result := CommandResult{
		Success: true,
		Message: fmt.Sprintf("Chose %s", selection),
		Payload: map[string]any{"selection": selection},
	}
	if choiceType == state.ChoiceTargeting && e.pendingTargeted != nil {
		effs := e.pendingTargeted
		e.pendingTargeted = nil
		batch := e.effects.ProcessEffects(effs, effects.Context{
			PlayerID:        playerID,
			TargetPlayerIDs: []string{selection},
			Source:          "targeting",
		})
		result.Payload["effects"] = batch
	}
	return result
}

// InitiateNegotiation opens a negotiation.
func (e *Engine) InitiateNegotiation(playerID, context string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	neg, err := e.negotiator.Initiate(playerID, context)
	if err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: "Negotiation opened",
		Payload: map[string]any{"negotiation_id": neg.ID},
	}
}

// MakeOffer places an offer of cards and money into the active negotiation.
func (e *Engine) MakeOffer(playerID string, cardIDs []string, money int) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.negotiator.MakeOffer(playerID, cardIDs, money); err != nil {
		return fail(err)
	}
	return CommandResult{
		Success: true,
		Message: fmt.Sprintf("Offered %d card%s and $%d", len(cardIDs), plural(len(cardIDs)), money),
	}
}

// AcceptNegotiation settles the active negotiation.
func (e *Engine) AcceptNegotiation(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.negotiator.Accept(playerID); err != nil {
		return fail(err)
	}
	return CommandResult{Success: true, Message: "Negotiation accepted, exchange settled"}
}

// RejectNegotiation cancels the active negotiation and returns escrow.
func (e *Engine) RejectNegotiation(playerID string) CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.negotiator.Reject(playerID); err != nil {
		return fail(err)
	}
	return CommandResult{Success: true, Message: "Negotiation rejected, escrow returned"}
}

// requireTurn rejects turn-bound actions from anyone but the current player,
// and everything once the game is over.
func (e *Engine) requireTurn(playerID string) error {
	gs := e.store.State()
	if gs.GamePhase == state.GamePhaseEnd {
		return errs.Conflictf("the game is over")
	}
	if gs.CurrentPlayerID != playerID {
		return errs.Validationf("it is not player %s's turn", playerID)
	}
	return nil
}

func fail(err error) CommandResult {
	return CommandResult{Success: false, Message: err.Error()}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
