package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/cards"
	"github.com/tomaszsb/Code2027-sub004/internal/game/choices"
	"github.com/tomaszsb/Code2027-sub004/internal/game/movement"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, players ...*state.Player) (*Engine, *state.Store) {
	t.Helper()
	svc := data.Fixture()
	logger := zaptest.NewLogger(t)
	store := state.NewStore(&state.GameState{
		GameID:          "g1",
		Players:         players,
		CurrentPlayerID: players[0].ID,
		GamePhase:       state.GamePhasePlay,
		TurnPhase:       state.TurnPhaseActions,
		Decks:           cards.BuildDecks(svc),
		DiscardPiles:    map[data.CardType][]string{},
		Snapshots:       map[string]*state.Snapshot{},
	}, logger)
	ledger := resources.NewLedger(store, logger)
	bank := cards.NewBank(store, svc, ledger, logger)
	resolver := movement.NewResolver(store, svc, logger)
	broker := choices.NewBroker(store, resolver, logger)
	return NewEngine(store, svc, ledger, bank, broker, logger), store
}

func player(id string, money int) *state.Player {
	return &state.Player{
		ID: id, Name: id,
		CurrentSpace: "CON-BUILD-SITE",
		CurrentVisit: data.VisitFirst,
		Money:        money,
		Hand:         map[data.CardType][]string{},
	}
}

func TestPercentMoneyUsesCurrentMoney(t *testing.T) {
	engine, store := newEngine(t, player("p1", 2000))

	eff := FromSpaceEffect(data.SpaceEffectRow{
		SpaceName: "CON-BUILD-SITE", VisitType: data.VisitFirst,
		EffectType: "money", Action: "deduct", Value: "5%",
	})
	res := engine.ProcessEffect(eff, Context{PlayerID: "p1"})

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Paid $100", res.Message)
	assert.Equal(t, 1900, store.State().PlayerByID("p1").Money)
}

func TestPerPrincipalScalingMultipliesBase(t *testing.T) {
	p := player("p1", 10000)
	p.Loans = []state.Loan{{Principal: 200000, Rate: 5}, {Principal: 300000, Rate: 7}}
	engine, store := newEngine(t, p)

	// 500k of principal is two full 200k units.
	eff := FromSpaceEffect(data.SpaceEffectRow{
		SpaceName: "CON-BUILD-SITE", VisitType: data.VisitFirst,
		EffectType: "money", Action: "deduct", Value: "1000", Condition: "per_200k",
	})
	res := engine.ProcessEffect(eff, Context{PlayerID: "p1"})

	require.True(t, res.Success, res.Message)
	assert.Equal(t, 8000, store.State().PlayerByID("p1").Money)
}

func TestPerPrincipalConditionSkipsWithoutLoans(t *testing.T) {
	engine, store := newEngine(t, player("p1", 10000))

	eff := FromSpaceEffect(data.SpaceEffectRow{
		EffectType: "money", Action: "deduct", Value: "1000", Condition: "per_200k",
	})
	res := engine.ProcessEffect(eff, Context{PlayerID: "p1"})

	require.True(t, res.Success)
	assert.Equal(t, true, res.Metadata["skipped"])
	assert.Equal(t, 10000, store.State().PlayerByID("p1").Money)
}

func TestScopeCondition(t *testing.T) {
	p := player("p1", 1000)
	p.Hand[data.CardTypeWork] = []string{"W001", "W002"} // scope 2000, well under 4M
	engine, store := newEngine(t, p)

	met := FromSpaceEffect(data.SpaceEffectRow{
		EffectType: "time", Action: "add", Value: "5", Condition: "scope_le_4m",
	})
	notMet := FromSpaceEffect(data.SpaceEffectRow{
		EffectType: "time", Action: "add", Value: "50", Condition: "scope_gt_4m",
	})
	batch := engine.ProcessEffects([]Effect{met, notMet}, Context{PlayerID: "p1"})

	require.True(t, batch.Success)
	assert.Equal(t, 5, store.State().PlayerByID("p1").TimeSpent)
}

func TestUnparseableDrawReportsActualCount(t *testing.T) {
	engine, store := newEngine(t, player("p1", 1000))

	eff := Effect{Kind: KindCards, Action: "draw", RawValue: "a few", CardType: data.CardTypeWork}
	res := engine.ProcessEffect(eff, Context{PlayerID: "p1"})

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Drew 1 W card", res.Message)
	assert.NotContains(t, res.Message, "NaN")
	assert.Len(t, store.State().PlayerByID("p1").Hand[data.CardTypeWork], 1)
}

func TestShortDeckDrawReportsZero(t *testing.T) {
	engine, store := newEngine(t, player("p1", 1000))
	store.UpdateGame(func(gs *state.GameState) {
		gs.Decks[data.CardTypeInvestor] = nil
	})

	eff := Effect{Kind: KindCards, Action: "draw", RawValue: "2", Value: 2, Parsed: true, CardType: data.CardTypeInvestor}
	res := engine.ProcessEffect(eff, Context{PlayerID: "p1"})

	require.True(t, res.Success)
	assert.Equal(t, "Drew 0 I cards", res.Message)
}

func TestAllPlayersTargetHitsEveryone(t *testing.T) {
	engine, store := newEngine(t, player("pA", 1000), player("pB", 1000), player("pC", 1000))

	// Red Tape carries a one-shot tick for all players.
	def, err := data.Fixture().Card("E003")
	require.NoError(t, err)
	batch := engine.ProcessEffects(CardEffects(def), Context{PlayerID: "pA"})

	require.True(t, batch.Success)
	gs := store.State()
	for _, id := range []string{"pA", "pB", "pC"} {
		assert.Equal(t, 3, gs.PlayerByID(id).TimeSpent, "player %s", id)
	}
}

func TestChooseOpponentRaisesTargetingChoice(t *testing.T) {
	engine, store := newEngine(t, player("pA", 1000), player("pB", 1000), player("pC", 1000))

	eff := Effect{Kind: KindTime, Action: "add", RawValue: "4", Value: 4, Parsed: true, Target: "Choose Opponent"}
	res := engine.ProcessEffect(eff, Context{PlayerID: "pA"})

	require.True(t, res.Success)
	assert.Equal(t, true, res.Metadata["pending_targeting"])
	choice := store.State().PendingChoice
	require.NotNil(t, choice)
	assert.Equal(t, state.ChoiceTargeting, choice.Type)
	assert.ElementsMatch(t, []string{"pB", "pC"}, choice.Options)
	// Nothing applied until the choice is answered.
	for _, id := range []string{"pA", "pB", "pC"} {
		assert.Zero(t, store.State().PlayerByID(id).TimeSpent)
	}
}

func TestMultipleChooseOpponentEffectsShareOneChoice(t *testing.T) {
	engine, store := newEngine(t, player("pA", 1000), player("pB", 1000), player("pC", 1000))

	effs := []Effect{
		{Kind: KindTime, Action: "add", RawValue: "4", Value: 4, Parsed: true, Target: "Choose Opponent"},
		{Kind: KindMoney, Action: "deduct", RawValue: "100", Value: 100, Parsed: true, Target: "Choose Opponent"},
	}
	batch := engine.ProcessEffects(effs, Context{PlayerID: "pA"})

	require.True(t, batch.Success, batch.Errors)
	assert.Zero(t, batch.FailedEffects, "later opponent effects ride on the raised choice")
	for _, r := range batch.Results {
		assert.Equal(t, true, r.Metadata["pending_targeting"])
	}

	// Exactly one choice is raised and the resolution applies the batch.
	choice := store.State().PendingChoice
	require.NotNil(t, choice)
	assert.Equal(t, state.ChoiceTargeting, choice.Type)
}

func TestChooseOpponentWithSingleOpponentAppliesDirectly(t *testing.T) {
	engine, store := newEngine(t, player("pA", 1000), player("pB", 1000))

	eff := Effect{Kind: KindTime, Action: "add", RawValue: "4", Value: 4, Parsed: true, Target: "Choose Opponent"}
	res := engine.ProcessEffect(eff, Context{PlayerID: "pA"})

	require.True(t, res.Success, res.Message)
	assert.Zero(t, store.State().PlayerByID("pA").TimeSpent)
	assert.Equal(t, 4, store.State().PlayerByID("pB").TimeSpent)
}

func TestExplicitTargetsOverrideScope(t *testing.T) {
	engine, store := newEngine(t, player("pA", 1000), player("pB", 1000), player("pC", 1000))

	eff := Effect{Kind: KindMoney, Action: "add", RawValue: "100", Value: 100, Parsed: true, Target: "Choose Opponent"}
	res := engine.ProcessEffect(eff, Context{PlayerID: "pA", TargetPlayerIDs: []string{"pC"}})

	require.True(t, res.Success)
	assert.Equal(t, 1000, store.State().PlayerByID("pB").Money)
	assert.Equal(t, 1100, store.State().PlayerByID("pC").Money)
}

func TestBatchFoldsFailuresWithoutRollback(t *testing.T) {
	engine, store := newEngine(t, player("p1", 1000))

	batch := engine.ProcessEffects([]Effect{
		{Kind: KindMoney, Action: "add", RawValue: "200", Value: 200, Parsed: true},
		{Kind: KindUnknown, RawValue: "???", Source: "space:X"},
		{Kind: KindTime, Action: "add", RawValue: "2", Value: 2, Parsed: true},
	}, Context{PlayerID: "p1"})

	assert.False(t, batch.Success)
	assert.Equal(t, 3, batch.TotalEffects)
	assert.Equal(t, 2, batch.SuccessfulEffects)
	assert.Equal(t, 1, batch.FailedEffects)
	require.Len(t, batch.Errors, 1)

	// Both valid effects applied despite the failure between them.
	p := store.State().PlayerByID("p1")
	assert.Equal(t, 1200, p.Money)
	assert.Equal(t, 2, p.TimeSpent)
}

func TestFromDiceEffectSelectsFace(t *testing.T) {
	row := data.DiceEffectRow{
		SpaceName: "ARCH-INIT-REVIEW", VisitType: data.VisitFirst,
		EffectType: "cards", Action: "draw", CardType: data.CardTypeWork,
		RollValues: [6]string{"1", "1", "2", "2", "3", "3"},
	}

	eff, ok := FromDiceEffect(row, 5)
	require.True(t, ok)
	assert.Equal(t, KindCards, eff.Kind)
	assert.Equal(t, 3, eff.Value)
	assert.True(t, eff.Parsed)

	_, ok = FromDiceEffect(row, 0)
	assert.False(t, ok)
	_, ok = FromDiceEffect(data.DiceEffectRow{}, 4)
	assert.False(t, ok)
}

func TestArrivalEffectsFilterByTrigger(t *testing.T) {
	engine, _ := newEngine(t, player("p1", 1000))

	arrival := engine.ArrivalEffects("CON-BUILD-SITE", data.VisitFirst)
	require.Len(t, arrival, 3)
	assert.Equal(t, KindTime, arrival[0].Kind)

	manual := engine.ManualEffects("CON-BUILD-SITE", data.VisitFirst)
	assert.Empty(t, manual)
}

func TestFeeRowsAreMoneyDeductions(t *testing.T) {
	eff := FromSpaceEffect(data.SpaceEffectRow{EffectType: "fee", Action: "charge", Value: "250"})
	assert.Equal(t, KindMoney, eff.Kind)
	assert.Equal(t, "deduct", eff.Action)
	assert.Equal(t, 250, eff.Value)
}
