package cards

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap/zaptest"
)

func newTestBank(t *testing.T) (*Bank, *state.Store, data.Service) {
	t.Helper()
	svc := data.Fixture()
	store := state.NewStore(&state.GameState{
		GameID: "g1",
		Players: []*state.Player{
			{ID: "p1", Name: "Alice", CurrentSpace: "CON-BUILD-SITE", Money: 2000, Hand: map[data.CardType][]string{}},
			{ID: "p2", Name: "Bob", CurrentSpace: "OWNER-SCOPE-INITIATION", Money: 1000, Hand: map[data.CardType][]string{}},
		},
		CurrentPlayerID: "p1",
		GamePhase:       state.GamePhasePlay,
		GlobalTurn:      1,
		Decks:           BuildDecks(svc),
		DiscardPiles:    map[data.CardType][]string{},
		Snapshots:       map[string]*state.Snapshot{},
	}, zaptest.NewLogger(t))
	ledger := resources.NewLedger(store, zaptest.NewLogger(t))
	return NewBank(store, svc, ledger, zaptest.NewLogger(t)), store, svc
}

// cardLocations gathers the multiset union of deck, discard pile and hands
// for a card type, for conservation checks.
func cardLocations(gs *state.GameState, cardType data.CardType) map[string]int {
	seen := map[string]int{}
	for _, id := range gs.Decks[cardType] {
		seen[id]++
	}
	for _, id := range gs.DiscardPiles[cardType] {
		seen[id]++
	}
	for _, p := range gs.Players {
		for _, id := range p.Hand[cardType] {
			seen[id]++
		}
	}
	return seen
}

func assertConservation(t *testing.T, gs *state.GameState, svc data.Service, cardType data.CardType) {
	t.Helper()
	seen := cardLocations(gs, cardType)
	defs := svc.CardsByType(cardType)
	require.Len(t, seen, len(defs), "every %s card id must be somewhere", cardType)
	for id, count := range seen {
		assert.Equal(t, 1, count, "card %s appears %d times", id, count)
	}
}

func TestDrawCards(t *testing.T) {
	bank, store, svc := newTestBank(t)

	drawn, err := bank.DrawCards("p1", data.CardTypeWork, 2)
	require.NoError(t, err)
	require.Len(t, drawn, 2)

	gs := store.State()
	assert.Len(t, gs.PlayerByID("p1").Hand[data.CardTypeWork], 2)
	assert.Len(t, gs.Decks[data.CardTypeWork], 1)
	assert.NotEqual(t, drawn[0], drawn[1])
	assertConservation(t, gs, svc, data.CardTypeWork)
}

func TestDrawCardsDeterministicOrder(t *testing.T) {
	bank, _, _ := newTestBank(t)

	// The top of the deck is the last catalogue entry; a single call pops in
	// a fixed order, not re-randomized per draw.
	drawn, err := bank.DrawCards("p1", data.CardTypeWork, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"W003", "W002"}, drawn)
}

func TestDrawCardsShortDrawOnExhaustedDeck(t *testing.T) {
	bank, store, _ := newTestBank(t)

	drawn, err := bank.DrawCards("p1", data.CardTypeWork, 99)
	require.NoError(t, err, "under-supply never errors")
	assert.Len(t, drawn, 3)
	assert.Empty(t, store.State().Decks[data.CardTypeWork])

	again, err := bank.DrawCards("p1", data.CardTypeWork, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestPlayCardDeductsCost(t *testing.T) {
	bank, store, svc := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeWork, 3)
	require.NoError(t, err)

	// W002 costs 800; p1 is on a CONSTRUCTION space with $2000.
	def, err := bank.PlayCard("p1", "W002")
	require.NoError(t, err)
	assert.Equal(t, "Framing Work", def.CardName)

	gs := store.State()
	assert.Equal(t, 1200, gs.PlayerByID("p1").Money)
	assert.NotContains(t, gs.PlayerByID("p1").Hand[data.CardTypeWork], "W002")
	assert.Contains(t, gs.DiscardPiles[data.CardTypeWork], "W002")
	assertConservation(t, gs, svc, data.CardTypeWork)
}

func TestPlayCardUnaffordable(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeWork, 3)
	require.NoError(t, err)
	_, err = store.UpdatePlayer("p1", func(p *state.Player) { p.Money = 1000 })
	require.NoError(t, err)

	// W001 costs 1200.
	_, err = bank.PlayCard("p1", "W001")
	var vErr *errs.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Error(), "$1200")
	assert.Contains(t, vErr.Error(), "$1000")

	// Hand and money unchanged on rejection.
	gs := store.State()
	assert.Equal(t, 1000, gs.PlayerByID("p1").Money)
	assert.Contains(t, gs.PlayerByID("p1").Hand[data.CardTypeWork], "W001")
}

func TestPlayCardPhaseRestriction(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p2", data.CardTypeWork, 1)
	require.NoError(t, err)

	// p2 is on a SETUP space; W cards require CONSTRUCTION.
	_, err = bank.PlayCard("p2", "W003")
	var vErr *errs.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Error(), "CONSTRUCTION")
	assert.Contains(t, vErr.Error(), "SETUP")

	// Moving to a CONSTRUCTION space makes the same card playable.
	_, err = store.UpdatePlayer("p2", func(p *state.Player) { p.CurrentSpace = "CON-BUILD-SITE" })
	require.NoError(t, err)
	_, err = bank.PlayCard("p2", "W003")
	require.NoError(t, err)
}

func TestPlayCardAnyPhase(t *testing.T) {
	bank, _, _ := newTestBank(t)

	// E001 has PhaseRestriction "Any" and is playable on a SETUP space.
	_, err := bank.DrawCards("p2", data.CardTypeExpeditor, 3)
	require.NoError(t, err)
	_, err = bank.PlayCard("p2", "E001")
	require.NoError(t, err)
}

func TestPlayBankCardRecordsLoan(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeBank, 2)
	require.NoError(t, err)
	_, err = bank.PlayCard("p1", "B002")
	require.NoError(t, err)

	p := store.State().PlayerByID("p1")
	require.Len(t, p.Loans, 1)
	assert.Equal(t, 400000, p.Loans[0].Principal)
	assert.Equal(t, 7, p.Loans[0].Rate)
	assert.Equal(t, 2000+400000, p.Money)
}

func TestPlayDurationCardRegistersActive(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeLife, 2)
	require.NoError(t, err)
	_, err = bank.PlayCard("p1", "L001")
	require.NoError(t, err)

	p := store.State().PlayerByID("p1")
	require.Len(t, p.ActiveCards, 1)
	assert.Equal(t, "L001", p.ActiveCards[0].CardID)
	assert.Equal(t, 1+3, p.ActiveCards[0].ExpirationTurn)
}

func TestTransferCard(t *testing.T) {
	bank, store, svc := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeExpeditor, 1)
	require.NoError(t, err)

	require.NoError(t, bank.TransferCard("p1", "p2", "E003"))

	gs := store.State()
	assert.NotContains(t, gs.PlayerByID("p1").Hand[data.CardTypeExpeditor], "E003")
	assert.Contains(t, gs.PlayerByID("p2").Hand[data.CardTypeExpeditor], "E003")
	assertConservation(t, gs, svc, data.CardTypeExpeditor)
}

func TestTransferCardRejectsSelf(t *testing.T) {
	bank, _, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeExpeditor, 1)
	require.NoError(t, err)

	err = bank.TransferCard("p1", "p1", "E003")
	var vErr *errs.ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestTransferCardRejectsNonTransferableType(t *testing.T) {
	bank, _, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeWork, 1)
	require.NoError(t, err)

	err = bank.TransferCard("p1", "p2", "W003")
	var vErr *errs.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Error(), "W")
}

func TestTransferCardNotOwned(t *testing.T) {
	bank, _, _ := newTestBank(t)

	err := bank.TransferCard("p1", "p2", "E001")
	var nfErr *errs.NotFoundError
	require.True(t, errors.As(err, &nfErr))
}

func TestDrawAndApplyCardIsOneTransition(t *testing.T) {
	bank, store, svc := newTestBank(t)

	// I001 credits the investment amount on application.
	def, err := bank.DrawAndApplyCard("p1", data.CardTypeInvestor)
	require.NoError(t, err)
	assert.Equal(t, "I001", def.CardID)

	gs := store.State()
	assert.Equal(t, 2000+150000, gs.PlayerByID("p1").Money)
	assert.Contains(t, gs.DiscardPiles[data.CardTypeInvestor], "I001")
	assert.Empty(t, gs.PlayerByID("p1").Hand[data.CardTypeInvestor])
	assertConservation(t, gs, svc, data.CardTypeInvestor)
}

func TestDrawAndApplyExhaustedDeck(t *testing.T) {
	bank, _, _ := newTestBank(t)

	_, err := bank.DrawAndApplyCard("p1", data.CardTypeInvestor)
	require.NoError(t, err)
	_, err = bank.DrawAndApplyCard("p1", data.CardTypeInvestor)
	require.Error(t, err)
}

func TestEndOfTurnExpiresActiveCards(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeLife, 2)
	require.NoError(t, err)
	_, err = bank.PlayCard("p1", "L001")
	require.NoError(t, err)

	// Expiration turn is 4; the card survives sweeps before that.
	require.NoError(t, bank.EndOfTurn())
	assert.Len(t, store.State().PlayerByID("p1").ActiveCards, 1)

	store.UpdateGame(func(gs *state.GameState) { gs.GlobalTurn = 4 })
	require.NoError(t, bank.EndOfTurn())
	assert.Empty(t, store.State().PlayerByID("p1").ActiveCards)
}

func TestEndOfTurnAppliesTickModifier(t *testing.T) {
	bank, store, _ := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeLife, 2)
	require.NoError(t, err)
	_, err = bank.PlayCard("p1", "L001")
	require.NoError(t, err)

	before := store.State().PlayerByID("p1").TimeSpent
	require.NoError(t, bank.EndOfTurn())
	after := store.State().PlayerByID("p1").TimeSpent

	// L001 carries a +1 tick modifier while active.
	assert.Equal(t, before+1, after)
}

func TestCardConservationAcrossMixedOperations(t *testing.T) {
	bank, store, svc := newTestBank(t)

	_, err := bank.DrawCards("p1", data.CardTypeExpeditor, 2)
	require.NoError(t, err)
	_, err = bank.DrawCards("p2", data.CardTypeExpeditor, 2)
	require.NoError(t, err)
	require.NoError(t, bank.TransferCard("p1", "p2", "E003"))
	_, err = bank.PlayCard("p2", "E001")
	require.NoError(t, err)
	require.NoError(t, bank.DiscardCard("p2", "E003"))

	assertConservation(t, store.State(), svc, data.CardTypeExpeditor)
}
