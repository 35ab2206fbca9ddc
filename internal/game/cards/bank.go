// Package cards implements the stateful card bank: per-type decks and
// discard piles, hand lifecycle, transfers and expiration of duration cards.
// The bank owns card identity: an id lives in exactly one of a deck, a
// discard pile or one player's hand at any time. Draws and plays are single
// state transitions, never compositions of reads over different revisions.
package cards

import (
	"fmt"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/resources"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Bank manages decks, discard piles and hands through the store.
type Bank struct {
	store  *state.Store
	data   data.Service
	ledger *resources.Ledger
	logger *zap.Logger
}

// NewBank creates a card bank.
func NewBank(store *state.Store, dataSvc data.Service, ledger *resources.Ledger, logger *zap.Logger) *Bank {
	return &Bank{store: store, data: dataSvc, ledger: ledger, logger: logger}
}

// BuildDecks returns the initial per-type decks in catalogue order. The last
// element of each slice is the top of the deck.
func BuildDecks(dataSvc data.Service) map[data.CardType][]string {
	decks := make(map[data.CardType][]string, len(data.AllCardTypes))
	for _, cardType := range data.AllCardTypes {
		defs := dataSvc.CardsByType(cardType)
		ids := make([]string, 0, len(defs))
		for _, def := range defs {
			ids = append(ids, def.CardID)
		}
		decks[cardType] = ids
	}
	return decks
}

// DrawCards pops up to count ids from the top of the type's deck and appends
// them to the player's hand in one state transition. An exhausted deck is a
// short draw, not an error; a future reshuffle-from-discard policy is an
// open question in the data design, not implemented here.
func (b *Bank) DrawCards(playerID string, cardType data.CardType, count int) ([]string, error) {
	if count < 0 {
		return nil, errs.Validationf("draw count %d is negative", count)
	}
	var drawn []string
	var found bool
	b.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil {
			return
		}
		found = true
		drawn = popTop(gs.Decks, cardType, count)
		if len(drawn) == 0 {
			return
		}
		if p.Hand == nil {
			p.Hand = make(map[data.CardType][]string)
		}
		p.Hand[cardType] = append(p.Hand[cardType], drawn...)
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "card_draw",
			Description: fmt.Sprintf("Drew %d %s card%s", len(drawn), cardType, plural(len(drawn))),
			IsCommitted: true,
		})
	})
	if !found {
		return nil, &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	if b.logger != nil {
		b.logger.Debug("drew cards",
			zap.String("player_id", playerID),
			zap.String("card_type", string(cardType)),
			zap.Int("requested", count),
			zap.Int("drawn", len(drawn)),
		)
	}
	return drawn, nil
}

// popTop removes up to count ids from the top (end) of the type's deck.
func popTop(decks map[data.CardType][]string, cardType data.CardType, count int) []string {
	deck := decks[cardType]
	if count > len(deck) {
		count = len(deck)
	}
	if count == 0 {
		return nil
	}
	drawn := make([]string, count)
	for i := 0; i < count; i++ {
		drawn[i] = deck[len(deck)-1-i]
	}
	decks[cardType] = deck[:len(deck)-count]
	return drawn
}

// CanPlayCard checks ownership, phase restriction and affordability without
// mutating. The phase restriction compares the card's required phase against
// the phase of the player's current space; "Any" or empty always passes.
func (b *Bank) CanPlayCard(playerID, cardID string) error {
	p, err := b.store.Player(playerID)
	if err != nil {
		return err
	}
	if _, owned := p.OwnsCard(cardID); !owned {
		return &errs.NotFoundError{Kind: "card", ID: cardID}
	}
	def, err := b.data.Card(cardID)
	if err != nil {
		return err
	}
	if def.PhaseRestriction != "" && def.PhaseRestriction != "Any" {
		cfg, err := b.data.SpaceConfig(p.CurrentSpace)
		if err != nil {
			return err
		}
		if cfg.Phase != def.PhaseRestriction {
			return errs.Validationf("card %s requires phase %s but current space phase is %s",
				def.CardName, def.PhaseRestriction, cfg.Phase)
		}
	}
	if def.Cost > 0 && p.Money < def.Cost {
		return errs.Validationf("cannot play %s: costs $%d, player has $%d",
			def.CardName, def.Cost, p.Money)
	}
	return nil
}

// PlayCard validates and plays a card from the player's hand. In a single
// state transition the card leaves the hand for its type's discard pile, the
// cost is deducted, financial side effects (loans, investments) are recorded
// and a duration card is registered as active with
// expirationTurn = current global turn + duration.
func (b *Bank) PlayCard(playerID, cardID string) (data.CardDefinition, error) {
	if err := b.CanPlayCard(playerID, cardID); err != nil {
		return data.CardDefinition{}, err
	}
	def, err := b.data.Card(cardID)
	if err != nil {
		return data.CardDefinition{}, err
	}

	b.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil {
			return
		}
		if !removeFromHand(p, def.CardType, cardID) {
			return
		}
		gs.DiscardPiles[def.CardType] = append(gs.DiscardPiles[def.CardType], cardID)

		if def.Cost > 0 {
			p.Money -= def.Cost
			if p.Money < 0 {
				p.Money = 0
			}
		}
		applyFinancials(p, def)
		if def.Duration > 0 {
			p.ActiveCards = append(p.ActiveCards, state.ActiveCard{
				CardID:         cardID,
				ExpirationTurn: gs.GlobalTurn + def.Duration,
			})
		}
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "card_play",
			Description: fmt.Sprintf("Played %s", def.CardName),
			IsCommitted: true,
		})
	})

	if b.logger != nil {
		b.logger.Info("played card",
			zap.String("player_id", playerID),
			zap.String("card_id", cardID),
			zap.String("card_name", def.CardName),
		)
	}
	return def, nil
}

// applyFinancials records the loan/investment side of B and I cards.
func applyFinancials(p *state.Player, def data.CardDefinition) {
	if def.LoanAmount > 0 {
		p.Loans = append(p.Loans, state.Loan{Principal: def.LoanAmount, Rate: def.LoanRate})
		p.Money += def.LoanAmount
	}
	if def.InvestmentAmount > 0 {
		p.Money += def.InvestmentAmount
	}
}

// DiscardCard moves a card from the player's hand to its type's discard pile.
func (b *Bank) DiscardCard(playerID, cardID string) error {
	def, err := b.data.Card(cardID)
	if err != nil {
		return err
	}
	var found, owned bool
	b.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil {
			return
		}
		found = true
		if !removeFromHand(p, def.CardType, cardID) {
			return
		}
		owned = true
		gs.DiscardPiles[def.CardType] = append(gs.DiscardPiles[def.CardType], cardID)
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "card_discard",
			Description: fmt.Sprintf("Discarded %s", def.CardName),
			IsCommitted: true,
		})
	})
	if !found {
		return &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	if !owned {
		return &errs.NotFoundError{Kind: "card", ID: cardID}
	}
	return nil
}

// TransferCard atomically moves a card from one player's hand to another's.
// The card is never left in neither hand or in both.
func (b *Bank) TransferCard(fromID, toID, cardID string) error {
	if fromID == toID {
		return errs.Validationf("cannot transfer a card to yourself")
	}
	def, err := b.data.Card(cardID)
	if err != nil {
		return err
	}
	if !def.Transferable {
		return errs.Validationf("%s cards are not transferable", def.CardType)
	}

	var fromFound, toFound, owned bool
	b.store.UpdateGame(func(gs *state.GameState) {
		from := gs.PlayerByID(fromID)
		to := gs.PlayerByID(toID)
		fromFound, toFound = from != nil, to != nil
		if from == nil || to == nil {
			return
		}
		if !removeFromHand(from, def.CardType, cardID) {
			return
		}
		owned = true
		if to.Hand == nil {
			to.Hand = make(map[data.CardType][]string)
		}
		to.Hand[def.CardType] = append(to.Hand[def.CardType], cardID)
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    fromID,
			Type:        "card_transfer",
			Description: fmt.Sprintf("Transferred %s to %s", def.CardName, to.Name),
			IsCommitted: true,
		})
	})
	if !fromFound {
		return &errs.NotFoundError{Kind: "player", ID: fromID}
	}
	if !toFound {
		return &errs.NotFoundError{Kind: "player", ID: toID}
	}
	if !owned {
		return &errs.NotFoundError{Kind: "card", ID: cardID}
	}
	return nil
}

// DrawAndApplyCard draws the top card of a type and immediately applies its
// play semantics, all in one state transition. This exists because a draw
// followed by a separate play observed two different state revisions and
// could fail with "card not found" in between.
func (b *Bank) DrawAndApplyCard(playerID string, cardType data.CardType) (data.CardDefinition, error) {
	var def data.CardDefinition
	var found, drawn bool
	var defErr error
	b.store.UpdateGame(func(gs *state.GameState) {
		p := gs.PlayerByID(playerID)
		if p == nil {
			return
		}
		found = true
		ids := popTop(gs.Decks, cardType, 1)
		if len(ids) == 0 {
			return
		}
		drawn = true
		cardID := ids[0]
		def, defErr = b.data.Card(cardID)
		if defErr != nil {
			// Put the id back rather than losing it.
			gs.Decks[cardType] = append(gs.Decks[cardType], cardID)
			return
		}
		// Applied cards skip the cost check: they are events, not purchases.
		gs.DiscardPiles[cardType] = append(gs.DiscardPiles[cardType], cardID)
		applyFinancials(p, def)
		if def.TickModifier != 0 && def.Duration == 0 {
			p.TimeSpent += def.TickModifier
			if p.TimeSpent < 0 {
				p.TimeSpent = 0
			}
		}
		if def.Duration > 0 {
			p.ActiveCards = append(p.ActiveCards, state.ActiveCard{
				CardID:         cardID,
				ExpirationTurn: gs.GlobalTurn + def.Duration,
			})
		}
		gs.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "card_play",
			Description: fmt.Sprintf("Drew and applied %s", def.CardName),
			IsCommitted: true,
		})
	})
	if !found {
		return data.CardDefinition{}, &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	if defErr != nil {
		return data.CardDefinition{}, defErr
	}
	if !drawn {
		return data.CardDefinition{}, errs.Validationf("the %s deck is exhausted", cardType)
	}
	return def, nil
}

// EndOfTurn sweeps every player's active cards, applying per-turn tick
// modifiers of cards still in force and removing entries whose expiration
// turn has been reached. Exactly one update is issued per affected player.
func (b *Bank) EndOfTurn() error {
	gs := b.store.State()
	for _, p := range gs.Players {
		if len(p.ActiveCards) == 0 {
			continue
		}
		playerID := p.ID
		var expired []string
		if _, err := b.store.UpdatePlayer(playerID, func(pl *state.Player) {
			kept := pl.ActiveCards[:0]
			for _, ac := range pl.ActiveCards {
				if ac.ExpirationTurn <= gs.GlobalTurn {
					expired = append(expired, ac.CardID)
					continue
				}
				if def, err := b.data.Card(ac.CardID); err == nil && def.TickModifier != 0 {
					pl.TimeSpent += def.TickModifier
					if pl.TimeSpent < 0 {
						pl.TimeSpent = 0
					}
				}
				kept = append(kept, ac)
			}
			pl.ActiveCards = kept
		}); err != nil {
			return err
		}
		if len(expired) > 0 && b.logger != nil {
			b.logger.Debug("expired active cards",
				zap.String("player_id", playerID),
				zap.Strings("card_ids", expired),
			)
		}
	}
	return nil
}

func removeFromHand(p *state.Player, cardType data.CardType, cardID string) bool {
	ids := p.Hand[cardType]
	for i, id := range ids {
		if id == cardID {
			p.Hand[cardType] = append(ids[:i:i], ids[i+1:]...)
			return true
		}
	}
	return false
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
