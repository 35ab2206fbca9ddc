package choices

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Negotiator runs the offer/counter-offer state machine. One negotiation is
// active at a time per game. Offered cards are escrowed out of the offering
// player's hand into the negotiation's held pool, so withdrawal and
// acceptance both have a single source of truth.
type Negotiator struct {
	store  *state.Store
	data   data.Service
	logger *zap.Logger
}

// NewNegotiator creates a negotiation coordinator.
func NewNegotiator(store *state.Store, dataSvc data.Service, logger *zap.Logger) *Negotiator {
	return &Negotiator{store: store, data: dataSvc, logger: logger}
}

// Active returns a copy of the active negotiation, or nil.
func (n *Negotiator) Active() *state.Negotiation {
	return n.store.State().ActiveNegotiation
}

// Initiate opens a new negotiation. Rejected while one is already active.
func (n *Negotiator) Initiate(playerID, context string) (*state.Negotiation, error) {
	gs := n.store.State()
	if gs.ActiveNegotiation != nil {
		return nil, errs.Conflictf("a negotiation is already in progress")
	}
	if gs.PlayerByID(playerID) == nil {
		return nil, &errs.NotFoundError{Kind: "player", ID: playerID}
	}

	neg := &state.Negotiation{
		ID:            uuid.NewString(),
		InitiatorID:   playerID,
		Status:        state.NegotiationPending,
		Context:       context,
		EscrowedCards: map[string][]string{},
	}
	n.store.UpdateGame(func(next *state.GameState) {
		next.ActiveNegotiation = neg.Clone()
		next.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "negotiation",
			Description: "Opened a negotiation",
			IsCommitted: true,
		})
	})
	return neg, nil
}

// MakeOffer records an offer. The offering player must own every referenced
// card; offered cards move out of the hand into escrow in the same state
// transition as the offer record.
func (n *Negotiator) MakeOffer(playerID string, cardIDs []string, money int) error {
	gs := n.store.State()
	if gs.ActiveNegotiation == nil {
		return errs.Conflictf("no negotiation is active")
	}
	p := gs.PlayerByID(playerID)
	if p == nil {
		return &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	if money < 0 {
		return errs.Validationf("offered money cannot be negative")
	}
	if money > p.Money {
		return errs.Validationf("cannot offer $%d: player has $%d", money, p.Money)
	}

	types := make(map[string]data.CardType, len(cardIDs))
	for _, cardID := range cardIDs {
		cardType, owned := p.OwnsCard(cardID)
		if !owned {
			return &errs.NotFoundError{Kind: "card", ID: cardID}
		}
		def, err := n.data.Card(cardID)
		if err != nil {
			return err
		}
		if !def.Transferable {
			return errs.Validationf("%s cards are not transferable", def.CardType)
		}
		types[cardID] = cardType
	}

	n.store.UpdateGame(func(next *state.GameState) {
		neg := next.ActiveNegotiation
		pl := next.PlayerByID(playerID)
		if neg == nil || pl == nil {
			return
		}
		for _, cardID := range cardIDs {
			removeFromHand(pl, types[cardID], cardID)
			neg.EscrowedCards[playerID] = append(neg.EscrowedCards[playerID], cardID)
		}
		neg.Status = state.NegotiationInProgress
		neg.Offers = append(neg.Offers, state.Offer{
			PlayerID:  playerID,
			CardIDs:   append([]string(nil), cardIDs...),
			Money:     money,
			Timestamp: time.Now(),
		})
		next.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "negotiation",
			Description: fmt.Sprintf("Offered %d card(s) and $%d", len(cardIDs), money),
			IsCommitted: true,
		})
	})
	return nil
}

// Accept applies the agreed exchange atomically and clears the negotiation.
// Each party's escrowed cards move to the other party, and the money from
// each party's latest offer transfers to the other, all in one state
// transition.
func (n *Negotiator) Accept(acceptingPlayerID string) error {
	gs := n.store.State()
	neg := gs.ActiveNegotiation
	if neg == nil {
		return errs.Conflictf("no negotiation is active")
	}
	acceptor := gs.PlayerByID(acceptingPlayerID)
	if acceptor == nil {
		return &errs.NotFoundError{Kind: "player", ID: acceptingPlayerID}
	}
	if len(neg.Offers) == 0 {
		return errs.Conflictf("nothing has been offered yet")
	}

	initiatorID := neg.InitiatorID
	otherID := acceptingPlayerID
	if otherID == initiatorID {
		// The initiator accepting means the latest counter-offer stands; the
		// counterparty is the most recent non-initiator offerer.
		for i := len(neg.Offers) - 1; i >= 0; i-- {
			if neg.Offers[i].PlayerID != initiatorID {
				otherID = neg.Offers[i].PlayerID
				break
			}
		}
		if otherID == initiatorID {
			return errs.Conflictf("no counterparty has made an offer")
		}
	}

	n.store.UpdateGame(func(next *state.GameState) {
		active := next.ActiveNegotiation
		if active == nil {
			return
		}
		n.exchange(next, active, initiatorID, otherID)
		active.Status = state.NegotiationAccepted
		next.ActiveNegotiation = nil
		next.AppendLogEntry(state.LogEntry{
			PlayerID:    acceptingPlayerID,
			Type:        "negotiation",
			Description: "Accepted the negotiation",
			IsCommitted: true,
		})
	})

	if n.logger != nil {
		n.logger.Info("negotiation accepted",
			zap.String("negotiation_id", neg.ID),
			zap.String("accepted_by", acceptingPlayerID),
		)
	}
	return nil
}

// exchange moves escrowed cards to the opposite party and settles the money
// legs of each party's latest offer.
func (n *Negotiator) exchange(gs *state.GameState, neg *state.Negotiation, aID, bID string) {
	give := func(fromID, toID string) {
		to := gs.PlayerByID(toID)
		if to == nil {
			return
		}
		for _, cardID := range neg.EscrowedCards[fromID] {
			if def, err := n.data.Card(cardID); err == nil {
				if to.Hand == nil {
					to.Hand = make(map[data.CardType][]string)
				}
				to.Hand[def.CardType] = append(to.Hand[def.CardType], cardID)
			}
		}
		delete(neg.EscrowedCards, fromID)
	}
	give(aID, bID)
	give(bID, aID)

	latestMoney := func(playerID string) int {
		for i := len(neg.Offers) - 1; i >= 0; i-- {
			if neg.Offers[i].PlayerID == playerID {
				return neg.Offers[i].Money
			}
		}
		return 0
	}
	settle := func(fromID, toID string) {
		amount := latestMoney(fromID)
		if amount <= 0 {
			return
		}
		from, to := gs.PlayerByID(fromID), gs.PlayerByID(toID)
		if from == nil || to == nil {
			return
		}
		if amount > from.Money {
			amount = from.Money
		}
		from.Money -= amount
		to.Money += amount
	}
	settle(aID, bID)
	settle(bID, aID)
}

// Reject returns every escrowed card to its original owner and clears the
// negotiation.
func (n *Negotiator) Reject(playerID string) error {
	gs := n.store.State()
	if gs.ActiveNegotiation == nil {
		return errs.Conflictf("no negotiation is active")
	}

	n.store.UpdateGame(func(next *state.GameState) {
		neg := next.ActiveNegotiation
		if neg == nil {
			return
		}
		for ownerID, cardIDs := range neg.EscrowedCards {
			owner := next.PlayerByID(ownerID)
			if owner == nil {
				continue
			}
			for _, cardID := range cardIDs {
				if def, err := n.data.Card(cardID); err == nil {
					if owner.Hand == nil {
						owner.Hand = make(map[data.CardType][]string)
					}
					owner.Hand[def.CardType] = append(owner.Hand[def.CardType], cardID)
				}
			}
		}
		neg.Status = state.NegotiationRejected
		next.ActiveNegotiation = nil
		next.AppendLogEntry(state.LogEntry{
			PlayerID:    playerID,
			Type:        "negotiation",
			Description: "Rejected the negotiation",
			IsCommitted: true,
		})
	})
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
