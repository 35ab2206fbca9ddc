package state

import "github.com/tomaszsb/Code2027-sub004/internal/data"

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.VisitedSpaces = append([]string(nil), p.VisitedSpaces...)
	cp.ActiveCards = append([]ActiveCard(nil), p.ActiveCards...)
	cp.Loans = append([]Loan(nil), p.Loans...)
	cp.Hand = cloneHand(p.Hand)
	return &cp
}

func cloneHand(hand map[data.CardType][]string) map[data.CardType][]string {
	if hand == nil {
		return nil
	}
	out := make(map[data.CardType][]string, len(hand))
	for cardType, ids := range hand {
		out[cardType] = append([]string(nil), ids...)
	}
	return out
}

func clonePiles(piles map[data.CardType][]string) map[data.CardType][]string {
	if piles == nil {
		return nil
	}
	out := make(map[data.CardType][]string, len(piles))
	for cardType, ids := range piles {
		out[cardType] = append([]string(nil), ids...)
	}
	return out
}

// Clone returns a deep copy of the choice.
func (c *Choice) Clone() *Choice {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Options = append([]string(nil), c.Options...)
	return &cp
}

// Clone returns a deep copy of the negotiation.
func (n *Negotiation) Clone() *Negotiation {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Offers = make([]Offer, len(n.Offers))
	for i, offer := range n.Offers {
		cp.Offers[i] = offer
		cp.Offers[i].CardIDs = append([]string(nil), offer.CardIDs...)
	}
	if n.EscrowedCards != nil {
		cp.EscrowedCards = make(map[string][]string, len(n.EscrowedCards))
		for id, cards := range n.EscrowedCards {
			cp.EscrowedCards[id] = append([]string(nil), cards...)
		}
	}
	return &cp
}

// Clone returns a deep copy of the snapshot, including its embedded state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.State = s.State.Clone()
	return &cp
}

// Clone returns a deep copy of the full game state. Snapshots are cloned
// too; their embedded states never carry snapshots of their own, so the
// recursion is bounded.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	cp := *gs
	cp.Players = make([]*Player, len(gs.Players))
	for i, p := range gs.Players {
		cp.Players[i] = p.Clone()
	}
	cp.PendingChoice = gs.PendingChoice.Clone()
	cp.ActiveNegotiation = gs.ActiveNegotiation.Clone()
	cp.Decks = clonePiles(gs.Decks)
	cp.DiscardPiles = clonePiles(gs.DiscardPiles)
	if gs.Snapshots != nil {
		cp.Snapshots = make(map[string]*Snapshot, len(gs.Snapshots))
		for id, snap := range gs.Snapshots {
			cp.Snapshots[id] = snap.Clone()
		}
	}
	cp.ActionLog = append([]ActionLogEntry(nil), gs.ActionLog...)
	cp.FinishOrder = append([]string(nil), gs.FinishOrder...)
	return &cp
}
