// Package state defines the authoritative game state container and the
// copy-on-write Store that owns it. All other engine components mutate state
// exclusively through the Store; callers holding a previously returned state
// never observe later mutations through it.
package state

import (
	"time"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
)

// GamePhase is the coarse lifecycle phase of a game.
type GamePhase string

const (
	GamePhaseSetup GamePhase = "SETUP"
	GamePhasePlay  GamePhase = "PLAY"
	GamePhaseEnd   GamePhase = "END"
)

// TurnPhase is the turn-sequencing state machine position.
type TurnPhase string

const (
	TurnPhaseArrival TurnPhase = "AWAITING_ARRIVAL_PROCESSING"
	TurnPhaseActions TurnPhase = "AWAITING_PLAYER_ACTIONS"
	TurnPhaseChoice  TurnPhase = "AWAITING_CHOICE"
	TurnPhaseTurnEnd TurnPhase = "AWAITING_TURN_END"
)

// ActiveCard is a played duration card whose effect persists until the
// recorded global turn is reached.
type ActiveCard struct {
	CardID         string `json:"card_id"`
	ExpirationTurn int    `json:"expiration_turn"`
}

// Loan records an outstanding loan used by per-principal scaling effects.
type Loan struct {
	Principal int `json:"principal"`
	Rate      int `json:"rate"`
}

// TurnModifiers holds per-turn adjustments applied to a player.
type TurnModifiers struct {
	SkipTurns int `json:"skip_turns"`
}

// Player is one participant's full state.
type Player struct {
	ID            string                     `json:"id"`
	Name          string                     `json:"name"`
	Color         string                     `json:"color"`
	CurrentSpace  string                     `json:"current_space"`
	CurrentVisit  data.VisitType             `json:"current_visit"`
	VisitedSpaces []string                   `json:"visited_spaces"`
	Money         int                        `json:"money"`
	TimeSpent     int                        `json:"time_spent"`
	Hand          map[data.CardType][]string `json:"hand"`
	ActiveCards   []ActiveCard               `json:"active_cards"`
	TurnModifiers TurnModifiers              `json:"turn_modifiers"`
	Loans         []Loan                     `json:"loans"`
	LastDiceRoll  int                        `json:"last_dice_roll"` // 0 = no roll this turn
	UsedManual    bool                       `json:"used_manual"`    // space's manual action spent this stay
	TurnCount     int                        `json:"turn_count"`
	Finished      bool                       `json:"finished"`
}

// HasVisited reports whether the player has previously recorded a visit to
// the named space.
func (p *Player) HasVisited(space string) bool {
	for _, s := range p.VisitedSpaces {
		if s == space {
			return true
		}
	}
	return false
}

// OwnsCard reports whether cardID is in the player's hand and if so its type.
func (p *Player) OwnsCard(cardID string) (data.CardType, bool) {
	for cardType, ids := range p.Hand {
		for _, id := range ids {
			if id == cardID {
				return cardType, true
			}
		}
	}
	return "", false
}

// TotalLoanPrincipal sums the principal of every active loan.
func (p *Player) TotalLoanPrincipal() int {
	total := 0
	for _, loan := range p.Loans {
		total += loan.Principal
	}
	return total
}

// ChoiceType categorizes a pending decision.
type ChoiceType string

const (
	ChoiceMovement      ChoiceType = "movement"
	ChoiceCardSelection ChoiceType = "card_selection"
	ChoiceTargeting     ChoiceType = "targeting"
)

// Choice is a pending decision a player must make. Its presence in GameState
// blocks turn advancement until resolved.
type Choice struct {
	ID       string     `json:"id"`
	Type     ChoiceType `json:"type"`
	PlayerID string     `json:"player_id"`
	Options  []string   `json:"options"`
	Reason   string     `json:"reason"`
}

// NegotiationStatus is the lifecycle state of a negotiation.
type NegotiationStatus string

const (
	NegotiationPending    NegotiationStatus = "pending"
	NegotiationInProgress NegotiationStatus = "in_progress"
	NegotiationAccepted   NegotiationStatus = "accepted"
	NegotiationRejected   NegotiationStatus = "rejected"
)

// Offer is one entry in a negotiation's offer history.
type Offer struct {
	PlayerID  string    `json:"player_id"`
	CardIDs   []string  `json:"card_ids"`
	Money     int       `json:"money"`
	Timestamp time.Time `json:"timestamp"`
}

// Negotiation is a multi-party offer/counter-offer exchange. Offered cards
// are escrowed out of the offering player's hand into EscrowedCards so that
// withdrawal and acceptance are both well-defined.
type Negotiation struct {
	ID            string              `json:"id"`
	InitiatorID   string              `json:"initiator_id"`
	Status        NegotiationStatus   `json:"status"`
	Context       string              `json:"context"`
	Offers        []Offer             `json:"offers"`
	EscrowedCards map[string][]string `json:"escrowed_cards"` // player id -> card ids held
}

// Log entry visibility tags.
const (
	VisibilityPlayer = "player"
	VisibilitySystem = "system"
)

// ActionLogEntry is one row of the append-only, chronologically ordered game
// history. Entries created during a try-again exploration carry the session
// id and are only marked committed once the turn advances, so abandoned
// attempts can be excluded from the canonical history without being destroyed.
type ActionLogEntry struct {
	ID                   string    `json:"id"`
	Timestamp            time.Time `json:"timestamp"`
	PlayerID             string    `json:"player_id"`
	PlayerName           string    `json:"player_name"`
	GlobalTurn           int       `json:"global_turn"`
	PlayerTurn           int       `json:"player_turn"`
	Type                 string    `json:"type"`
	Description          string    `json:"description"`
	Visibility           string    `json:"visibility"`
	ExplorationSessionID string    `json:"exploration_session_id,omitempty"`
	IsCommitted          bool      `json:"is_committed"`
}

// Snapshot is a saved full copy of game state taken at space entry, used to
// support "try again". It persists across repeated reverts until the turn is
// advanced. The embedded state carries no snapshots of its own.
type Snapshot struct {
	PlayerID  string     `json:"player_id"`
	SpaceName string     `json:"space_name"`
	TakenAt   time.Time  `json:"taken_at"`
	State     *GameState `json:"state"`
}

// GameState is the root, versioned state container.
type GameState struct {
	GameID            string                     `json:"game_id"`
	Players           []*Player                  `json:"players"`
	CurrentPlayerID   string                     `json:"current_player_id"`
	GamePhase         GamePhase                  `json:"game_phase"`
	TurnPhase         TurnPhase                  `json:"turn_phase"`
	GlobalTurn        int                        `json:"global_turn"`
	PendingChoice     *Choice                    `json:"pending_choice,omitempty"`
	ActiveNegotiation *Negotiation               `json:"active_negotiation,omitempty"`
	Decks             map[data.CardType][]string `json:"decks"`
	DiscardPiles      map[data.CardType][]string `json:"discard_piles"`
	Snapshots         map[string]*Snapshot       `json:"snapshots"`
	ActionLog         []ActionLogEntry           `json:"action_log"`
	ActionsLocked     bool                       `json:"actions_locked"`
	FinishOrder       []string                   `json:"finish_order"`

	// CurrentExplorationID tags log entries appended during the active
	// turn attempt. Entries carrying it stay uncommitted until the turn
	// advances, so a try-again revert leaves the abandoned attempt in the
	// log without polluting the canonical history.
	CurrentExplorationID string `json:"current_exploration_id,omitempty"`
}

// PlayerByID returns the player with the given id, or nil.
func (gs *GameState) PlayerByID(id string) *Player {
	for _, p := range gs.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn is active, or nil.
func (gs *GameState) CurrentPlayer() *Player {
	return gs.PlayerByID(gs.CurrentPlayerID)
}

// NextPlayerID returns the id of the player after the given one in seating
// order, wrapping around and skipping players who have finished. Returns the
// given id when no other eligible player remains.
func (gs *GameState) NextPlayerID(afterID string) string {
	idx := -1
	for i, p := range gs.Players {
		if p.ID == afterID {
			idx = i
			break
		}
	}
	if idx == -1 || len(gs.Players) == 0 {
		return afterID
	}
	for offset := 1; offset <= len(gs.Players); offset++ {
		candidate := gs.Players[(idx+offset)%len(gs.Players)]
		if !candidate.Finished {
			return candidate.ID
		}
	}
	return afterID
}
