// Package data exposes the read-only, already-validated game data tables:
// per-space configuration, movement rows, dice outcomes, space and dice
// effects, narrative content and the card catalogue. Loading and parsing of
// the raw files happens outside the engine; this package only defines the
// typed records and lookup access.
package data

// CardType is the closed set of card types in the catalogue.
type CardType string

const (
	CardTypeWork      CardType = "W"
	CardTypeBank      CardType = "B"
	CardTypeExpeditor CardType = "E"
	CardTypeLife      CardType = "L"
	CardTypeInvestor  CardType = "I"
)

// AllCardTypes lists every card type in catalogue order.
var AllCardTypes = []CardType{CardTypeWork, CardTypeBank, CardTypeExpeditor, CardTypeLife, CardTypeInvestor}

// VisitType selects which row of the movement/effect/content tables applies
// to a player's current occupancy of a space.
type VisitType string

const (
	VisitFirst      VisitType = "First"
	VisitSubsequent VisitType = "Subsequent"
)

// MovementType is the movement mode of a (space, visit-type) row.
type MovementType string

const (
	MovementFixed  MovementType = "fixed"
	MovementChoice MovementType = "choice"
	MovementDice   MovementType = "dice"
	MovementNone   MovementType = "none"
)

// SpaceConfig is one row of the game configuration table.
type SpaceConfig struct {
	SpaceName        string
	Phase            string // e.g. SETUP, DESIGN, CONSTRUCTION, REGULATORY
	PathType         string
	IsStartingSpace  bool
	IsEndingSpace    bool
	RequiresDiceRoll bool
}

// MovementRow is one row of the movement table.
type MovementRow struct {
	SpaceName    string
	VisitType    VisitType
	MovementType MovementType
	Destinations []string // up to 5; empty for MovementNone and MovementDice
}

// DiceOutcomeRow maps each die face to a destination for dice movement.
type DiceOutcomeRow struct {
	SpaceName    string
	VisitType    VisitType
	Destinations [6]string // index 0 = roll of 1
}

// SpaceEffectRow is one declarative arrival/manual effect for a space.
type SpaceEffectRow struct {
	SpaceName   string
	VisitType   VisitType
	EffectType  string // "time", "money", "cards", "quality", "fee"
	Action      string // "add", "deduct", "draw", "discard", ...
	Value       string // numeric, percentage ("5%") or free token
	CardType    CardType
	Condition   string // "", "scope_le_4m", "scope_gt_4m", "per_200k", ...
	Description string
	TriggerType string // "auto" (arrival) or "manual"
}

// DiceEffectRow is one dice-conditioned effect: the value applied depends on
// the rolled face.
type DiceEffectRow struct {
	SpaceName  string
	VisitType  VisitType
	EffectType string
	Action     string
	CardType   CardType
	RollValues [6]string // index 0 = roll of 1; empty = no effect for that face
}

// SpaceContentRow carries the narrative text and negotiability flag.
type SpaceContentRow struct {
	SpaceName          string
	VisitType          VisitType
	Title              string
	Story              string
	ActionDescription  string
	OutcomeDescription string
	CanNegotiate       bool
}

// CardDefinition is the immutable definition of a card, keyed by ID.
// Card instances circulating through decks and hands are the IDs themselves.
type CardDefinition struct {
	CardID           string
	CardName         string
	CardType         CardType
	Description      string
	Cost             int
	PhaseRestriction string // "", "Any", or a phase name
	Duration         int    // turns the effect persists after play; 0 = immediate
	Transferable     bool
	Target           string // "Self", "All Players", "Choose Opponent"

	// Financial mechanics (B/I/W cards)
	LoanAmount       int
	LoanRate         int // percent
	InvestmentAmount int
	WorkCost         int

	// Companion effects applied on play
	MoneyEffect  string
	TickModifier int
	DrawCards    string // "<count> <type>", e.g. "2 E"
	DiscardCards string
}
