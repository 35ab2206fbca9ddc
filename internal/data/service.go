package data

import (
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
)

// Service is the read-only access surface the engine consumes. All tables are
// loaded and validated before the engine starts.
type Service interface {
	SpaceConfig(spaceName string) (SpaceConfig, error)
	AllSpaceConfigs() []SpaceConfig
	Movement(spaceName string, visit VisitType) (MovementRow, error)
	DiceOutcome(spaceName string, visit VisitType) (DiceOutcomeRow, bool)
	SpaceEffects(spaceName string, visit VisitType) []SpaceEffectRow
	DiceEffects(spaceName string, visit VisitType) []DiceEffectRow
	SpaceContent(spaceName string, visit VisitType) (SpaceContentRow, error)
	Card(cardID string) (CardDefinition, error)
	CardsByType(cardType CardType) []CardDefinition
	StartingSpace() string
}

type visitKey struct {
	space string
	visit VisitType
}

// StaticService is an in-memory Service built from pre-validated records.
type StaticService struct {
	configs       map[string]SpaceConfig
	configOrder   []string
	movement      map[visitKey]MovementRow
	diceOutcomes  map[visitKey]DiceOutcomeRow
	spaceEffects  map[visitKey][]SpaceEffectRow
	diceEffects   map[visitKey][]DiceEffectRow
	content       map[visitKey]SpaceContentRow
	cards         map[string]CardDefinition
	cardsByType   map[CardType][]CardDefinition
	startingSpace string
}

// Tables bundles the record slices a StaticService is built from.
type Tables struct {
	Configs      []SpaceConfig
	Movement     []MovementRow
	DiceOutcomes []DiceOutcomeRow
	SpaceEffects []SpaceEffectRow
	DiceEffects  []DiceEffectRow
	Content      []SpaceContentRow
	Cards        []CardDefinition
}

// NewStaticService indexes the given tables for lookup.
func NewStaticService(t Tables) *StaticService {
	s := &StaticService{
		configs:      make(map[string]SpaceConfig, len(t.Configs)),
		movement:     make(map[visitKey]MovementRow, len(t.Movement)),
		diceOutcomes: make(map[visitKey]DiceOutcomeRow, len(t.DiceOutcomes)),
		spaceEffects: make(map[visitKey][]SpaceEffectRow),
		diceEffects:  make(map[visitKey][]DiceEffectRow),
		content:      make(map[visitKey]SpaceContentRow, len(t.Content)),
		cards:        make(map[string]CardDefinition, len(t.Cards)),
		cardsByType:  make(map[CardType][]CardDefinition),
	}
	for _, cfg := range t.Configs {
		if _, seen := s.configs[cfg.SpaceName]; !seen {
			s.configOrder = append(s.configOrder, cfg.SpaceName)
		}
		s.configs[cfg.SpaceName] = cfg
		if cfg.IsStartingSpace && s.startingSpace == "" {
			s.startingSpace = cfg.SpaceName
		}
	}
	for _, row := range t.Movement {
		s.movement[visitKey{row.SpaceName, row.VisitType}] = row
	}
	for _, row := range t.DiceOutcomes {
		s.diceOutcomes[visitKey{row.SpaceName, row.VisitType}] = row
	}
	for _, row := range t.SpaceEffects {
		k := visitKey{row.SpaceName, row.VisitType}
		s.spaceEffects[k] = append(s.spaceEffects[k], row)
	}
	for _, row := range t.DiceEffects {
		k := visitKey{row.SpaceName, row.VisitType}
		s.diceEffects[k] = append(s.diceEffects[k], row)
	}
	for _, row := range t.Content {
		s.content[visitKey{row.SpaceName, row.VisitType}] = row
	}
	for _, card := range t.Cards {
		s.cards[card.CardID] = card
		s.cardsByType[card.CardType] = append(s.cardsByType[card.CardType], card)
	}
	return s
}

// SpaceConfig returns the configuration row for a space.
func (s *StaticService) SpaceConfig(spaceName string) (SpaceConfig, error) {
	cfg, ok := s.configs[spaceName]
	if !ok {
		return SpaceConfig{}, errs.Integrityf("space %s missing from game configuration", spaceName)
	}
	return cfg, nil
}

// AllSpaceConfigs returns every configuration row in table order.
func (s *StaticService) AllSpaceConfigs() []SpaceConfig {
	out := make([]SpaceConfig, 0, len(s.configOrder))
	for _, name := range s.configOrder {
		out = append(out, s.configs[name])
	}
	return out
}

// Movement returns the movement row for (space, visit-type). A space present
// in the configuration but absent from the movement table is a data defect.
func (s *StaticService) Movement(spaceName string, visit VisitType) (MovementRow, error) {
	if row, ok := s.movement[visitKey{spaceName, visit}]; ok {
		return row, nil
	}
	// Fall back to the First row when only one row is defined for the space.
	if row, ok := s.movement[visitKey{spaceName, VisitFirst}]; ok {
		return row, nil
	}
	return MovementRow{}, errs.Integrityf("no movement row for space %s (visit %s)", spaceName, visit)
}

// DiceOutcome returns the dice destination table for (space, visit-type).
func (s *StaticService) DiceOutcome(spaceName string, visit VisitType) (DiceOutcomeRow, bool) {
	if row, ok := s.diceOutcomes[visitKey{spaceName, visit}]; ok {
		return row, true
	}
	row, ok := s.diceOutcomes[visitKey{spaceName, VisitFirst}]
	return row, ok
}

// SpaceEffects returns the declarative effects for (space, visit-type).
func (s *StaticService) SpaceEffects(spaceName string, visit VisitType) []SpaceEffectRow {
	return s.spaceEffects[visitKey{spaceName, visit}]
}

// DiceEffects returns the dice-conditioned effects for (space, visit-type).
func (s *StaticService) DiceEffects(spaceName string, visit VisitType) []DiceEffectRow {
	return s.diceEffects[visitKey{spaceName, visit}]
}

// SpaceContent returns the narrative/negotiability row for (space, visit-type).
func (s *StaticService) SpaceContent(spaceName string, visit VisitType) (SpaceContentRow, error) {
	if row, ok := s.content[visitKey{spaceName, visit}]; ok {
		return row, nil
	}
	if row, ok := s.content[visitKey{spaceName, VisitFirst}]; ok {
		return row, nil
	}
	return SpaceContentRow{}, errs.Integrityf("no content row for space %s (visit %s)", spaceName, visit)
}

// Card returns a card definition by ID.
func (s *StaticService) Card(cardID string) (CardDefinition, error) {
	card, ok := s.cards[cardID]
	if !ok {
		return CardDefinition{}, &errs.NotFoundError{Kind: "card", ID: cardID}
	}
	return card, nil
}

// CardsByType returns every card definition of a type in catalogue order.
func (s *StaticService) CardsByType(cardType CardType) []CardDefinition {
	return s.cardsByType[cardType]
}

// StartingSpace returns the first space flagged as a starting space.
func (s *StaticService) StartingSpace() string {
	return s.startingSpace
}
