// Package effects interprets the declarative effect descriptors found in the
// space, dice and card tables, applying them through the resource ledger and
// card bank. Effects within a batch are independent: one failing descriptor
// never rolls back the ones already applied.
package effects

import (
	"strconv"
	"strings"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
)

// Kind is the closed set of effect kinds.
type Kind string

const (
	KindTime    Kind = "time"
	KindMoney   Kind = "money"
	KindCards   Kind = "cards"
	KindQuality Kind = "quality"
	KindUnknown Kind = "unknown"
)

// Effect is a fully parsed effect descriptor. RawValue keeps the table text
// for messages; Value/Parsed carry the numeric interpretation, if any.
type Effect struct {
	Kind        Kind
	Action      string
	RawValue    string
	Value       int
	Parsed      bool
	Percent     bool
	CardType    data.CardType
	Condition   string
	Target      string
	Source      string
	Description string
}

func kindOf(effectType string) Kind {
	switch strings.ToLower(strings.TrimSpace(effectType)) {
	case "time":
		return KindTime
	case "money", "fee":
		return KindMoney
	case "cards", "card":
		return KindCards
	case "quality":
		return KindQuality
	default:
		return KindUnknown
	}
}

// parseValue interprets a table value. A trailing "%" marks a percentage.
// Anything non-numeric comes back with ok=false; callers fall back to the
// count actually applied rather than surfacing a parse artifact.
func parseValue(raw string) (value int, percent bool, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, false
	}
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, percent, false
	}
	return n, percent, true
}

// FromSpaceEffect builds an Effect from a space-effect row. "fee" rows are
// money deductions regardless of their action column.
func FromSpaceEffect(row data.SpaceEffectRow) Effect {
	e := Effect{
		Kind:        kindOf(row.EffectType),
		Action:      strings.ToLower(strings.TrimSpace(row.Action)),
		RawValue:    row.Value,
		CardType:    row.CardType,
		Condition:   strings.TrimSpace(row.Condition),
		Target:      "Self",
		Source:      "space:" + row.SpaceName,
		Description: row.Description,
	}
	if strings.EqualFold(strings.TrimSpace(row.EffectType), "fee") {
		e.Action = "deduct"
	}
	e.Value, e.Percent, e.Parsed = parseValue(row.Value)
	return e
}

// FromDiceEffect builds the Effect a dice-effect row prescribes for the
// rolled face. The second return is false when the face carries no effect.
func FromDiceEffect(row data.DiceEffectRow, roll int) (Effect, bool) {
	if roll < 1 || roll > 6 {
		return Effect{}, false
	}
	raw := strings.TrimSpace(row.RollValues[roll-1])
	if raw == "" || strings.EqualFold(raw, "no change") {
		return Effect{}, false
	}
	e := Effect{
		Kind:     kindOf(row.EffectType),
		Action:   strings.ToLower(strings.TrimSpace(row.Action)),
		RawValue: raw,
		CardType: row.CardType,
		Target:   "Self",
		Source:   "dice:" + row.SpaceName,
	}
	e.Value, e.Percent, e.Parsed = parseValue(raw)
	return e, true
}

// CardEffects expands a card definition into the companion effects applied
// when the card is played. The bank already handles cost, loans, investments
// and duration registration; what remains here is the money effect, one-shot
// tick modifiers, and draw/discard instructions, all carrying the card's
// declared target scope.
func CardEffects(def data.CardDefinition) []Effect {
	var out []Effect
	source := "card:" + def.CardID
	target := def.Target
	if target == "" {
		target = "Self"
	}

	if strings.TrimSpace(def.MoneyEffect) != "" {
		e := Effect{
			Kind:     KindMoney,
			Action:   "add",
			RawValue: def.MoneyEffect,
			Target:   target,
			Source:   source,
		}
		e.Value, e.Percent, e.Parsed = parseValue(def.MoneyEffect)
		if e.Parsed && e.Value < 0 {
			e.Action = "deduct"
			e.Value = -e.Value
		}
		out = append(out, e)
	}

	if def.TickModifier != 0 && def.Duration == 0 {
		action := "add"
		v := def.TickModifier
		if v < 0 {
			action = "deduct"
			v = -v
		}
		out = append(out, Effect{
			Kind:     KindTime,
			Action:   action,
			RawValue: strconv.Itoa(def.TickModifier),
			Value:    v,
			Parsed:   true,
			Target:   target,
			Source:   source,
		})
	}

	if e, ok := cardCountEffect(def.DrawCards, "draw", target, source); ok {
		out = append(out, e)
	}
	if e, ok := cardCountEffect(def.DiscardCards, "discard", target, source); ok {
		out = append(out, e)
	}
	return out
}

// cardCountEffect parses a "<count> <type>" instruction such as "2 E".
func cardCountEffect(raw, action, target, source string) (Effect, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Effect{}, false
	}
	e := Effect{
		Kind:     KindCards,
		Action:   action,
		RawValue: s,
		Target:   target,
		Source:   source,
	}
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			e.Value = n
			e.Parsed = true
		}
		e.CardType = data.CardType(strings.ToUpper(fields[len(fields)-1]))
	} else if len(fields) == 1 {
		e.CardType = data.CardType(strings.ToUpper(fields[0]))
	}
	return e, true
}
