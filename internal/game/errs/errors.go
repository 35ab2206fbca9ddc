// Package errs defines the typed error taxonomy shared by the game engine
// components. Leaf components return these directly; orchestration layers
// convert them into user-facing command results.
package errs

import "fmt"

// NotFoundError reports an unknown player, card, space or game reference.
type NotFoundError struct {
	Kind string // "player", "card", "space", "game"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError reports a rule violation: unaffordable cost, wrong phase,
// non-transferable card type, invalid destination, malformed selection.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateConflictError reports an operation attempted while its preconditions
// are unmet: a pending choice blocking turn end, an active negotiation
// blocking a new one.
type StateConflictError struct {
	Msg string
}

func (e *StateConflictError) Error() string {
	return e.Msg
}

// Conflictf builds a StateConflictError from a format string.
func Conflictf(format string, args ...interface{}) *StateConflictError {
	return &StateConflictError{Msg: fmt.Sprintf(format, args...)}
}

// DataIntegrityError reports a referenced card/space/effect missing from the
// loaded data tables. Should not occur given valid data; fatal if it does.
type DataIntegrityError struct {
	Msg string
}

func (e *DataIntegrityError) Error() string {
	return e.Msg
}

// Integrityf builds a DataIntegrityError from a format string.
func Integrityf(format string, args ...interface{}) *DataIntegrityError {
	return &DataIntegrityError{Msg: fmt.Sprintf(format, args...)}
}

// NoSnapshotError reports a revert attempted with no snapshot present for the
// player's current space. Non-fatal, surfaced to the caller.
type NoSnapshotError struct {
	PlayerID string
	Space    string
}

func (e *NoSnapshotError) Error() string {
	return fmt.Sprintf("no snapshot for player %s at space %s", e.PlayerID, e.Space)
}

// NotNegotiableError reports a try-again attempted on a space whose content
// record does not permit it.
type NotNegotiableError struct {
	Space string
}

func (e *NotNegotiableError) Error() string {
	return fmt.Sprintf("space %s does not allow negotiation", e.Space)
}

// InvalidMoveError reports a destination outside the player's legal move set.
type InvalidMoveError struct {
	PlayerID    string
	Destination string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid destination %s for player %s", e.Destination, e.PlayerID)
}
