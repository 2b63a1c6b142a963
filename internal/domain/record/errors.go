package record

import (
	"errors"
	"fmt"

	"github.com/rpggio/padron/internal/domain/audit"
)

var (
	// ErrNotFound indicates the record doesn't exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the record's state or version forbids the operation.
	ErrConflict = errors.New("record state conflict")
	// ErrInvalidTransition indicates a workflow state change outside the allowed successors.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInconsistent indicates a dangling reference between records.
	ErrInconsistent = errors.New("inconsistent record reference")
	// ErrInvalidInput indicates invalid input for record operations.
	ErrInvalidInput = errors.New("invalid record input")
)

// Error describes a failed record operation. It unwraps to one of the
// sentinel kinds above.
type Error struct {
	Kind    error
	Entity  audit.EntityKind
	ID      string
	State   string
	Message string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s %s", e.Kind, e.Entity, e.ID)
	if e.State != "" {
		msg += fmt.Sprintf(" (state %s)", e.State)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// NotFound builds an ErrNotFound failure.
func NotFound(entity audit.EntityKind, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

// Conflict builds an ErrConflict failure.
func Conflict(entity audit.EntityKind, id, state, message string) error {
	return &Error{Kind: ErrConflict, Entity: entity, ID: id, State: state, Message: message}
}

// InvalidTransition builds an ErrInvalidTransition failure.
func InvalidTransition(entity audit.EntityKind, id, from, to string) error {
	return &Error{Kind: ErrInvalidTransition, Entity: entity, ID: id, State: from, Message: "cannot move to " + to}
}

// Inconsistent builds an ErrInconsistent failure.
func Inconsistent(entity audit.EntityKind, id, message string) error {
	return &Error{Kind: ErrInconsistent, Entity: entity, ID: id, Message: message}
}

// Invalid builds an ErrInvalidInput failure.
func Invalid(entity audit.EntityKind, id, message string) error {
	return &Error{Kind: ErrInvalidInput, Entity: entity, ID: id, Message: message}
}
