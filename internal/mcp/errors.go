package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Entity       string `json:"entity,omitempty"`
	ID           string `json:"id,omitempty"`
	State        string `json:"state,omitempty"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL without leaking their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	apiErr := &APIError{Message: err.Error()}
	var recErr *record.Error
	if errors.As(err, &recErr) {
		apiErr.Entity = string(recErr.Entity)
		apiErr.ID = recErr.ID
		apiErr.State = recErr.State
	}

	switch {
	case errors.Is(err, record.ErrAuditIncomplete):
		apiErr.Code = "AUDIT_INCOMPLETE"
		apiErr.RecoveryHint = "The change was saved but its audit event is missing; report it, do not retry"
	case errors.Is(err, record.ErrNotFound):
		apiErr.Code = "NOT_FOUND"
		apiErr.RecoveryHint = "Check the id, or list with scope ALL to include deleted records"
	case errors.Is(err, record.ErrConflict):
		apiErr.Code = "CONFLICT"
		apiErr.RecoveryHint = "Fetch the record again and check its state and version"
	case errors.Is(err, record.ErrInvalidTransition):
		apiErr.Code = "INVALID_TRANSITION"
		apiErr.RecoveryHint = "Call casefile_transitions for the allowed next states"
	case errors.Is(err, record.ErrInconsistent):
		apiErr.Code = "INCONSISTENT"
		apiErr.RecoveryHint = "A referenced record is missing or mismatched; repair the reference"
	case errors.Is(err, record.ErrInvalidInput), errors.Is(err, audit.ErrInvalidInput):
		apiErr.Code = "INVALID_INPUT"
		apiErr.RecoveryHint = "Fix the arguments and retry"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		apiErr.Code = "CANCELED"
	default:
		apiErr.Code = "INTERNAL"
		apiErr.Message = "internal error"
	}
	return apiErr
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", record.ErrInvalidInput, fmt.Sprintf(format, args...))
}
