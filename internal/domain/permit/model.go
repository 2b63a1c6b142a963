package permit

import (
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// State is the circulation status of a permit.
type State string

const (
	StateValid     State = "VALID"
	StateExpired   State = "EXPIRED"
	StateWithdrawn State = "WITHDRAWN"
	StateDiscarded State = "DISCARDED"
	StateSuspended State = "SUSPENDED"
)

// States lists every permit state.
var States = []State{StateValid, StateExpired, StateWithdrawn, StateDiscarded, StateSuspended}

// RequiresReason reports whether entering s needs a discard reason.
func (s State) RequiresReason() bool {
	return s == StateDiscarded || s == StateWithdrawn
}

// Permit is a circulation authorization (TUC) for one vehicle.
type Permit struct {
	record.Meta
	Number             string    `json:"number" validate:"required"`
	VehicleID          string    `json:"vehicle_id" validate:"required"`
	CompanyID          string    `json:"company_id" validate:"required"`
	ParentResolutionID string    `json:"parent_resolution_id,omitempty"`
	IssueDate          time.Time `json:"issue_date" validate:"required"`
	ExpiryDate         time.Time `json:"expiry_date" validate:"required,gtfield=IssueDate"`
	State              State     `json:"state" validate:"required,oneof=VALID EXPIRED WITHDRAWN DISCARDED SUSPENDED"`
	DiscardReason      string    `json:"discard_reason,omitempty"`
	DocumentID         string    `json:"document_id,omitempty"`
	VerificationURL    string    `json:"verification_url,omitempty" validate:"omitempty,url"`
}

func (*Permit) AuditKind() audit.EntityKind { return audit.EntityPermit }

// Filter selects permits for listing.
type Filter struct {
	Scope              record.Scope
	Number             string
	VehicleID          string
	CompanyID          string
	ParentResolutionID string
	State              State
	// ExpiringBefore keeps permits whose expiry date is before the instant.
	ExpiringBefore *time.Time
	Text           string
	Page           int
	PageSize       int
}

// Patch lists the mutable fields of a permit. State changes go through
// ChangeState.
type Patch struct {
	VehicleID          *string
	ParentResolutionID *string
	IssueDate          *time.Time
	ExpiryDate         *time.Time
	DocumentID         *string
	VerificationURL    *string
}

// Stats counts live permits by state.
type Stats struct {
	Total   int           `json:"total"`
	ByState map[State]int `json:"by_state"`
}
