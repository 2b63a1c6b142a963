package resolution

import (
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// Kind places a resolution in the hierarchy.
type Kind string

const (
	KindParent Kind = "PARENT"
	KindChild  Kind = "CHILD"
)

// ProcedureType is the administrative procedure a resolution decides.
type ProcedureType string

const (
	ProcedureVehicleLicensing ProcedureType = "HABILITACION_VEHICULAR"
	ProcedureIncrease         ProcedureType = "INCREMENTO"
	ProcedureSubstitution     ProcedureType = "SUSTITUCION"
	ProcedureRenewal          ProcedureType = "RENOVACION_HABILITACION_VEHICULAR"
)

// Resolution is an administrative decision. A PARENT belongs to a company;
// a CHILD derives from exactly one PARENT and inherits its company.
type Resolution struct {
	record.Meta
	Number             string        `json:"number" validate:"required"`
	Kind               Kind          `json:"kind" validate:"required,oneof=PARENT CHILD"`
	CompanyID          string        `json:"company_id,omitempty"`
	ParentResolutionID string        `json:"parent_resolution_id,omitempty"`
	ProcedureType      ProcedureType `json:"procedure_type" validate:"required,oneof=HABILITACION_VEHICULAR INCREMENTO SUSTITUCION RENOVACION_HABILITACION_VEHICULAR"`
	Description        string        `json:"description,omitempty"`
	IssueDate          time.Time     `json:"issue_date" validate:"required"`
	ValidityStart      time.Time     `json:"validity_start" validate:"required"`
	ValidityEnd        time.Time     `json:"validity_end" validate:"required"`
	CaseFileID         string        `json:"case_file_id,omitempty"`
	DocumentID         string        `json:"document_id,omitempty"`
	Active             bool          `json:"active"`
}

func (*Resolution) AuditKind() audit.EntityKind { return audit.EntityResolution }

// InForce reports whether the validity window covers at.
func (r *Resolution) InForce(at time.Time) bool {
	return !at.Before(r.ValidityStart) && !at.After(r.ValidityEnd)
}

// Filter selects resolutions for listing.
type Filter struct {
	Scope  record.Scope
	Number string
	// CompanyID matches parents of the company and children of those parents.
	CompanyID          string
	Kind               Kind
	ParentResolutionID string
	ProcedureType      ProcedureType
	Active             *bool
	IssuedFrom         *time.Time
	IssuedTo           *time.Time
	Text               string
	Page               int
	PageSize           int
}

// Patch lists the mutable fields of a resolution. Kind cannot change.
type Patch struct {
	Number             *string
	CompanyID          *string
	ParentResolutionID *string
	ProcedureType      *ProcedureType
	Description        *string
	IssueDate          *time.Time
	ValidityStart      *time.Time
	ValidityEnd        *time.Time
	CaseFileID         *string
	DocumentID         *string
	Active             *bool
}

// Report summarizes resolutions at an instant.
type Report struct {
	Total       int                   `json:"total"`
	Active      int                   `json:"active"`
	InForce     int                   `json:"in_force"`
	Expired     int                   `json:"expired"`
	Parents     int                   `json:"parents"`
	Children    int                   `json:"children"`
	ByProcedure map[ProcedureType]int `json:"by_procedure"`
}
