package casefile

import (
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// Priority orders case files for attention.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Subject is the kind of record a case file is about.
type Subject string

const (
	SubjectCompany    Subject = "COMPANY"
	SubjectVehicle    Subject = "VEHICLE"
	SubjectDriver     Subject = "DRIVER"
	SubjectRoute      Subject = "ROUTE"
	SubjectPermit     Subject = "PERMIT"
	SubjectResolution Subject = "RESOLUTION"
	SubjectOther      Subject = "OTHER"
)

// RequesterType distinguishes companies from natural persons.
type RequesterType string

const (
	RequesterCompany RequesterType = "COMPANY"
	RequesterPerson  RequesterType = "PERSON"
)

// Requester identifies who filed a case.
type Requester struct {
	Type     RequesterType `json:"type" validate:"required,oneof=COMPANY PERSON"`
	ID       string        `json:"id" validate:"required"`
	Name     string        `json:"name" validate:"required"`
	Document string        `json:"document" validate:"required"`
}

// Tracking actions recorded by the service.
const (
	ActionCreated     = "CREATED"
	ActionStateChange = "STATE_CHANGE"
	ActionLinkedChild = "LINKED_CHILD"
)

// TrackingEntry is one immutable line of a case file's history.
type TrackingEntry struct {
	At          time.Time `json:"at"`
	User        string    `json:"user"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	FromState   State     `json:"from_state,omitempty"`
	ToState     State     `json:"to_state,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// CaseFile is an administrative case (expediente) moving through the
// workflow in workflow.go.
type CaseFile struct {
	record.Meta
	Number            string          `json:"number" validate:"required"`
	Subject           Subject         `json:"subject,omitempty" validate:"omitempty,oneof=COMPANY VEHICLE DRIVER ROUTE PERMIT RESOLUTION OTHER"`
	ProcedureType     string          `json:"procedure_type" validate:"required"`
	State             State           `json:"state" validate:"required"`
	Requester         Requester       `json:"requester"`
	Description       string          `json:"description,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Priority          Priority        `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Responsible       string          `json:"responsible,omitempty"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	OpenedAt          time.Time       `json:"opened_at"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	FinalResolutionID string          `json:"final_resolution_id,omitempty"`
	ParentCaseFileID  string          `json:"parent_case_file_id,omitempty"`
	ChildCaseFileIDs  []string        `json:"child_case_file_ids,omitempty"`
	Tracking          []TrackingEntry `json:"tracking"`
}

func (*CaseFile) AuditKind() audit.EntityKind { return audit.EntityCaseFile }

// Filter selects case files for listing.
type Filter struct {
	Scope         record.Scope
	Number        string
	Subject       Subject
	ProcedureType string
	State         State
	Priority      Priority
	RequesterID   string
	Responsible   string
	OpenedFrom    *time.Time
	OpenedTo      *time.Time
	Tag           string
	Text          string
	Page          int
	PageSize      int
}

// Patch lists the fields editable outside the workflow. State and tracking
// change only through Transition and AddTracking.
type Patch struct {
	Subject           *Subject
	ProcedureType     *string
	Requester         *Requester
	Description       *string
	Notes             *string
	Priority          *Priority
	Responsible       *string
	DueDate           *time.Time
	Tags              []string
	FinalResolutionID *string
}

// Stats summarizes live case files at an instant.
type Stats struct {
	Total      int              `json:"total"`
	ByState    map[State]int    `json:"by_state"`
	ByPriority map[Priority]int `json:"by_priority"`
	BySubject  map[Subject]int  `json:"by_subject"`
	Overdue    int              `json:"overdue"`
	Urgent     int              `json:"urgent"`
	// AverageResolutionDays is the mean time from opening to closing over
	// closed case files; zero when none is closed.
	AverageResolutionDays float64 `json:"average_resolution_days"`
}
