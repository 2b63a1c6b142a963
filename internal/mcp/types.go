package mcp

import (
	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/casefile"
	"github.com/rpggio/padron/internal/domain/fleet"
	"github.com/rpggio/padron/internal/domain/permit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
)

// Dates are accepted as YYYY-MM-DD or RFC 3339.

type IDParams struct {
	ID string `json:"id" jsonschema:"record id"`
}

type MutationParams struct {
	ID              string `json:"id" jsonschema:"record id"`
	Reason          string `json:"reason,omitempty" jsonschema:"why the change is made; required for delete"`
	ExpectedVersion int64  `json:"expected_version,omitempty" jsonschema:"fail with CONFLICT unless the stored version matches"`
}

type ChildrenParams struct {
	ID    string       `json:"id" jsonschema:"parent record id"`
	Scope record.Scope `json:"scope,omitempty" jsonschema:"ACTIVE_ONLY (default), DELETED_ONLY or ALL"`
}

type AtParams struct {
	At string `json:"at,omitempty" jsonschema:"reference instant; defaults to now"`
}

type AuditLogParams struct {
	RecordID string           `json:"record_id,omitempty" jsonschema:"return the full history of one record, oldest first"`
	Entity   audit.EntityKind `json:"entity,omitempty" jsonschema:"entity kind stream to list, newest first"`
	Kind     audit.EventKind  `json:"kind,omitempty" jsonschema:"CREATE, UPDATE, DELETE, RESTORE or PURGE"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

type CompanyGetParams struct {
	ID  string `json:"id,omitempty"`
	RUC string `json:"ruc,omitempty"`
}

type CompanyListParams struct {
	Scope          record.Scope `json:"scope,omitempty" jsonschema:"ACTIVE_ONLY (default), DELETED_ONLY or ALL"`
	IncludeDeleted bool         `json:"include_deleted,omitempty"`
	OnlyDeleted    bool         `json:"only_deleted,omitempty"`
	Status         fleet.Status `json:"status,omitempty"`
	Text           string       `json:"text,omitempty"`
	Page           int          `json:"page,omitempty"`
	PageSize       int          `json:"page_size,omitempty"`
}

type CompanyCreateParams struct {
	RUC        string       `json:"ruc" jsonschema:"11 digit taxpayer number"`
	LegalName  string       `json:"legal_name"`
	Address    string       `json:"address,omitempty"`
	Status     fleet.Status `json:"status,omitempty"`
	VehicleIDs []string     `json:"vehicle_ids,omitempty"`
	DriverIDs  []string     `json:"driver_ids,omitempty"`
}

type CompanyUpdateParams struct {
	ID              string        `json:"id"`
	ExpectedVersion int64         `json:"expected_version,omitempty"`
	LegalName       *string       `json:"legal_name,omitempty"`
	Address         *string       `json:"address,omitempty"`
	Status          *fleet.Status `json:"status,omitempty"`
	VehicleIDs      []string      `json:"vehicle_ids,omitempty"`
	DriverIDs       []string      `json:"driver_ids,omitempty"`
}

type VehicleGetParams struct {
	ID    string `json:"id,omitempty"`
	Plate string `json:"plate,omitempty"`
}

type VehicleListParams struct {
	Scope          record.Scope `json:"scope,omitempty"`
	IncludeDeleted bool         `json:"include_deleted,omitempty"`
	OnlyDeleted    bool         `json:"only_deleted,omitempty"`
	CompanyID      string       `json:"company_id,omitempty"`
	ResolutionID   string       `json:"resolution_id,omitempty"`
	Status         fleet.Status `json:"status,omitempty"`
	Text           string       `json:"text,omitempty"`
	Page           int          `json:"page,omitempty"`
	PageSize       int          `json:"page_size,omitempty"`
}

type VehicleCreateParams struct {
	Plate        string       `json:"plate"`
	CompanyID    string       `json:"company_id"`
	ResolutionID string       `json:"resolution_id,omitempty" jsonschema:"resolution the vehicle operates under"`
	Make         string       `json:"make,omitempty"`
	Model        string       `json:"model,omitempty"`
	Year         int          `json:"year,omitempty"`
	Seats        int          `json:"seats,omitempty"`
	Status       fleet.Status `json:"status,omitempty"`
}

type VehicleUpdateParams struct {
	ID              string        `json:"id"`
	ExpectedVersion int64         `json:"expected_version,omitempty"`
	CompanyID       *string       `json:"company_id,omitempty"`
	ResolutionID    *string       `json:"resolution_id,omitempty"`
	Make            *string       `json:"make,omitempty"`
	Model           *string       `json:"model,omitempty"`
	Year            *int          `json:"year,omitempty"`
	Seats           *int          `json:"seats,omitempty"`
	Status          *fleet.Status `json:"status,omitempty"`
}

type DriverGetParams struct {
	ID             string `json:"id,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
}

type DriverListParams struct {
	Scope           record.Scope `json:"scope,omitempty"`
	IncludeDeleted  bool         `json:"include_deleted,omitempty"`
	OnlyDeleted     bool         `json:"only_deleted,omitempty"`
	CompanyID       string       `json:"company_id,omitempty"`
	LicenseCategory string       `json:"license_category,omitempty"`
	ExpiringBefore  string       `json:"expiring_before,omitempty" jsonschema:"keep drivers whose license expires before this date"`
	Text            string       `json:"text,omitempty"`
	Page            int          `json:"page,omitempty"`
	PageSize        int          `json:"page_size,omitempty"`
}

type DriverCreateParams struct {
	DocumentNumber  string `json:"document_number"`
	FullName        string `json:"full_name"`
	LicenseNumber   string `json:"license_number"`
	LicenseCategory string `json:"license_category"`
	LicenseExpiry   string `json:"license_expiry"`
	CompanyID       string `json:"company_id,omitempty"`
}

type DriverUpdateParams struct {
	ID              string  `json:"id"`
	ExpectedVersion int64   `json:"expected_version,omitempty"`
	FullName        *string `json:"full_name,omitempty"`
	LicenseNumber   *string `json:"license_number,omitempty"`
	LicenseCategory *string `json:"license_category,omitempty"`
	LicenseExpiry   *string `json:"license_expiry,omitempty"`
	CompanyID       *string `json:"company_id,omitempty"`
}

type RouteGetParams struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
}

type RouteListParams struct {
	Scope          record.Scope `json:"scope,omitempty"`
	IncludeDeleted bool         `json:"include_deleted,omitempty"`
	OnlyDeleted    bool         `json:"only_deleted,omitempty"`
	CompanyID      string       `json:"company_id,omitempty"`
	ResolutionID   string       `json:"resolution_id,omitempty"`
	Status         fleet.Status `json:"status,omitempty"`
	Text           string       `json:"text,omitempty"`
	Page           int          `json:"page,omitempty"`
	PageSize       int          `json:"page_size,omitempty"`
}

type RouteCreateParams struct {
	Code         string       `json:"code"`
	Origin       string       `json:"origin"`
	Destination  string       `json:"destination"`
	Stops        []string     `json:"stops,omitempty"`
	CompanyID    string       `json:"company_id"`
	ResolutionID string       `json:"resolution_id,omitempty"`
	Status       fleet.Status `json:"status,omitempty"`
}

type RouteUpdateParams struct {
	ID              string        `json:"id"`
	ExpectedVersion int64         `json:"expected_version,omitempty"`
	Origin          *string       `json:"origin,omitempty"`
	Destination     *string       `json:"destination,omitempty"`
	Stops           []string      `json:"stops,omitempty"`
	CompanyID       *string       `json:"company_id,omitempty"`
	ResolutionID    *string       `json:"resolution_id,omitempty"`
	Status          *fleet.Status `json:"status,omitempty"`
}

type ResolutionGetParams struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type ResolutionListParams struct {
	Scope              record.Scope             `json:"scope,omitempty"`
	IncludeDeleted     bool                     `json:"include_deleted,omitempty"`
	OnlyDeleted        bool                     `json:"only_deleted,omitempty"`
	Number             string                   `json:"number,omitempty"`
	CompanyID          string                   `json:"company_id,omitempty" jsonschema:"matches parents of the company and their children"`
	Kind               resolution.Kind          `json:"kind,omitempty"`
	ParentResolutionID string                   `json:"parent_resolution_id,omitempty"`
	ProcedureType      resolution.ProcedureType `json:"procedure_type,omitempty"`
	Active             *bool                    `json:"active,omitempty"`
	IssuedFrom         string                   `json:"issued_from,omitempty"`
	IssuedTo           string                   `json:"issued_to,omitempty"`
	Text               string                   `json:"text,omitempty"`
	Page               int                      `json:"page,omitempty"`
	PageSize           int                      `json:"page_size,omitempty"`
}

type ResolutionCreateParams struct {
	Number             string                   `json:"number"`
	Kind               resolution.Kind          `json:"kind,omitempty" jsonschema:"PARENT (default) or CHILD"`
	CompanyID          string                   `json:"company_id,omitempty" jsonschema:"required for PARENT, forbidden for CHILD"`
	ParentResolutionID string                   `json:"parent_resolution_id,omitempty" jsonschema:"required for CHILD"`
	ProcedureType      resolution.ProcedureType `json:"procedure_type"`
	Description        string                   `json:"description,omitempty"`
	IssueDate          string                   `json:"issue_date"`
	ValidityStart      string                   `json:"validity_start"`
	ValidityEnd        string                   `json:"validity_end"`
	CaseFileID         string                   `json:"case_file_id,omitempty"`
	DocumentID         string                   `json:"document_id,omitempty"`
	Active             *bool                    `json:"active,omitempty" jsonschema:"defaults to true"`
}

type ResolutionUpdateParams struct {
	ID                 string                    `json:"id"`
	ExpectedVersion    int64                     `json:"expected_version,omitempty"`
	Number             *string                   `json:"number,omitempty"`
	CompanyID          *string                   `json:"company_id,omitempty"`
	ParentResolutionID *string                   `json:"parent_resolution_id,omitempty"`
	ProcedureType      *resolution.ProcedureType `json:"procedure_type,omitempty"`
	Description        *string                   `json:"description,omitempty"`
	IssueDate          *string                   `json:"issue_date,omitempty"`
	ValidityStart      *string                   `json:"validity_start,omitempty"`
	ValidityEnd        *string                   `json:"validity_end,omitempty"`
	CaseFileID         *string                   `json:"case_file_id,omitempty"`
	DocumentID         *string                   `json:"document_id,omitempty"`
	Active             *bool                     `json:"active,omitempty"`
}

type PermitGetParams struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type PermitListParams struct {
	Scope              record.Scope `json:"scope,omitempty"`
	IncludeDeleted     bool         `json:"include_deleted,omitempty"`
	OnlyDeleted        bool         `json:"only_deleted,omitempty"`
	Number             string       `json:"number,omitempty"`
	VehicleID          string       `json:"vehicle_id,omitempty"`
	CompanyID          string       `json:"company_id,omitempty"`
	ParentResolutionID string       `json:"parent_resolution_id,omitempty"`
	State              permit.State `json:"state,omitempty"`
	ExpiringBefore     string       `json:"expiring_before,omitempty"`
	Text               string       `json:"text,omitempty"`
	Page               int          `json:"page,omitempty"`
	PageSize           int          `json:"page_size,omitempty"`
}

type PermitCreateParams struct {
	Number             string `json:"number,omitempty" jsonschema:"generated as T-NNNNNN-YYYY when omitted"`
	VehicleID          string `json:"vehicle_id"`
	CompanyID          string `json:"company_id"`
	ParentResolutionID string `json:"parent_resolution_id,omitempty"`
	IssueDate          string `json:"issue_date"`
	ExpiryDate         string `json:"expiry_date"`
	DocumentID         string `json:"document_id,omitempty"`
	VerificationURL    string `json:"verification_url,omitempty"`
}

type PermitUpdateParams struct {
	ID                 string  `json:"id"`
	ExpectedVersion    int64   `json:"expected_version,omitempty"`
	VehicleID          *string `json:"vehicle_id,omitempty"`
	ParentResolutionID *string `json:"parent_resolution_id,omitempty"`
	IssueDate          *string `json:"issue_date,omitempty"`
	ExpiryDate         *string `json:"expiry_date,omitempty"`
	DocumentID         *string `json:"document_id,omitempty"`
	VerificationURL    *string `json:"verification_url,omitempty"`
}

type PermitStateParams struct {
	ID              string       `json:"id"`
	State           permit.State `json:"state"`
	Reason          string       `json:"reason,omitempty" jsonschema:"required for WITHDRAWN and DISCARDED"`
	ExpectedVersion int64        `json:"expected_version,omitempty"`
}

type CaseFileGetParams struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type CaseFileListParams struct {
	Scope          record.Scope      `json:"scope,omitempty"`
	IncludeDeleted bool              `json:"include_deleted,omitempty"`
	OnlyDeleted    bool              `json:"only_deleted,omitempty"`
	Number         string            `json:"number,omitempty"`
	Subject        casefile.Subject  `json:"subject,omitempty"`
	ProcedureType  string            `json:"procedure_type,omitempty"`
	State          casefile.State    `json:"state,omitempty"`
	Priority       casefile.Priority `json:"priority,omitempty"`
	RequesterID    string            `json:"requester_id,omitempty"`
	Responsible    string            `json:"responsible,omitempty"`
	OpenedFrom     string            `json:"opened_from,omitempty"`
	OpenedTo       string            `json:"opened_to,omitempty"`
	Tag            string            `json:"tag,omitempty"`
	Text           string            `json:"text,omitempty"`
	Page           int               `json:"page,omitempty"`
	PageSize       int               `json:"page_size,omitempty"`
}

type CaseFileCreateParams struct {
	Number            string             `json:"number,omitempty" jsonschema:"E-NNNN-YYYY; generated when omitted"`
	Subject           casefile.Subject   `json:"subject,omitempty"`
	ProcedureType     string             `json:"procedure_type"`
	Requester         casefile.Requester `json:"requester"`
	Description       string             `json:"description,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	Priority          casefile.Priority  `json:"priority,omitempty" jsonschema:"defaults to MEDIUM"`
	Responsible       string             `json:"responsible,omitempty"`
	DueDate           string             `json:"due_date,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	FinalResolutionID string             `json:"final_resolution_id,omitempty"`
	ParentCaseFileID  string             `json:"parent_case_file_id,omitempty" jsonschema:"links the new case file under this parent"`
}

type CaseFileUpdateParams struct {
	ID                string              `json:"id"`
	ExpectedVersion   int64               `json:"expected_version,omitempty"`
	Subject           *casefile.Subject   `json:"subject,omitempty"`
	ProcedureType     *string             `json:"procedure_type,omitempty"`
	Requester         *casefile.Requester `json:"requester,omitempty"`
	Description       *string             `json:"description,omitempty"`
	Notes             *string             `json:"notes,omitempty"`
	Priority          *casefile.Priority  `json:"priority,omitempty"`
	Responsible       *string             `json:"responsible,omitempty"`
	DueDate           *string             `json:"due_date,omitempty"`
	Tags              []string            `json:"tags,omitempty"`
	FinalResolutionID *string             `json:"final_resolution_id,omitempty"`
}

type TransitionParams struct {
	ID              string         `json:"id"`
	ToState         casefile.State `json:"to_state"`
	Notes           string         `json:"notes,omitempty"`
	ExpectedVersion int64          `json:"expected_version,omitempty"`
}

type AddTrackingParams struct {
	ID          string `json:"id"`
	Action      string `json:"action" jsonschema:"short label such as DOCUMENT_REQUEST"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

type LinkChildParams struct {
	ID      string `json:"id" jsonschema:"parent case file id"`
	ChildID string `json:"child_id"`
}

// Responses wrap arrays so structured content is always an object.

type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

type PurgeResponse struct {
	ID     string `json:"id"`
	Purged bool   `json:"purged"`
}

type VerifyResponse struct {
	ID         string `json:"id"`
	Consistent bool   `json:"consistent"`
}

type CompanyResponse struct {
	ResolutionID string `json:"resolution_id"`
	CompanyID    string `json:"company_id"`
}

type LinkResponse struct {
	Parent casefile.CaseFile `json:"parent"`
	Child  casefile.CaseFile `json:"child"`
}

type TransitionsResponse struct {
	ID         string           `json:"id"`
	State      casefile.State   `json:"state"`
	Successors []casefile.State `json:"successors"`
}
