package fleet

import (
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// Status is the operating status shared by companies, vehicles and routes.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
)

// Company is a transport operator.
type Company struct {
	record.Meta
	RUC        string   `json:"ruc" validate:"required,len=11,numeric"`
	LegalName  string   `json:"legal_name" validate:"required"`
	Address    string   `json:"address,omitempty"`
	Status     Status   `json:"status" validate:"required,oneof=ACTIVE SUSPENDED CANCELLED"`
	VehicleIDs []string `json:"vehicle_ids,omitempty"`
	DriverIDs  []string `json:"driver_ids,omitempty"`
}

func (*Company) AuditKind() audit.EntityKind { return audit.EntityCompany }

// Vehicle is a unit operated by a company under a resolution.
type Vehicle struct {
	record.Meta
	Plate        string `json:"plate" validate:"required,min=6,max=8"`
	CompanyID    string `json:"company_id" validate:"required"`
	ResolutionID string `json:"resolution_id,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         int    `json:"year,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	Seats        int    `json:"seats,omitempty" validate:"omitempty,gte=1"`
	Status       Status `json:"status" validate:"required,oneof=ACTIVE SUSPENDED CANCELLED"`
}

func (*Vehicle) AuditKind() audit.EntityKind { return audit.EntityVehicle }

// Driver is a licensed person assigned to a company.
type Driver struct {
	record.Meta
	DocumentNumber  string    `json:"document_number" validate:"required,min=8,max=12"`
	FullName        string    `json:"full_name" validate:"required"`
	LicenseNumber   string    `json:"license_number" validate:"required"`
	LicenseCategory string    `json:"license_category" validate:"required"`
	LicenseExpiry   time.Time `json:"license_expiry" validate:"required"`
	CompanyID       string    `json:"company_id,omitempty"`
}

func (*Driver) AuditKind() audit.EntityKind { return audit.EntityDriver }

// Route is an authorized itinerary of a company.
type Route struct {
	record.Meta
	Code         string   `json:"code" validate:"required"`
	Origin       string   `json:"origin" validate:"required"`
	Destination  string   `json:"destination" validate:"required,nefield=Origin"`
	Stops        []string `json:"stops,omitempty"`
	CompanyID    string   `json:"company_id" validate:"required"`
	ResolutionID string   `json:"resolution_id,omitempty"`
	Status       Status   `json:"status" validate:"required,oneof=ACTIVE SUSPENDED CANCELLED"`
}

func (*Route) AuditKind() audit.EntityKind { return audit.EntityRoute }
