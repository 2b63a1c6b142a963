package fleet

import (
	"time"

	"github.com/rpggio/padron/internal/domain/record"
)

// CompanyFilter selects companies for listing.
type CompanyFilter struct {
	Scope    record.Scope
	Status   Status
	Text     string
	Page     int
	PageSize int
}

// VehicleFilter selects vehicles for listing.
type VehicleFilter struct {
	Scope        record.Scope
	CompanyID    string
	ResolutionID string
	Status       Status
	Text         string
	Page         int
	PageSize     int
}

// DriverFilter selects drivers for listing.
type DriverFilter struct {
	Scope           record.Scope
	CompanyID       string
	LicenseCategory string
	// ExpiringBefore keeps drivers whose license expires before the instant.
	ExpiringBefore *time.Time
	Text           string
	Page           int
	PageSize       int
}

// RouteFilter selects routes for listing.
type RouteFilter struct {
	Scope        record.Scope
	CompanyID    string
	ResolutionID string
	Status       Status
	Text         string
	Page         int
	PageSize     int
}

// CompanyPatch lists the mutable company fields; nil leaves a field as is.
type CompanyPatch struct {
	LegalName  *string
	Address    *string
	Status     *Status
	VehicleIDs []string
	DriverIDs  []string
}

// VehiclePatch lists the mutable vehicle fields.
type VehiclePatch struct {
	CompanyID    *string
	ResolutionID *string
	Make         *string
	Model        *string
	Year         *int
	Seats        *int
	Status       *Status
}

// DriverPatch lists the mutable driver fields.
type DriverPatch struct {
	FullName        *string
	LicenseNumber   *string
	LicenseCategory *string
	LicenseExpiry   *time.Time
	CompanyID       *string
}

// RoutePatch lists the mutable route fields.
type RoutePatch struct {
	Origin       *string
	Destination  *string
	Stops        []string
	CompanyID    *string
	ResolutionID *string
	Status       *Status
}

func (p CompanyPatch) apply(c *Company) error {
	setIf(&c.LegalName, p.LegalName)
	setIf(&c.Address, p.Address)
	setIf(&c.Status, p.Status)
	if p.VehicleIDs != nil {
		c.VehicleIDs = p.VehicleIDs
	}
	if p.DriverIDs != nil {
		c.DriverIDs = p.DriverIDs
	}
	return nil
}

func (p VehiclePatch) apply(v *Vehicle) error {
	setIf(&v.CompanyID, p.CompanyID)
	setIf(&v.ResolutionID, p.ResolutionID)
	setIf(&v.Make, p.Make)
	setIf(&v.Model, p.Model)
	setIf(&v.Year, p.Year)
	setIf(&v.Seats, p.Seats)
	setIf(&v.Status, p.Status)
	return nil
}

func (p DriverPatch) apply(d *Driver) error {
	setIf(&d.FullName, p.FullName)
	setIf(&d.LicenseNumber, p.LicenseNumber)
	setIf(&d.LicenseCategory, p.LicenseCategory)
	setIf(&d.LicenseExpiry, p.LicenseExpiry)
	setIf(&d.CompanyID, p.CompanyID)
	return nil
}

func (p RoutePatch) apply(r *Route) error {
	setIf(&r.Origin, p.Origin)
	setIf(&r.Destination, p.Destination)
	setIf(&r.CompanyID, p.CompanyID)
	setIf(&r.ResolutionID, p.ResolutionID)
	setIf(&r.Status, p.Status)
	if p.Stops != nil {
		r.Stops = p.Stops
	}
	return nil
}

func setIf[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}
