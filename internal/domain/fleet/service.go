package fleet

import (
	"context"
	"errors"
	"strings"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// CompanyService manages companies.
type CompanyService struct {
	*record.Service[Company, *Company]
}

// NewCompanyService creates a company service over cfg. The entity kind and
// validation hook are set by the service.
func NewCompanyService(cfg record.Config[Company, *Company]) *CompanyService {
	cfg.Entity = audit.EntityCompany
	cfg.Validate = func(c *Company) error {
		return record.CheckFields(audit.EntityCompany, c.ID, c)
	}
	return &CompanyService{Service: record.NewService(cfg)}
}

// Create registers a company. The RUC must not be in use by any other
// company, deleted or not.
func (s *CompanyService) Create(ctx context.Context, actor string, c Company) (Company, error) {
	c.RUC = strings.TrimSpace(c.RUC)
	if c.Status == "" {
		c.Status = StatusActive
	}
	unlock, err := s.Lock(ctx, "ruc:"+c.RUC)
	if err != nil {
		return Company{}, err
	}
	defer unlock()

	if _, err := s.GetByRUC(ctx, c.RUC); err == nil {
		return Company{}, record.Conflict(audit.EntityCompany, "", "", "ruc "+c.RUC+" already registered")
	} else if !errors.Is(err, record.ErrNotFound) {
		return Company{}, err
	}
	return s.Service.Create(ctx, actor, c)
}

// Update applies patch to a live company.
func (s *CompanyService) Update(ctx context.Context, m record.Mutation, patch CompanyPatch) (Company, error) {
	return s.Service.Update(ctx, m, patch.apply)
}

// GetByRUC returns the company registered under ruc, deleted or not.
func (s *CompanyService) GetByRUC(ctx context.Context, ruc string) (Company, error) {
	found, err := s.All(ctx, record.ScopeAll, func(c *Company) bool { return c.RUC == ruc })
	if err != nil {
		return Company{}, err
	}
	if len(found) == 0 {
		return Company{}, record.NotFound(audit.EntityCompany, "ruc:"+ruc)
	}
	return found[0], nil
}

// List returns a page of companies matching f.
func (s *CompanyService) List(ctx context.Context, f CompanyFilter) (record.Page[Company], error) {
	return s.Service.List(ctx, record.Query[Company]{
		Scope: f.Scope,
		Match: func(c *Company) bool {
			return (f.Status == "" || c.Status == f.Status) &&
				record.ContainsFold(f.Text, c.RUC, c.LegalName)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// VehicleService manages vehicles.
type VehicleService struct {
	*record.Service[Vehicle, *Vehicle]
	companies   *CompanyService
	resolutions ResolutionChecker
}

// NewVehicleService creates a vehicle service. companies and resolutions are
// consulted by Verify only.
func NewVehicleService(cfg record.Config[Vehicle, *Vehicle], companies *CompanyService, resolutions ResolutionChecker) *VehicleService {
	cfg.Entity = audit.EntityVehicle
	cfg.Validate = func(v *Vehicle) error {
		return record.CheckFields(audit.EntityVehicle, v.ID, v)
	}
	return &VehicleService{
		Service:     record.NewService(cfg),
		companies:   companies,
		resolutions: resolutions,
	}
}

// Create registers a vehicle. Plates are unique across all vehicles.
func (s *VehicleService) Create(ctx context.Context, actor string, v Vehicle) (Vehicle, error) {
	v.Plate = normalizePlate(v.Plate)
	if v.Status == "" {
		v.Status = StatusActive
	}
	unlock, err := s.Lock(ctx, "plate:"+v.Plate)
	if err != nil {
		return Vehicle{}, err
	}
	defer unlock()

	if _, err := s.GetByPlate(ctx, v.Plate); err == nil {
		return Vehicle{}, record.Conflict(audit.EntityVehicle, "", "", "plate "+v.Plate+" already registered")
	} else if !errors.Is(err, record.ErrNotFound) {
		return Vehicle{}, err
	}
	return s.Service.Create(ctx, actor, v)
}

// Update applies patch to a live vehicle.
func (s *VehicleService) Update(ctx context.Context, m record.Mutation, patch VehiclePatch) (Vehicle, error) {
	return s.Service.Update(ctx, m, patch.apply)
}

// GetByPlate returns the vehicle with the given plate, deleted or not.
func (s *VehicleService) GetByPlate(ctx context.Context, plate string) (Vehicle, error) {
	plate = normalizePlate(plate)
	found, err := s.All(ctx, record.ScopeAll, func(v *Vehicle) bool { return v.Plate == plate })
	if err != nil {
		return Vehicle{}, err
	}
	if len(found) == 0 {
		return Vehicle{}, record.NotFound(audit.EntityVehicle, "plate:"+plate)
	}
	return found[0], nil
}

// List returns a page of vehicles matching f.
func (s *VehicleService) List(ctx context.Context, f VehicleFilter) (record.Page[Vehicle], error) {
	return s.Service.List(ctx, record.Query[Vehicle]{
		Scope: f.Scope,
		Match: func(v *Vehicle) bool {
			return (f.CompanyID == "" || v.CompanyID == f.CompanyID) &&
				(f.ResolutionID == "" || v.ResolutionID == f.ResolutionID) &&
				(f.Status == "" || v.Status == f.Status) &&
				record.ContainsFold(f.Text, v.Plate, v.Make, v.Model)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// Verify checks the references held by a vehicle: its company must exist
// and, when set, its resolution must belong to that company. References are
// not enforced on write.
func (s *VehicleService) Verify(ctx context.Context, id string) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.companies != nil {
		if _, err := s.companies.Get(ctx, v.CompanyID); err != nil {
			if errors.Is(err, record.ErrNotFound) {
				return record.Inconsistent(audit.EntityVehicle, id, "company "+v.CompanyID+" not found")
			}
			return err
		}
	}
	if v.ResolutionID != "" && s.resolutions != nil {
		if err := s.resolutions.CheckReference(ctx, v.ResolutionID, v.CompanyID); err != nil {
			return err
		}
	}
	return nil
}

// DriverService manages drivers.
type DriverService struct {
	*record.Service[Driver, *Driver]
}

// NewDriverService creates a driver service over cfg.
func NewDriverService(cfg record.Config[Driver, *Driver]) *DriverService {
	cfg.Entity = audit.EntityDriver
	cfg.Validate = func(d *Driver) error {
		return record.CheckFields(audit.EntityDriver, d.ID, d)
	}
	return &DriverService{Service: record.NewService(cfg)}
}

// Create registers a driver. Document numbers are unique.
func (s *DriverService) Create(ctx context.Context, actor string, d Driver) (Driver, error) {
	d.DocumentNumber = strings.TrimSpace(d.DocumentNumber)
	unlock, err := s.Lock(ctx, "document:"+d.DocumentNumber)
	if err != nil {
		return Driver{}, err
	}
	defer unlock()

	if _, err := s.GetByDocument(ctx, d.DocumentNumber); err == nil {
		return Driver{}, record.Conflict(audit.EntityDriver, "", "", "document "+d.DocumentNumber+" already registered")
	} else if !errors.Is(err, record.ErrNotFound) {
		return Driver{}, err
	}
	return s.Service.Create(ctx, actor, d)
}

// Update applies patch to a live driver.
func (s *DriverService) Update(ctx context.Context, m record.Mutation, patch DriverPatch) (Driver, error) {
	return s.Service.Update(ctx, m, patch.apply)
}

// GetByDocument returns the driver with the given document number.
func (s *DriverService) GetByDocument(ctx context.Context, document string) (Driver, error) {
	found, err := s.All(ctx, record.ScopeAll, func(d *Driver) bool { return d.DocumentNumber == document })
	if err != nil {
		return Driver{}, err
	}
	if len(found) == 0 {
		return Driver{}, record.NotFound(audit.EntityDriver, "document:"+document)
	}
	return found[0], nil
}

// List returns a page of drivers matching f.
func (s *DriverService) List(ctx context.Context, f DriverFilter) (record.Page[Driver], error) {
	return s.Service.List(ctx, record.Query[Driver]{
		Scope: f.Scope,
		Match: func(d *Driver) bool {
			return (f.CompanyID == "" || d.CompanyID == f.CompanyID) &&
				(f.LicenseCategory == "" || d.LicenseCategory == f.LicenseCategory) &&
				(f.ExpiringBefore == nil || d.LicenseExpiry.Before(*f.ExpiringBefore)) &&
				record.ContainsFold(f.Text, d.DocumentNumber, d.FullName, d.LicenseNumber)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// RouteService manages routes.
type RouteService struct {
	*record.Service[Route, *Route]
}

// NewRouteService creates a route service over cfg.
func NewRouteService(cfg record.Config[Route, *Route]) *RouteService {
	cfg.Entity = audit.EntityRoute
	cfg.Validate = func(r *Route) error {
		return record.CheckFields(audit.EntityRoute, r.ID, r)
	}
	return &RouteService{Service: record.NewService(cfg)}
}

// Create registers a route. Codes are unique.
func (s *RouteService) Create(ctx context.Context, actor string, r Route) (Route, error) {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Status == "" {
		r.Status = StatusActive
	}
	unlock, err := s.Lock(ctx, "code:"+r.Code)
	if err != nil {
		return Route{}, err
	}
	defer unlock()

	if _, err := s.GetByCode(ctx, r.Code); err == nil {
		return Route{}, record.Conflict(audit.EntityRoute, "", "", "code "+r.Code+" already registered")
	} else if !errors.Is(err, record.ErrNotFound) {
		return Route{}, err
	}
	return s.Service.Create(ctx, actor, r)
}

// Update applies patch to a live route.
func (s *RouteService) Update(ctx context.Context, m record.Mutation, patch RoutePatch) (Route, error) {
	return s.Service.Update(ctx, m, patch.apply)
}

// GetByCode returns the route with the given code.
func (s *RouteService) GetByCode(ctx context.Context, code string) (Route, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	found, err := s.All(ctx, record.ScopeAll, func(r *Route) bool { return r.Code == code })
	if err != nil {
		return Route{}, err
	}
	if len(found) == 0 {
		return Route{}, record.NotFound(audit.EntityRoute, "code:"+code)
	}
	return found[0], nil
}

// List returns a page of routes matching f.
func (s *RouteService) List(ctx context.Context, f RouteFilter) (record.Page[Route], error) {
	return s.Service.List(ctx, record.Query[Route]{
		Scope: f.Scope,
		Match: func(r *Route) bool {
			return (f.CompanyID == "" || r.CompanyID == f.CompanyID) &&
				(f.ResolutionID == "" || r.ResolutionID == f.ResolutionID) &&
				(f.Status == "" || r.Status == f.Status) &&
				record.ContainsFold(f.Text, r.Code, r.Origin, r.Destination)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), " ", ""))
}
