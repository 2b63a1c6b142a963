package mcp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/padron/internal/app"
	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/casefile"
	"github.com/rpggio/padron/internal/domain/fleet"
	"github.com/rpggio/padron/internal/domain/permit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
)

// handlers adapts tool arguments to the domain services.
type handlers struct {
	svc    app.Services
	clock  func() time.Time
	logger *slog.Logger
}

func (h *handlers) mutation(ctx context.Context, id, reason string, expectedVersion int64) record.Mutation {
	return record.Mutation{
		ID:              id,
		Actor:           ActorFromContext(ctx),
		Reason:          reason,
		ExpectedVersion: expectedVersion,
	}
}

// Companies

func (h *handlers) companyList(ctx context.Context, p CompanyListParams) (any, error) {
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Companies.List(ctx, fleet.CompanyFilter{
		Scope:    scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		Status:   p.Status,
		Text:     p.Text,
		Page:     page,
		PageSize: size,
	})
}

func (h *handlers) companyGet(ctx context.Context, p CompanyGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Companies.Get(ctx, p.ID)
	case p.RUC != "":
		return h.svc.Companies.GetByRUC(ctx, p.RUC)
	}
	return nil, invalid("id or ruc required")
}

func (h *handlers) companyCreate(ctx context.Context, p CompanyCreateParams) (any, error) {
	return h.svc.Companies.Create(ctx, ActorFromContext(ctx), fleet.Company{
		RUC:        p.RUC,
		LegalName:  p.LegalName,
		Address:    p.Address,
		Status:     p.Status,
		VehicleIDs: p.VehicleIDs,
		DriverIDs:  p.DriverIDs,
	})
}

func (h *handlers) companyUpdate(ctx context.Context, p CompanyUpdateParams) (any, error) {
	return h.svc.Companies.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), fleet.CompanyPatch{
		LegalName:  p.LegalName,
		Address:    p.Address,
		Status:     p.Status,
		VehicleIDs: p.VehicleIDs,
		DriverIDs:  p.DriverIDs,
	})
}

// Vehicles

func (h *handlers) vehicleList(ctx context.Context, p VehicleListParams) (any, error) {
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Vehicles.List(ctx, fleet.VehicleFilter{
		Scope:        scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Status:       p.Status,
		Text:         p.Text,
		Page:         page,
		PageSize:     size,
	})
}

func (h *handlers) vehicleGet(ctx context.Context, p VehicleGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Vehicles.Get(ctx, p.ID)
	case p.Plate != "":
		return h.svc.Vehicles.GetByPlate(ctx, p.Plate)
	}
	return nil, invalid("id or plate required")
}

func (h *handlers) vehicleCreate(ctx context.Context, p VehicleCreateParams) (any, error) {
	return h.svc.Vehicles.Create(ctx, ActorFromContext(ctx), fleet.Vehicle{
		Plate:        p.Plate,
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Make:         p.Make,
		Model:        p.Model,
		Year:         p.Year,
		Seats:        p.Seats,
		Status:       p.Status,
	})
}

func (h *handlers) vehicleUpdate(ctx context.Context, p VehicleUpdateParams) (any, error) {
	return h.svc.Vehicles.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), fleet.VehiclePatch{
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Make:         p.Make,
		Model:        p.Model,
		Year:         p.Year,
		Seats:        p.Seats,
		Status:       p.Status,
	})
}

func (h *handlers) vehicleVerify(ctx context.Context, p IDParams) (any, error) {
	if err := h.svc.Vehicles.Verify(ctx, p.ID); err != nil {
		return nil, err
	}
	return VerifyResponse{ID: p.ID, Consistent: true}, nil
}

// Drivers

func (h *handlers) driverList(ctx context.Context, p DriverListParams) (any, error) {
	expiring, err := optionalDate("expiring_before", p.ExpiringBefore)
	if err != nil {
		return nil, err
	}
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Drivers.List(ctx, fleet.DriverFilter{
		Scope:           scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		CompanyID:       p.CompanyID,
		LicenseCategory: p.LicenseCategory,
		ExpiringBefore:  expiring,
		Text:            p.Text,
		Page:            page,
		PageSize:        size,
	})
}

func (h *handlers) driverGet(ctx context.Context, p DriverGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Drivers.Get(ctx, p.ID)
	case p.DocumentNumber != "":
		return h.svc.Drivers.GetByDocument(ctx, p.DocumentNumber)
	}
	return nil, invalid("id or document_number required")
}

func (h *handlers) driverCreate(ctx context.Context, p DriverCreateParams) (any, error) {
	expiry, err := parseDate("license_expiry", p.LicenseExpiry)
	if err != nil {
		return nil, err
	}
	return h.svc.Drivers.Create(ctx, ActorFromContext(ctx), fleet.Driver{
		DocumentNumber:  p.DocumentNumber,
		FullName:        p.FullName,
		LicenseNumber:   p.LicenseNumber,
		LicenseCategory: p.LicenseCategory,
		LicenseExpiry:   expiry,
		CompanyID:       p.CompanyID,
	})
}

func (h *handlers) driverUpdate(ctx context.Context, p DriverUpdateParams) (any, error) {
	expiry, err := datePtr("license_expiry", p.LicenseExpiry)
	if err != nil {
		return nil, err
	}
	return h.svc.Drivers.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), fleet.DriverPatch{
		FullName:        p.FullName,
		LicenseNumber:   p.LicenseNumber,
		LicenseCategory: p.LicenseCategory,
		LicenseExpiry:   expiry,
		CompanyID:       p.CompanyID,
	})
}

// Routes

func (h *handlers) routeList(ctx context.Context, p RouteListParams) (any, error) {
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Routes.List(ctx, fleet.RouteFilter{
		Scope:        scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Status:       p.Status,
		Text:         p.Text,
		Page:         page,
		PageSize:     size,
	})
}

func (h *handlers) routeGet(ctx context.Context, p RouteGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Routes.Get(ctx, p.ID)
	case p.Code != "":
		return h.svc.Routes.GetByCode(ctx, p.Code)
	}
	return nil, invalid("id or code required")
}

func (h *handlers) routeCreate(ctx context.Context, p RouteCreateParams) (any, error) {
	return h.svc.Routes.Create(ctx, ActorFromContext(ctx), fleet.Route{
		Code:         p.Code,
		Origin:       p.Origin,
		Destination:  p.Destination,
		Stops:        p.Stops,
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Status:       p.Status,
	})
}

func (h *handlers) routeUpdate(ctx context.Context, p RouteUpdateParams) (any, error) {
	return h.svc.Routes.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), fleet.RoutePatch{
		Origin:       p.Origin,
		Destination:  p.Destination,
		Stops:        p.Stops,
		CompanyID:    p.CompanyID,
		ResolutionID: p.ResolutionID,
		Status:       p.Status,
	})
}

// Resolutions

func (h *handlers) resolutionList(ctx context.Context, p ResolutionListParams) (any, error) {
	from, err := optionalDate("issued_from", p.IssuedFrom)
	if err != nil {
		return nil, err
	}
	to, err := optionalDate("issued_to", p.IssuedTo)
	if err != nil {
		return nil, err
	}
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Resolutions.List(ctx, resolution.Filter{
		Scope:              scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		Number:             p.Number,
		CompanyID:          p.CompanyID,
		Kind:               p.Kind,
		ParentResolutionID: p.ParentResolutionID,
		ProcedureType:      p.ProcedureType,
		Active:             p.Active,
		IssuedFrom:         from,
		IssuedTo:           to,
		Text:               p.Text,
		Page:               page,
		PageSize:           size,
	})
}

func (h *handlers) resolutionGet(ctx context.Context, p ResolutionGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Resolutions.Get(ctx, p.ID)
	case p.Number != "":
		return h.svc.Resolutions.GetByNumber(ctx, p.Number)
	}
	return nil, invalid("id or number required")
}

func (h *handlers) resolutionCreate(ctx context.Context, p ResolutionCreateParams) (any, error) {
	r, err := p.resolution()
	if err != nil {
		return nil, err
	}
	if r.Kind == "" {
		r.Kind = resolution.KindParent
	}
	return h.svc.Resolutions.Create(ctx, ActorFromContext(ctx), r)
}

func (h *handlers) resolutionCreateChild(ctx context.Context, p ResolutionCreateParams) (any, error) {
	if p.ParentResolutionID == "" {
		return nil, invalid("parent_resolution_id required")
	}
	r, err := p.resolution()
	if err != nil {
		return nil, err
	}
	return h.svc.Resolutions.CreateChild(ctx, ActorFromContext(ctx), p.ParentResolutionID, r)
}

func (p ResolutionCreateParams) resolution() (resolution.Resolution, error) {
	issue, err := parseDate("issue_date", p.IssueDate)
	if err != nil {
		return resolution.Resolution{}, err
	}
	start, err := parseDate("validity_start", p.ValidityStart)
	if err != nil {
		return resolution.Resolution{}, err
	}
	end, err := parseDate("validity_end", p.ValidityEnd)
	if err != nil {
		return resolution.Resolution{}, err
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return resolution.Resolution{
		Number:             p.Number,
		Kind:               p.Kind,
		CompanyID:          p.CompanyID,
		ParentResolutionID: p.ParentResolutionID,
		ProcedureType:      p.ProcedureType,
		Description:        p.Description,
		IssueDate:          issue,
		ValidityStart:      start,
		ValidityEnd:        end,
		CaseFileID:         p.CaseFileID,
		DocumentID:         p.DocumentID,
		Active:             active,
	}, nil
}

func (h *handlers) resolutionUpdate(ctx context.Context, p ResolutionUpdateParams) (any, error) {
	patch := resolution.Patch{
		Number:             p.Number,
		CompanyID:          p.CompanyID,
		ParentResolutionID: p.ParentResolutionID,
		ProcedureType:      p.ProcedureType,
		Description:        p.Description,
		CaseFileID:         p.CaseFileID,
		DocumentID:         p.DocumentID,
		Active:             p.Active,
	}
	var err error
	if patch.IssueDate, err = datePtr("issue_date", p.IssueDate); err != nil {
		return nil, err
	}
	if patch.ValidityStart, err = datePtr("validity_start", p.ValidityStart); err != nil {
		return nil, err
	}
	if patch.ValidityEnd, err = datePtr("validity_end", p.ValidityEnd); err != nil {
		return nil, err
	}
	return h.svc.Resolutions.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), patch)
}

func (h *handlers) resolutionCompany(ctx context.Context, p IDParams) (any, error) {
	companyID, err := h.svc.Resolutions.ResolveCompanyFor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return CompanyResponse{ResolutionID: p.ID, CompanyID: companyID}, nil
}

func (h *handlers) resolutionChildren(ctx context.Context, p ChildrenParams) (any, error) {
	children, err := h.svc.Resolutions.Children(ctx, p.ID, p.Scope)
	if err != nil {
		return nil, err
	}
	return ItemsResponse[resolution.Resolution]{Items: children}, nil
}

func (h *handlers) resolutionStats(ctx context.Context, p AtParams) (any, error) {
	at, err := h.at(p.At)
	if err != nil {
		return nil, err
	}
	return h.svc.Resolutions.Stats(ctx, at)
}

// Permits

func (h *handlers) permitList(ctx context.Context, p PermitListParams) (any, error) {
	expiring, err := optionalDate("expiring_before", p.ExpiringBefore)
	if err != nil {
		return nil, err
	}
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.Permits.List(ctx, permit.Filter{
		Scope:              scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		Number:             p.Number,
		VehicleID:          p.VehicleID,
		CompanyID:          p.CompanyID,
		ParentResolutionID: p.ParentResolutionID,
		State:              p.State,
		ExpiringBefore:     expiring,
		Text:               p.Text,
		Page:               page,
		PageSize:           size,
	})
}

func (h *handlers) permitGet(ctx context.Context, p PermitGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.Permits.Get(ctx, p.ID)
	case p.Number != "":
		return h.svc.Permits.GetByNumber(ctx, p.Number)
	}
	return nil, invalid("id or number required")
}

func (h *handlers) permitCreate(ctx context.Context, p PermitCreateParams) (any, error) {
	issue, err := parseDate("issue_date", p.IssueDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate("expiry_date", p.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return h.svc.Permits.Create(ctx, ActorFromContext(ctx), permit.Permit{
		Number:             p.Number,
		VehicleID:          p.VehicleID,
		CompanyID:          p.CompanyID,
		ParentResolutionID: p.ParentResolutionID,
		IssueDate:          issue,
		ExpiryDate:         expiry,
		DocumentID:         p.DocumentID,
		VerificationURL:    p.VerificationURL,
	})
}

func (h *handlers) permitUpdate(ctx context.Context, p PermitUpdateParams) (any, error) {
	patch := permit.Patch{
		VehicleID:          p.VehicleID,
		ParentResolutionID: p.ParentResolutionID,
		DocumentID:         p.DocumentID,
		VerificationURL:    p.VerificationURL,
	}
	var err error
	if patch.IssueDate, err = datePtr("issue_date", p.IssueDate); err != nil {
		return nil, err
	}
	if patch.ExpiryDate, err = datePtr("expiry_date", p.ExpiryDate); err != nil {
		return nil, err
	}
	return h.svc.Permits.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), patch)
}

func (h *handlers) permitChangeState(ctx context.Context, p PermitStateParams) (any, error) {
	return h.svc.Permits.ChangeState(ctx, h.mutation(ctx, p.ID, p.Reason, p.ExpectedVersion), p.State)
}

func (h *handlers) permitExpireDue(ctx context.Context, p AtParams) (any, error) {
	at, err := h.at(p.At)
	if err != nil {
		return nil, err
	}
	expired, err := h.svc.Permits.ExpireDue(ctx, ActorFromContext(ctx), at)
	if err != nil {
		return nil, err
	}
	return ItemsResponse[permit.Permit]{Items: expired}, nil
}

func (h *handlers) permitVerify(ctx context.Context, p IDParams) (any, error) {
	if err := h.svc.Permits.Verify(ctx, p.ID); err != nil {
		return nil, err
	}
	return VerifyResponse{ID: p.ID, Consistent: true}, nil
}

func (h *handlers) permitStats(ctx context.Context, _ struct{}) (any, error) {
	return h.svc.Permits.Stats(ctx)
}

// Case files

func (h *handlers) caseFileList(ctx context.Context, p CaseFileListParams) (any, error) {
	from, err := optionalDate("opened_from", p.OpenedFrom)
	if err != nil {
		return nil, err
	}
	to, err := optionalDate("opened_to", p.OpenedTo)
	if err != nil {
		return nil, err
	}
	page, size := pageOf(p.Page, p.PageSize)
	return h.svc.CaseFiles.List(ctx, casefile.Filter{
		Scope:         scopeOf(p.Scope, p.IncludeDeleted, p.OnlyDeleted),
		Number:        p.Number,
		Subject:       p.Subject,
		ProcedureType: p.ProcedureType,
		State:         p.State,
		Priority:      p.Priority,
		RequesterID:   p.RequesterID,
		Responsible:   p.Responsible,
		OpenedFrom:    from,
		OpenedTo:      to,
		Tag:           p.Tag,
		Text:          p.Text,
		Page:          page,
		PageSize:      size,
	})
}

func (h *handlers) caseFileGet(ctx context.Context, p CaseFileGetParams) (any, error) {
	switch {
	case p.ID != "":
		return h.svc.CaseFiles.Get(ctx, p.ID)
	case p.Number != "":
		return h.svc.CaseFiles.GetByNumber(ctx, p.Number)
	}
	return nil, invalid("id or number required")
}

func (h *handlers) caseFileCreate(ctx context.Context, p CaseFileCreateParams) (any, error) {
	due, err := optionalDate("due_date", p.DueDate)
	if err != nil {
		return nil, err
	}
	return h.svc.CaseFiles.Create(ctx, ActorFromContext(ctx), casefile.CaseFile{
		Number:            p.Number,
		Subject:           p.Subject,
		ProcedureType:     p.ProcedureType,
		Requester:         p.Requester,
		Description:       p.Description,
		Notes:             p.Notes,
		Priority:          p.Priority,
		Responsible:       p.Responsible,
		DueDate:           due,
		Tags:              p.Tags,
		FinalResolutionID: p.FinalResolutionID,
		ParentCaseFileID:  p.ParentCaseFileID,
	})
}

func (h *handlers) caseFileUpdate(ctx context.Context, p CaseFileUpdateParams) (any, error) {
	due, err := datePtr("due_date", p.DueDate)
	if err != nil {
		return nil, err
	}
	return h.svc.CaseFiles.Update(ctx, h.mutation(ctx, p.ID, "", p.ExpectedVersion), casefile.Patch{
		Subject:           p.Subject,
		ProcedureType:     p.ProcedureType,
		Requester:         p.Requester,
		Description:       p.Description,
		Notes:             p.Notes,
		Priority:          p.Priority,
		Responsible:       p.Responsible,
		DueDate:           due,
		Tags:              p.Tags,
		FinalResolutionID: p.FinalResolutionID,
	})
}

func (h *handlers) caseFileTransition(ctx context.Context, p TransitionParams) (any, error) {
	m := h.mutation(ctx, p.ID, "", p.ExpectedVersion)
	m.Note = p.Notes
	return h.svc.CaseFiles.Transition(ctx, m, p.ToState)
}

func (h *handlers) caseFileTransitions(ctx context.Context, p IDParams) (any, error) {
	c, err := h.svc.CaseFiles.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	successors := c.State.Successors()
	if successors == nil {
		successors = []casefile.State{}
	}
	return TransitionsResponse{ID: c.ID, State: c.State, Successors: successors}, nil
}

func (h *handlers) caseFileAddTracking(ctx context.Context, p AddTrackingParams) (any, error) {
	m := h.mutation(ctx, p.ID, "", 0)
	m.Note = p.Notes
	return h.svc.CaseFiles.AddTracking(ctx, m, p.Action, p.Description)
}

func (h *handlers) caseFileLinkChild(ctx context.Context, p LinkChildParams) (any, error) {
	parent, child, err := h.svc.CaseFiles.LinkChild(ctx, h.mutation(ctx, p.ID, "", 0), p.ChildID)
	if err != nil {
		return nil, err
	}
	return LinkResponse{Parent: parent, Child: child}, nil
}

func (h *handlers) caseFileChildren(ctx context.Context, p ChildrenParams) (any, error) {
	children, err := h.svc.CaseFiles.Children(ctx, p.ID, p.Scope)
	if err != nil {
		return nil, err
	}
	return ItemsResponse[casefile.CaseFile]{Items: children}, nil
}

func (h *handlers) caseFileStats(ctx context.Context, p AtParams) (any, error) {
	at, err := h.at(p.At)
	if err != nil {
		return nil, err
	}
	return h.svc.CaseFiles.Stats(ctx, at)
}

// Audit

func (h *handlers) auditLog(ctx context.Context, p AuditLogParams) (any, error) {
	var (
		events []audit.Event
		err    error
	)
	if p.RecordID != "" {
		events, err = h.svc.Audit.ForRecord(ctx, p.RecordID)
	} else {
		if p.Entity == "" {
			return nil, invalid("record_id or entity required")
		}
		opts := audit.ListOptions{Entity: p.Entity, Limit: p.Limit, Offset: p.Offset}
		if p.Kind != "" {
			opts.Kind = &p.Kind
		}
		events, err = h.svc.Audit.Stream(ctx, opts)
	}
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []audit.Event{}
	}
	return ItemsResponse[audit.Event]{Items: events}, nil
}

// helpers

func scopeOf(scope record.Scope, includeDeleted, onlyDeleted bool) record.Scope {
	if scope != "" {
		return scope
	}
	return record.ScopeFromFlags(includeDeleted, onlyDeleted)
}

func pageOf(page, size int) (int, int) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = defaultPageSize
	}
	return page, size
}

func (h *handlers) at(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return h.clock(), nil
	}
	return parseDate("at", value)
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, invalid("%s: expected YYYY-MM-DD or RFC 3339, got %q", field, value)
	}
	return t, nil
}

func optionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func datePtr(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
