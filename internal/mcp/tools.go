package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/padron/internal/domain/record"
)

// lifecycle is the soft-delete surface shared by every entity service.
type lifecycle[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	SoftDelete(ctx context.Context, m record.Mutation) (T, error)
	Restore(ctx context.Context, m record.Mutation) (T, error)
	Purge(ctx context.Context, m record.Mutation) error
}

func registerTools(server *sdkmcp.Server, h *handlers) {
	s := h.svc

	// Companies
	addTool(server, h, "company_list", "List companies, filtered by status and free text. Deleted companies are hidden unless scope asks for them.", h.companyList)
	addTool(server, h, "company_get", "Get a company by id or RUC, including deleted ones", h.companyGet)
	addTool(server, h, "company_create", "Register a company. RUC must be unique.", h.companyCreate)
	addTool(server, h, "company_update", "Update company fields; omitted fields are kept", h.companyUpdate)
	registerLifecycle(server, h, "company", s.Companies)

	// Vehicles
	addTool(server, h, "vehicle_list", "List vehicles by company, resolution, status or free text", h.vehicleList)
	addTool(server, h, "vehicle_get", "Get a vehicle by id or plate, including deleted ones", h.vehicleGet)
	addTool(server, h, "vehicle_create", "Register a vehicle. The plate must be unique.", h.vehicleCreate)
	addTool(server, h, "vehicle_update", "Update vehicle fields; omitted fields are kept", h.vehicleUpdate)
	addTool(server, h, "vehicle_verify", "Check that the vehicle's company exists and its resolution belongs to that company", h.vehicleVerify)
	registerLifecycle(server, h, "vehicle", s.Vehicles)

	// Drivers
	addTool(server, h, "driver_list", "List drivers by company, license category, license expiry or free text", h.driverList)
	addTool(server, h, "driver_get", "Get a driver by id or document number, including deleted ones", h.driverGet)
	addTool(server, h, "driver_create", "Register a driver. The document number must be unique.", h.driverCreate)
	addTool(server, h, "driver_update", "Update driver fields; omitted fields are kept", h.driverUpdate)
	registerLifecycle(server, h, "driver", s.Drivers)

	// Routes
	addTool(server, h, "route_list", "List routes by company, resolution, status or free text", h.routeList)
	addTool(server, h, "route_get", "Get a route by id or code, including deleted ones", h.routeGet)
	addTool(server, h, "route_create", "Register a route. The code must be unique.", h.routeCreate)
	addTool(server, h, "route_update", "Update route fields; omitted fields are kept", h.routeUpdate)
	registerLifecycle(server, h, "route", s.Routes)

	// Resolutions
	addTool(server, h, "resolution_list", "List resolutions by number, company, kind, parent, procedure, issue dates or free text", h.resolutionList)
	addTool(server, h, "resolution_get", "Get a resolution by id or number, including deleted ones", h.resolutionGet)
	addTool(server, h, "resolution_create", "Create a PARENT resolution (company_id required) or a CHILD (parent_resolution_id required)", h.resolutionCreate)
	addTool(server, h, "resolution_create_child", "Create a CHILD resolution under parent_resolution_id. Deleted parents are valid targets.", h.resolutionCreateChild)
	addTool(server, h, "resolution_update", "Update resolution fields; the kind never changes", h.resolutionUpdate)
	addTool(server, h, "resolution_company", "Resolve the company of a resolution, following a CHILD to its parent", h.resolutionCompany)
	addTool(server, h, "resolution_children", "List the CHILD resolutions of a parent", h.resolutionChildren)
	addTool(server, h, "resolution_stats", "Summarize resolutions: in force, expired, by kind and procedure", h.resolutionStats)
	registerLifecycle(server, h, "resolution", s.Resolutions)

	// Permits
	addTool(server, h, "permit_list", "List permits by number, vehicle, company, resolution, state, expiry or free text", h.permitList)
	addTool(server, h, "permit_get", "Get a permit by id or number, including deleted ones", h.permitGet)
	addTool(server, h, "permit_create", "Issue a permit in state VALID", h.permitCreate)
	addTool(server, h, "permit_update", "Update permit fields; use permit_change_state for the state", h.permitUpdate)
	addTool(server, h, "permit_change_state", "Move a permit to another state. WITHDRAWN and DISCARDED need a reason.", h.permitChangeState)
	addTool(server, h, "permit_expire_due", "Mark VALID permits past their expiry date as EXPIRED", h.permitExpireDue)
	addTool(server, h, "permit_verify", "Check that the permit's vehicle and resolution still match its company", h.permitVerify)
	addTool(server, h, "permit_stats", "Count live permits by state", h.permitStats)
	registerLifecycle(server, h, "permit", s.Permits)

	// Case files
	addTool(server, h, "casefile_list", "List case files by number, subject, procedure, state, priority, requester, responsible, tag or free text", h.caseFileList)
	addTool(server, h, "casefile_get", "Get a case file by id or number, including deleted ones", h.caseFileGet)
	addTool(server, h, "casefile_create", "Open a case file in state OPEN", h.caseFileCreate)
	addTool(server, h, "casefile_update", "Update case file fields outside the workflow", h.caseFileUpdate)
	addTool(server, h, "casefile_transition", "Move a case file to another workflow state and track the change", h.caseFileTransition)
	addTool(server, h, "casefile_transitions", "List the states a case file can move to next", h.caseFileTransitions)
	addTool(server, h, "casefile_add_tracking", "Append a progress note to a case file without changing its state", h.caseFileAddTracking)
	addTool(server, h, "casefile_link_child", "Link child_id under the case file id, setting both sides", h.caseFileLinkChild)
	addTool(server, h, "casefile_children", "List the child case files of a case file", h.caseFileChildren)
	addTool(server, h, "casefile_stats", "Summarize case files: by state, priority and subject, overdue and urgent", h.caseFileStats)
	registerLifecycle(server, h, "casefile", s.CaseFiles)

	// Audit
	addTool(server, h, "audit_log", "Read audit events: the full history of record_id, or the stream of one entity kind", h.auditLog)
}

func registerLifecycle[T any](server *sdkmcp.Server, h *handlers, kind string, svc lifecycle[T]) {
	addTool(server, h, kind+"_delete", fmt.Sprintf("Soft-delete a %s. A reason is required; deleting twice is a no-op.", kind),
		func(ctx context.Context, p MutationParams) (any, error) {
			return svc.SoftDelete(ctx, h.mutation(ctx, p.ID, p.Reason, p.ExpectedVersion))
		})
	addTool(server, h, kind+"_restore", fmt.Sprintf("Restore a soft-deleted %s", kind),
		func(ctx context.Context, p MutationParams) (any, error) {
			return svc.Restore(ctx, h.mutation(ctx, p.ID, p.Reason, p.ExpectedVersion))
		})
	addTool(server, h, kind+"_purge", fmt.Sprintf("Permanently remove a soft-deleted %s. This cannot be undone.", kind),
		func(ctx context.Context, p MutationParams) (any, error) {
			if err := svc.Purge(ctx, h.mutation(ctx, p.ID, p.Reason, p.ExpectedVersion)); err != nil {
				return nil, err
			}
			return PurgeResponse{ID: p.ID, Purged: true}, nil
		})
}

// addTool registers a typed tool. Domain failures become error results
// carrying an APIError; the partial result, if any, goes in its details.
func addTool[In any](server *sdkmcp.Server, h *handlers, name, description string, fn func(context.Context, In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err == nil {
				return nil, out, nil
			}
			apiErr := MapError(err)
			if apiErr.Code == "INTERNAL" || apiErr.Code == "AUDIT_INCOMPLETE" {
				h.logger.Error("tool failed", "tool", name, "actor", ActorFromContext(ctx), "error", err)
			}
			if apiErr.Code == "AUDIT_INCOMPLETE" {
				apiErr.Details = out
			}
			return errorResult(apiErr), nil, nil
		})
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
