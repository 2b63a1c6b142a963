package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/casefile"
	"github.com/rpggio/padron/internal/domain/fleet"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
	"github.com/rpggio/padron/internal/mcp"
	"github.com/rpggio/padron/internal/testserver"
)

type client struct {
	t       *testing.T
	session *sdkmcp.ClientSession
	actor   string
}

func newClient(t *testing.T, opts ...testserver.Option) *client {
	ts := testserver.New(t, opts...)
	return &client{t: t, session: ts.Connect(t), actor: "alice"}
}

func (c *client) raw(name string, args any) *sdkmcp.CallToolResult {
	c.t.Helper()
	params := &sdkmcp.CallToolParams{Name: name, Arguments: args}
	if c.actor != "" {
		params.Meta = sdkmcp.Meta{"actor": c.actor}
	}
	res, err := c.session.CallTool(context.Background(), params)
	require.NoError(c.t, err)
	return res
}

// call invokes a tool that must succeed and decodes its result into out.
func (c *client) call(name string, args any, out any) {
	c.t.Helper()
	res := c.raw(name, args)
	require.False(c.t, res.IsError, "%s failed: %s", name, text(c.t, res))
	if out != nil {
		require.NoError(c.t, json.Unmarshal([]byte(text(c.t, res)), out))
	}
}

// fail invokes a tool that must fail and returns the decoded error.
func (c *client) fail(name string, args any) mcp.APIError {
	c.t.Helper()
	res := c.raw(name, args)
	require.True(c.t, res.IsError, "%s unexpectedly succeeded: %s", name, text(c.t, res))
	var apiErr mcp.APIError
	require.NoError(c.t, json.Unmarshal([]byte(text(c.t, res)), &apiErr))
	return apiErr
}

// event mirrors audit.Event without its interface-typed snapshots.
type event struct {
	Entity   audit.EntityKind `json:"entity"`
	RecordID string           `json:"record_id"`
	Kind     audit.EventKind  `json:"kind"`
	Version  int64            `json:"version"`
	Actor    string           `json:"actor"`
	Reason   string           `json:"reason"`
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func (c *client) company(ruc string) fleet.Company {
	var co fleet.Company
	c.call("company_create", map[string]any{"ruc": ruc, "legal_name": "Transportes " + ruc}, &co)
	return co
}

func (c *client) parentResolution(number, companyID string) resolution.Resolution {
	var r resolution.Resolution
	c.call("resolution_create", map[string]any{
		"number":         number,
		"company_id":     companyID,
		"procedure_type": "HABILITACION_VEHICULAR",
		"issue_date":     "2025-01-10",
		"validity_start": "2025-01-10",
		"validity_end":   "2030-01-09",
	}, &r)
	return r
}

func (c *client) caseFile() casefile.CaseFile {
	var cf casefile.CaseFile
	c.call("casefile_create", map[string]any{
		"procedure_type": "HABILITACION_VEHICULAR",
		"requester": map[string]any{
			"type": "COMPANY", "id": "req-1", "name": "Transportes Sur", "document": "20123456789",
		},
	}, &cf)
	return cf
}

func TestServer_ListsToolsAndDocs(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	tools, err := c.session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, kind := range []string{"company", "vehicle", "driver", "route", "resolution", "permit", "casefile"} {
		for _, op := range []string{"_list", "_get", "_create", "_update", "_delete", "_restore", "_purge"} {
			assert.True(t, names[kind+op], "missing tool %s%s", kind, op)
		}
	}
	assert.True(t, names["casefile_transition"])
	assert.True(t, names["resolution_create_child"])
	assert.True(t, names["audit_log"])

	res, err := c.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "padron://docs/casefile-workflow"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "- OPEN -> IN_PROCESS, SUSPENDED")
	assert.Contains(t, res.Contents[0].Text, "- CLOSED: final")
}

func TestServer_CompanyResolutionVehicleFlow(t *testing.T) {
	c := newClient(t)

	co := c.company("20123456789")
	require.Equal(t, fleet.StatusActive, co.Status)
	require.Equal(t, int64(1), co.Version)
	require.Equal(t, "alice", co.CreatedBy)

	parent := c.parentResolution("RD-001-2025", co.ID)
	require.Equal(t, resolution.KindParent, parent.Kind)
	require.True(t, parent.Active)

	var child resolution.Resolution
	c.call("resolution_create_child", map[string]any{
		"number":               "RD-002-2025",
		"parent_resolution_id": parent.ID,
		"procedure_type":       "INCREMENTO",
		"issue_date":           "2025-03-01",
		"validity_start":       "2025-03-01",
		"validity_end":         "2030-01-09",
	}, &child)
	require.Equal(t, resolution.KindChild, child.Kind)

	var owner mcp.CompanyResponse
	c.call("resolution_company", map[string]any{"id": child.ID}, &owner)
	assert.Equal(t, co.ID, owner.CompanyID)

	var v fleet.Vehicle
	c.call("vehicle_create", map[string]any{"plate": "ABC-123", "company_id": co.ID, "resolution_id": child.ID}, &v)

	var verified mcp.VerifyResponse
	c.call("vehicle_verify", map[string]any{"id": v.ID}, &verified)
	assert.True(t, verified.Consistent)

	var page record.Page[fleet.Vehicle]
	c.call("vehicle_list", map[string]any{"company_id": co.ID}, &page)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	apiErr := c.fail("company_create", map[string]any{"ruc": "20123456789", "legal_name": "Duplicate"})
	assert.Equal(t, "CONFLICT", apiErr.Code)

	apiErr = c.fail("resolution_create", map[string]any{
		"number": "RD-003-2025", "company_id": co.ID, "procedure_type": "INCREMENTO",
		"issue_date": "10/01/2025", "validity_start": "2025-01-10", "validity_end": "2026-01-10",
	})
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestServer_SoftDeleteLifecycle(t *testing.T) {
	c := newClient(t)
	co := c.company("20111111111")

	apiErr := c.fail("company_purge", map[string]any{"id": co.ID})
	assert.Equal(t, "CONFLICT", apiErr.Code)

	var deleted fleet.Company
	c.call("company_delete", map[string]any{"id": co.ID, "reason": "closed down"}, &deleted)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, int64(2), deleted.Version)
	require.NotNil(t, deleted.DeleteReason)
	assert.Equal(t, "closed down", *deleted.DeleteReason)

	var again fleet.Company
	c.call("company_delete", map[string]any{"id": co.ID, "reason": "twice"}, &again)
	assert.Equal(t, int64(2), again.Version)

	var active, all record.Page[fleet.Company]
	c.call("company_list", map[string]any{}, &active)
	assert.Zero(t, active.Total)
	c.call("company_list", map[string]any{"scope": "ALL"}, &all)
	assert.Equal(t, 1, all.Total)

	apiErr = c.fail("company_update", map[string]any{"id": co.ID, "legal_name": "Renamed"})
	assert.Equal(t, "CONFLICT", apiErr.Code)
	assert.Equal(t, co.ID, apiErr.ID)

	var restored fleet.Company
	c.call("company_restore", map[string]any{"id": co.ID}, &restored)
	assert.False(t, restored.Deleted)
	assert.Equal(t, int64(3), restored.Version)

	apiErr = c.fail("company_update", map[string]any{"id": co.ID, "legal_name": "Renamed", "expected_version": 1})
	assert.Equal(t, "CONFLICT", apiErr.Code)

	c.call("company_delete", map[string]any{"id": co.ID, "reason": "final"}, nil)
	var purged mcp.PurgeResponse
	c.call("company_purge", map[string]any{"id": co.ID}, &purged)
	assert.True(t, purged.Purged)

	apiErr = c.fail("company_get", map[string]any{"id": co.ID})
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	var history mcp.ItemsResponse[event]
	c.call("audit_log", map[string]any{"record_id": co.ID}, &history)
	kinds := make([]audit.EventKind, len(history.Items))
	for i, e := range history.Items {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []audit.EventKind{
		audit.EventCreate, audit.EventDelete, audit.EventRestore, audit.EventDelete, audit.EventPurge,
	}, kinds)
}

func TestServer_CaseFileWorkflow(t *testing.T) {
	c := newClient(t)
	cf := c.caseFile()
	require.Equal(t, casefile.StateOpen, cf.State)
	require.Equal(t, casefile.PriorityMedium, cf.Priority)
	require.NotEmpty(t, cf.Number)

	var next mcp.TransitionsResponse
	c.call("casefile_transitions", map[string]any{"id": cf.ID}, &next)
	assert.Equal(t, []casefile.State{casefile.StateInProcess, casefile.StateSuspended}, next.Successors)

	apiErr := c.fail("casefile_transition", map[string]any{"id": cf.ID, "to_state": "APPROVED"})
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Code)
	assert.Equal(t, string(casefile.StateOpen), apiErr.State)

	var moved casefile.CaseFile
	c.call("casefile_transition", map[string]any{"id": cf.ID, "to_state": "IN_PROCESS", "notes": "assigned"}, &moved)
	assert.Equal(t, casefile.StateInProcess, moved.State)
	last := moved.Tracking[len(moved.Tracking)-1]
	assert.Equal(t, casefile.ActionStateChange, last.Action)
	assert.Equal(t, casefile.StateOpen, last.FromState)
	assert.Equal(t, casefile.StateInProcess, last.ToState)
	assert.Equal(t, "alice", last.User)

	child := c.caseFile()
	var link mcp.LinkResponse
	c.call("casefile_link_child", map[string]any{"id": cf.ID, "child_id": child.ID}, &link)
	assert.Equal(t, cf.ID, link.Child.ParentCaseFileID)
	assert.Contains(t, link.Parent.ChildCaseFileIDs, child.ID)

	apiErr = c.fail("casefile_link_child", map[string]any{"id": child.ID, "child_id": cf.ID})
	assert.Equal(t, "CONFLICT", apiErr.Code)

	var children mcp.ItemsResponse[casefile.CaseFile]
	c.call("casefile_children", map[string]any{"id": cf.ID}, &children)
	require.Len(t, children.Items, 1)
	assert.Equal(t, child.ID, children.Items[0].ID)
}

func TestServer_ActorResolution(t *testing.T) {
	ts := testserver.New(t)
	c := &client{t: t, session: ts.Connect(t)}

	co := c.company("20222222222")
	assert.Equal(t, ts.Config.Identity.DefaultActor, co.CreatedBy)

	c.actor = "bob"
	var updated fleet.Company
	c.call("company_update", map[string]any{"id": co.ID, "address": "Av. Sol 123"}, &updated)
	assert.Equal(t, "bob", updated.ModifiedBy)
}

func TestServer_ActorOverHTTP(t *testing.T) {
	ts := testserver.New(t)
	c := &client{t: t, session: ts.ConnectHTTP(t, "carol")}

	co := c.company("20333333333")
	assert.Equal(t, "carol", co.CreatedBy)

	// _meta wins over the header.
	c.actor = "dave"
	co2 := c.company("20444444444")
	assert.Equal(t, "dave", co2.CreatedBy)
}

func TestServer_AuditStream(t *testing.T) {
	c := newClient(t, testserver.WithSQLite())
	c.company("20555555555")
	c.company("20666666666")

	var stream mcp.ItemsResponse[event]
	c.call("audit_log", map[string]any{"entity": "company", "kind": "CREATE", "limit": 1}, &stream)
	require.Len(t, stream.Items, 1)
	assert.Equal(t, audit.EntityCompany, stream.Items[0].Entity)

	apiErr := c.fail("audit_log", map[string]any{})
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}
