package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/padron/internal/domain/casefile"
)

const serverInstructions = `padron keeps the registry of a regional transport regulator: companies, vehicles, drivers, routes, resolutions, permits (TUC) and case files (expedientes).

Every record is versioned and soft-deleted:
- <kind>_create / <kind>_update bump the version by one; pass expected_version to detect concurrent edits.
- <kind>_delete needs a reason and hides the record from default lists; <kind>_restore brings it back.
- <kind>_purge removes a record for good and only works on deleted records.
- <kind>_list hides deleted records unless scope is DELETED_ONLY or ALL.

Hierarchy: a CHILD resolution derives from one PARENT and inherits its company (resolution_company).
Vehicles and permits reference resolutions; references are checked on demand with vehicle_verify and permit_verify.

Case files follow a fixed workflow; call casefile_transitions before casefile_transition.
Every mutation appends an audit event; read it with audit_log.

Identity: send _meta.actor with each call (or the X-Actor header over HTTP).

Docs:
- padron://docs/lifecycle
- padron://docs/casefile-workflow
- padron://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "padron://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Record lifecycle",
		Description: "Versioning, soft delete, restore and purge rules shared by every entity kind.",
		Content: `# Record lifecycle

create (version 1) -> update* -> delete -> restore -> ... -> delete -> purge

- Every update, delete and restore adds exactly one to the version.
- Updating a deleted record fails with CONFLICT; restore it first.
- Deleting an already deleted record succeeds and changes nothing.
- Restoring a live record fails with CONFLICT.
- Purge only accepts deleted records and cannot be undone.
- Deleted records stay readable by id and through scope ALL or DELETED_ONLY.
- A deleted PARENT resolution keeps its children resolvable.
`,
	},
	{
		URI:         "padron://docs/casefile-workflow",
		Name:        "docs_casefile_workflow",
		Title:       "Case file workflow",
		Description: "Allowed case file state transitions.",
		Content:     workflowDoc(),
	},
	{
		URI:         "padron://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Codes returned in tool error results and how to react.",
		Content: `# Error codes

- NOT_FOUND: no record with that id (or natural key).
- CONFLICT: the record state or version forbids the operation, or a unique key is taken.
- INVALID_TRANSITION: the case file cannot move to that state from its current one.
- INCONSISTENT: a reference points to a missing or mismatched record.
- INVALID_INPUT: arguments failed validation.
- AUDIT_INCOMPLETE: the change was saved, but its audit event was not; details carries the record.
- INTERNAL: unexpected failure; retrying may help.
`,
	},
}

func workflowDoc() string {
	var b strings.Builder
	b.WriteString("# Case file workflow\n\n")
	for _, s := range casefile.States {
		next := s.Successors()
		if len(next) == 0 {
			fmt.Fprintf(&b, "- %s: final\n", s)
			continue
		}
		names := make([]string, len(next))
		for i, n := range next {
			names[i] = string(n)
		}
		fmt.Fprintf(&b, "- %s -> %s\n", s, strings.Join(names, ", "))
	}
	b.WriteString("\nEvery transition appends a STATE_CHANGE tracking entry and bumps the version.\n")
	return b.String()
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
