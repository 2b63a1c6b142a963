package resolution_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
	"github.com/rpggio/padron/internal/memory"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newService() *resolution.Service {
	return resolution.NewService(record.Config[resolution.Resolution, *resolution.Resolution]{
		Store: memory.NewStore[resolution.Resolution](),
		Audit: audit.NewRecorder(memory.NewAuditRepository(), func() time.Time { return now }, nil),
		Clock: func() time.Time { return now },
	})
}

func draft(number string) resolution.Resolution {
	return resolution.Resolution{
		Number:        number,
		ProcedureType: resolution.ProcedureVehicleLicensing,
		IssueDate:     now.AddDate(0, -1, 0),
		ValidityStart: now.AddDate(0, -1, 0),
		ValidityEnd:   now.AddDate(5, 0, 0),
		Active:        true,
	}
}

func createParent(t *testing.T, svc *resolution.Service, number, company string) resolution.Resolution {
	t.Helper()
	r := draft(number)
	r.CompanyID = company
	parent, err := svc.CreateParent(context.Background(), "clerk", r)
	require.NoError(t, err)
	return parent
}

func TestService_ResolveCompanyThroughDeletedParent(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	parent := createParent(t, svc, "R-001-2025", "company-c")

	child, err := svc.CreateChild(ctx, "clerk", parent.ID, draft("R-002-2025"))
	require.NoError(t, err)
	require.Equal(t, resolution.KindChild, child.Kind)
	require.Equal(t, parent.ID, child.ParentResolutionID)
	require.Empty(t, child.CompanyID)

	company, err := svc.ResolveCompanyFor(ctx, child.ID)
	require.NoError(t, err)
	require.Equal(t, "company-c", company)

	_, err = svc.SoftDelete(ctx, record.Mutation{ID: parent.ID, Actor: "clerk", Reason: "annulled"})
	require.NoError(t, err)

	company, err = svc.ResolveCompanyFor(ctx, child.ID)
	require.NoError(t, err)
	require.Equal(t, "company-c", company)

	// A soft-deleted parent still accepts children.
	_, err = svc.CreateChild(ctx, "clerk", parent.ID, draft("R-003-2025"))
	require.NoError(t, err)

	stillThere, err := svc.Get(ctx, child.ID)
	require.NoError(t, err)
	require.False(t, stillThere.Deleted)
}

func TestService_CreateChildRequiresParent(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	parent := createParent(t, svc, "R-001-2025", "c1")
	child, err := svc.CreateChild(ctx, "clerk", parent.ID, draft("R-002-2025"))
	require.NoError(t, err)

	_, err = svc.CreateChild(ctx, "clerk", "missing", draft("R-003-2025"))
	require.ErrorIs(t, err, record.ErrNotFound)

	_, err = svc.CreateChild(ctx, "clerk", child.ID, draft("R-004-2025"))
	require.ErrorIs(t, err, record.ErrNotFound)
}

func TestService_ResolveCompanyDanglingParent(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	parent := createParent(t, svc, "R-001-2025", "c1")
	child, err := svc.CreateChild(ctx, "clerk", parent.ID, draft("R-002-2025"))
	require.NoError(t, err)

	_, err = svc.SoftDelete(ctx, record.Mutation{ID: parent.ID, Actor: "clerk", Reason: "error"})
	require.NoError(t, err)
	require.NoError(t, svc.Purge(ctx, record.Mutation{ID: parent.ID, Actor: "clerk"}))

	_, err = svc.ResolveCompanyFor(ctx, child.ID)
	require.ErrorIs(t, err, record.ErrInconsistent)

	_, err = svc.ResolveCompanyFor(ctx, "missing")
	require.ErrorIs(t, err, record.ErrNotFound)
}

func TestService_KindInvariants(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.CreateParent(ctx, "clerk", draft("R-001-2025"))
	require.ErrorIs(t, err, record.ErrInvalidInput)

	parent := createParent(t, svc, "R-001-2025", "c1")
	child, err := svc.CreateChild(ctx, "clerk", parent.ID, draft("R-002-2025"))
	require.NoError(t, err)

	company := "c2"
	_, err = svc.Update(ctx, record.Mutation{ID: child.ID, Actor: "clerk"}, resolution.Patch{CompanyID: &company})
	require.ErrorIs(t, err, record.ErrInvalidInput)

	_, err = svc.Update(ctx, record.Mutation{ID: parent.ID, Actor: "clerk"}, resolution.Patch{ParentResolutionID: &child.ID})
	require.ErrorIs(t, err, record.ErrInvalidInput)

	_, err = svc.Update(ctx, record.Mutation{ID: child.ID, Actor: "clerk"}, resolution.Patch{ParentResolutionID: &child.ID})
	require.ErrorIs(t, err, record.ErrInvalidInput)

	end := now.AddDate(-10, 0, 0)
	_, err = svc.Update(ctx, record.Mutation{ID: parent.ID, Actor: "clerk"}, resolution.Patch{ValidityEnd: &end})
	require.ErrorIs(t, err, record.ErrInvalidInput)

	got, err := svc.Get(ctx, parent.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Version)
}

func TestService_DuplicateNumber(t *testing.T) {
	svc := newService()
	createParent(t, svc, "R-001-2025", "c1")

	r := draft("R-001-2025")
	r.CompanyID = "c2"
	_, err := svc.CreateParent(context.Background(), "clerk", r)
	require.ErrorIs(t, err, record.ErrConflict)
}

func TestService_UpdateToTakenNumber(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	a := createParent(t, svc, "R-001-2025", "c1")
	b := createParent(t, svc, "R-002-2025", "c2")

	taken := " R-001-2025 "
	_, err := svc.Update(ctx, record.Mutation{ID: b.ID, Actor: "clerk"}, resolution.Patch{Number: &taken})
	require.ErrorIs(t, err, record.ErrConflict)

	page, err := svc.List(ctx, resolution.Filter{Scope: record.ScopeAll, Number: "R-001-2025", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, a.ID, page.Items[0].ID)

	// Keeping its own number is not a clash.
	own := "R-002-2025"
	got, err := svc.Update(ctx, record.Mutation{ID: b.ID, Actor: "clerk"}, resolution.Patch{Number: &own})
	require.NoError(t, err)
	require.Equal(t, own, got.Number)

	fresh := " R-003-2025"
	got, err = svc.Update(ctx, record.Mutation{ID: b.ID, Actor: "clerk"}, resolution.Patch{Number: &fresh})
	require.NoError(t, err)
	require.Equal(t, "R-003-2025", got.Number)
}

func TestService_CheckReference(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	parent := createParent(t, svc, "R-001-2025", "c1")
	child, err := svc.CreateChild(ctx, "clerk", parent.ID, draft("R-002-2025"))
	require.NoError(t, err)

	require.NoError(t, svc.CheckReference(ctx, child.ID, "c1"))
	require.ErrorIs(t, svc.CheckReference(ctx, child.ID, "c2"), record.ErrInconsistent)
	require.ErrorIs(t, svc.CheckReference(ctx, "missing", "c1"), record.ErrInconsistent)
}

func TestService_ChildrenAndCompanyFilter(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p1 := createParent(t, svc, "R-001-2025", "c1")
	createParent(t, svc, "R-009-2025", "c2")

	late := draft("R-003-2025")
	late.IssueDate = now
	_, err := svc.CreateChild(ctx, "clerk", p1.ID, late)
	require.NoError(t, err)
	early, err := svc.CreateChild(ctx, "clerk", p1.ID, draft("R-002-2025"))
	require.NoError(t, err)
	_, err = svc.SoftDelete(ctx, record.Mutation{ID: early.ID, Actor: "clerk", Reason: "typo"})
	require.NoError(t, err)

	children, err := svc.Children(ctx, p1.ID, record.ScopeAll)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, "R-002-2025", children[0].Number)
	require.Equal(t, "R-003-2025", children[1].Number)

	children, err = svc.Children(ctx, p1.ID, record.ScopeActive)
	require.NoError(t, err)
	require.Len(t, children, 1)

	page, err := svc.List(ctx, resolution.Filter{CompanyID: "c1", Scope: record.ScopeAll, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)

	page, err = svc.List(ctx, resolution.Filter{CompanyID: "c1", Kind: resolution.KindChild, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "R-003-2025", page.Items[0].Number)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	p := createParent(t, svc, "R-001-2025", "c1")

	old := draft("R-002-2025")
	old.ProcedureType = resolution.ProcedureRenewal
	old.ValidityEnd = now.AddDate(0, 0, -1)
	old.Active = false
	_, err := svc.CreateChild(ctx, "clerk", p.ID, old)
	require.NoError(t, err)

	rep, err := svc.Stats(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Total)
	require.Equal(t, 1, rep.Active)
	require.Equal(t, 1, rep.InForce)
	require.Equal(t, 1, rep.Expired)
	require.Equal(t, 1, rep.Parents)
	require.Equal(t, 1, rep.Children)
	require.Equal(t, 1, rep.ByProcedure[resolution.ProcedureRenewal])
}
