package permit_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/fleet"
	"github.com/rpggio/padron/internal/domain/permit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/domain/resolution"
	"github.com/rpggio/padron/internal/memory"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type fixture struct {
	permits     *permit.Service
	vehicles    *fleet.VehicleService
	resolutions *resolution.Service
	audit       *audit.Recorder
}

func newFixture() *fixture {
	recorder := audit.NewRecorder(memory.NewAuditRepository(), clock, nil)
	resolutions := resolution.NewService(record.Config[resolution.Resolution, *resolution.Resolution]{
		Store: memory.NewStore[resolution.Resolution](), Audit: recorder, Clock: clock,
	})
	vehicles := fleet.NewVehicleService(record.Config[fleet.Vehicle, *fleet.Vehicle]{
		Store: memory.NewStore[fleet.Vehicle](), Audit: recorder, Clock: clock,
	}, nil, resolutions)
	permits := permit.NewService(record.Config[permit.Permit, *permit.Permit]{
		Store: memory.NewStore[permit.Permit](), Audit: recorder, Clock: clock,
	}, vehicles, resolutions)
	return &fixture{permits: permits, vehicles: vehicles, resolutions: resolutions, audit: recorder}
}

func issue(vehicleID, companyID string) permit.Permit {
	return permit.Permit{
		VehicleID:  vehicleID,
		CompanyID:  companyID,
		IssueDate:  now.AddDate(-1, 0, 0),
		ExpiryDate: now.AddDate(1, 0, 0),
	}
}

func TestService_CreateAssignsNumberAndState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first, err := f.permits.Create(ctx, "clerk", issue("v1", "c1"))
	require.NoError(t, err)
	require.Equal(t, permit.StateValid, first.State)
	require.Equal(t, "T-000001-2024", first.Number)

	second, err := f.permits.Create(ctx, "clerk", issue("v2", "c1"))
	require.NoError(t, err)
	require.Equal(t, "T-000002-2024", second.Number)

	dup := issue("v3", "c1")
	dup.Number = first.Number
	_, err = f.permits.Create(ctx, "clerk", dup)
	require.ErrorIs(t, err, record.ErrConflict)

	found, err := f.permits.GetByNumber(ctx, second.Number)
	require.NoError(t, err)
	require.Equal(t, second.ID, found.ID)
}

func TestService_CreateRejectsExpiryBeforeIssue(t *testing.T) {
	p := issue("v1", "c1")
	p.ExpiryDate = p.IssueDate.Add(-time.Hour)
	_, err := newFixture().permits.Create(context.Background(), "clerk", p)
	require.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestService_DiscardReasonInvariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p, err := f.permits.Create(ctx, "clerk", issue("v1", "c1"))
	require.NoError(t, err)

	for _, state := range []permit.State{permit.StateDiscarded, permit.StateWithdrawn} {
		_, err = f.permits.ChangeState(ctx, record.Mutation{ID: p.ID, Actor: "clerk"}, state)
		require.ErrorIs(t, err, record.ErrInvalidInput, state)
	}

	got, err := f.permits.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, permit.StateValid, got.State)
	require.Equal(t, int64(1), got.Version)

	withdrawn, err := f.permits.ChangeState(ctx, record.Mutation{ID: p.ID, Actor: "clerk", Reason: "vehicle sold"}, permit.StateWithdrawn)
	require.NoError(t, err)
	require.Equal(t, "vehicle sold", withdrawn.DiscardReason)
	require.Equal(t, int64(2), withdrawn.Version)

	_, err = f.permits.ChangeState(ctx, record.Mutation{ID: p.ID, Actor: "clerk", Reason: "again"}, permit.StateWithdrawn)
	require.ErrorIs(t, err, record.ErrConflict)

	valid, err := f.permits.ChangeState(ctx, record.Mutation{ID: p.ID, Actor: "clerk"}, permit.StateValid)
	require.NoError(t, err)
	require.Empty(t, valid.DiscardReason)

	events, err := f.audit.ForRecord(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "vehicle sold", events[1].Reason)
	before := events[1].Before.(*permit.Permit)
	after := events[1].After.(*permit.Permit)
	require.Equal(t, permit.StateValid, before.State)
	require.Equal(t, permit.StateWithdrawn, after.State)
}

func TestService_ExpireDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	overdue := issue("v1", "c1")
	overdue.ExpiryDate = now.Add(-time.Hour)
	expired, err := f.permits.Create(ctx, "clerk", overdue)
	require.NoError(t, err)

	suspended := issue("v2", "c1")
	suspended.ExpiryDate = now.Add(-time.Hour)
	suspended.State = permit.StateSuspended
	_, err = f.permits.Create(ctx, "clerk", suspended)
	require.NoError(t, err)

	current, err := f.permits.Create(ctx, "clerk", issue("v3", "c1"))
	require.NoError(t, err)

	done, err := f.permits.ExpireDue(ctx, "scheduler", now)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, expired.ID, done[0].ID)
	require.Equal(t, permit.StateExpired, done[0].State)
	require.Equal(t, int64(2), done[0].Version)

	again, err := f.permits.ExpireDue(ctx, "scheduler", now)
	require.NoError(t, err)
	require.Empty(t, again)

	stats, err := f.permits.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 1, stats.ByState[permit.StateExpired])
	require.Equal(t, 1, stats.ByState[permit.StateSuspended])
	require.Equal(t, 1, stats.ByState[permit.StateValid])
	require.Equal(t, 0, stats.ByState[permit.StateDiscarded])

	page, err := f.permits.List(ctx, permit.Filter{State: permit.StateValid, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, current.ID, page.Items[0].ID)
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	parent, err := f.resolutions.CreateParent(ctx, "clerk", resolution.Resolution{
		Number:        "R-0100-2024",
		CompanyID:     "c1",
		ProcedureType: resolution.ProcedureVehicleLicensing,
		IssueDate:     now.AddDate(-1, 0, 0),
		ValidityStart: now.AddDate(-1, 0, 0),
		ValidityEnd:   now.AddDate(4, 0, 0),
		Active:        true,
	})
	require.NoError(t, err)
	v, err := f.vehicles.Create(ctx, "clerk", fleet.Vehicle{Plate: "V1B123", CompanyID: "c1", ResolutionID: parent.ID})
	require.NoError(t, err)

	good := issue(v.ID, "c1")
	good.ParentResolutionID = parent.ID
	p, err := f.permits.Create(ctx, "clerk", good)
	require.NoError(t, err)
	require.NoError(t, f.permits.Verify(ctx, p.ID))

	// References are not enforced on write.
	dangling, err := f.permits.Create(ctx, "clerk", issue("missing", "c1"))
	require.NoError(t, err)
	require.ErrorIs(t, f.permits.Verify(ctx, dangling.ID), record.ErrInconsistent)

	wrongCompany := issue(v.ID, "c2")
	wrongCompany.ParentResolutionID = parent.ID
	p2, err := f.permits.Create(ctx, "clerk", wrongCompany)
	require.NoError(t, err)
	require.ErrorIs(t, f.permits.Verify(ctx, p2.ID), record.ErrInconsistent)

	_, err = f.resolutions.SoftDelete(ctx, record.Mutation{ID: parent.ID, Actor: "clerk", Reason: "annulled"})
	require.NoError(t, err)
	require.NoError(t, f.permits.Verify(ctx, p.ID))
}
