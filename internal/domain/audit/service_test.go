package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type thing struct{ Name string }

func (*thing) AuditKind() audit.EntityKind { return "thing" }

func TestRecorder_RecordStampsTime(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	repo := &mocks.AuditRepository{}
	repo.On("Append", ctx, mock.MatchedBy(func(e *audit.Event) bool {
		return e.OccurredAt.Equal(at) && e.RecordID == "t1"
	})).Return(nil)

	r := audit.NewRecorder(repo, func() time.Time { return at }, nil)
	err := r.Record(ctx, &audit.Event{
		Entity: "thing", RecordID: "t1", Kind: audit.EventCreate, Actor: "ana", After: &thing{Name: "x"},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecorder_RecordValidatesShape(t *testing.T) {
	ctx := context.Background()
	r := audit.NewRecorder(&mocks.AuditRepository{}, nil, nil)
	p := &thing{}

	cases := map[string]*audit.Event{
		"nil":              nil,
		"no actor":         {Entity: "thing", RecordID: "t1", Kind: audit.EventCreate, After: p},
		"no record":        {Entity: "thing", Kind: audit.EventCreate, Actor: "a", After: p},
		"create no after":  {Entity: "thing", RecordID: "t1", Kind: audit.EventCreate, Actor: "a"},
		"purge no before":  {Entity: "thing", RecordID: "t1", Kind: audit.EventPurge, Actor: "a", After: p},
		"update one side":  {Entity: "thing", RecordID: "t1", Kind: audit.EventUpdate, Actor: "a", After: p},
		"restore one side": {Entity: "thing", RecordID: "t1", Kind: audit.EventRestore, Actor: "a", Before: p},
		"unknown event":    {Entity: "thing", RecordID: "t1", Kind: "TOUCH", Actor: "a", Before: p, After: p},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, r.Record(ctx, e), audit.ErrInvalidInput)
		})
	}
}

func TestRecorder_RecordWrapsRepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AuditRepository{}
	boom := errors.New("boom")
	repo.On("Append", ctx, mock.Anything).Return(boom)

	r := audit.NewRecorder(repo, nil, nil)
	err := r.Record(ctx, &audit.Event{Entity: "thing", RecordID: "t1", Kind: audit.EventDelete, Actor: "a", Before: &thing{}, After: &thing{}})
	require.ErrorIs(t, err, boom)
}

func TestRecorder_Queries(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AuditRepository{}
	events := []audit.Event{{ID: 1, RecordID: "t1"}}
	repo.On("ForRecord", ctx, "t1").Return(events, nil)
	repo.On("List", ctx, audit.ListOptions{Entity: "thing", Limit: 5}).Return(events, nil)

	r := audit.NewRecorder(repo, nil, nil)

	got, err := r.ForRecord(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, events, got)

	_, err = r.ForRecord(ctx, " ")
	require.ErrorIs(t, err, audit.ErrInvalidInput)

	got, err = r.Stream(ctx, audit.ListOptions{Entity: "thing", Limit: 5})
	require.NoError(t, err)
	require.Equal(t, events, got)

	_, err = r.Stream(ctx, audit.ListOptions{})
	require.ErrorIs(t, err, audit.ErrInvalidInput)
	repo.AssertExpectations(t)
}
