package mocks

import (
	"context"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for record.Store.
type Store[T any] struct {
	mock.Mock
}

func (m *Store[T]) Get(ctx context.Context, id string) (T, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(T); ok {
		return rec, args.Error(1)
	}
	var zero T
	return zero, args.Error(1)
}

func (m *Store[T]) List(ctx context.Context, scope record.Scope) ([]T, error) {
	args := m.Called(ctx, scope)
	if list, ok := args.Get(0).([]T); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store[T]) Insert(ctx context.Context, rec T) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *Store[T]) Replace(ctx context.Context, rec T, expectedVersion int64) error {
	args := m.Called(ctx, rec, expectedVersion)
	return args.Error(0)
}

func (m *Store[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AuditRepository is a mock for audit.Repository.
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Append(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *AuditRepository) ForRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	args := m.Called(ctx, recordID)
	if list, ok := args.Get(0).([]audit.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]audit.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// AuditRecorder is a mock for record.AuditRecorder.
type AuditRecorder struct {
	mock.Mock
}

func (m *AuditRecorder) Record(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
