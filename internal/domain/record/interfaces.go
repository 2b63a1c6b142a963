package record

import (
	"context"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
)

// Store provides persistence for one entity kind.
// Get returns repository.ErrNotFound for unknown ids; Replace returns
// repository.ErrConflict when the stored version differs from expectedVersion.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, scope Scope) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Replace(ctx context.Context, rec T, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}

// AuditRecorder receives one event per committed mutation.
type AuditRecorder interface {
	Record(ctx context.Context, event *audit.Event) error
}

// Locker serializes read-modify-write cycles on a single key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Clock supplies timestamps.
type Clock func() time.Time

// Observer is notified of every finished operation.
type Observer interface {
	Observe(entity audit.EntityKind, op string, err error)
}
