package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/lock"
	"github.com/rpggio/padron/internal/repository"
)

// ErrAuditIncomplete is returned alongside a committed record when the audit
// event for the mutation could not be appended.
var ErrAuditIncomplete = errors.New("mutation committed but audit event not recorded")

// Config wires a Service.
type Config[T any, P Entity[T]] struct {
	Entity   audit.EntityKind
	Store    Store[T]
	Audit    AuditRecorder
	Locks    Locker
	Clock    Clock
	NewID    func() string
	Validate func(P) error
	Observer Observer
	Logger   *slog.Logger
}

// Service enforces the record lifecycle for one entity kind: versioning,
// audit stamping, soft delete, restore and purge.
type Service[T any, P Entity[T]] struct {
	entity   audit.EntityKind
	store    Store[T]
	audit    AuditRecorder
	locks    Locker
	clock    Clock
	newID    func() string
	validate func(P) error
	observer Observer
	logger   *slog.Logger
}

// NewService creates a new versioned record service.
func NewService[T any, P Entity[T]](cfg Config[T, P]) *Service[T, P] {
	s := &Service[T, P]{
		entity:   cfg.Entity,
		store:    cfg.Store,
		audit:    cfg.Audit,
		locks:    cfg.Locks,
		clock:    cfg.Clock,
		newID:    cfg.NewID,
		validate: cfg.Validate,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
	if s.locks == nil {
		s.locks = lock.NewLocal()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Entity returns the kind this service manages.
func (s *Service[T, P]) Entity() audit.EntityKind { return s.entity }

// Create stores a new record with version 1 and emits a CREATE event.
func (s *Service[T, P]) Create(ctx context.Context, actor string, rec T) (result T, err error) {
	defer s.observe("create", &err)

	if strings.TrimSpace(actor) == "" {
		return result, Invalid(s.entity, "", "actor required")
	}

	now := s.clock()
	*P(&rec).Base() = Meta{
		ID:         s.newID(),
		CreatedAt:  now,
		CreatedBy:  actor,
		ModifiedAt: now,
		ModifiedBy: actor,
		Version:    1,
	}
	if s.validate != nil {
		if err := s.validate(&rec); err != nil {
			return result, err
		}
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return result, s.storeError(P(&rec).Base().ID, "creating", err)
	}
	s.logger.Debug("record created", "kind", s.entity, "id", P(&rec).Base().ID, "actor", actor)

	return rec, s.record(ctx, audit.EventCreate, actor, "", "", nil, &rec)
}

// Get returns a record by id, whether or not it is soft-deleted.
func (s *Service[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, Invalid(s.entity, id, "id required")
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, s.storeError(id, "getting", err)
	}
	return rec, nil
}

// List returns a page of records matching q.
func (s *Service[T, P]) List(ctx context.Context, q Query[T]) (page Page[T], err error) {
	defer s.observe("list", &err)

	if q.Page < 1 || q.PageSize < 1 || !q.Scope.Valid() {
		return page, Invalid(s.entity, "", "page and page size must be positive")
	}
	items, err := s.store.List(ctx, storeScope(q))
	if err != nil {
		return page, fmt.Errorf("listing %s: %w", s.entity, err)
	}
	return Paginate[T, P](ctx, items, q)
}

// All returns every record in scope accepted by match, unpaginated.
func (s *Service[T, P]) All(ctx context.Context, scope Scope, match func(*T) bool) ([]T, error) {
	if !scope.Valid() {
		return nil, Invalid(s.entity, "", "unknown scope")
	}
	items, err := s.store.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.entity, err)
	}
	out := items[:0]
	for i := range items {
		if !scope.Includes(P(&items[i]).Base().Deleted) {
			continue
		}
		if match == nil || match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Update applies changes to a live record, bumps its version and emits an
// UPDATE event. apply must not touch the record metadata; any change to it
// is discarded.
func (s *Service[T, P]) Update(ctx context.Context, m Mutation, apply func(P) error) (result T, err error) {
	defer s.observe("update", &err)

	if err := s.checkMutation(m); err != nil {
		return result, err
	}
	unlock, err := s.lock(ctx, m.ID)
	if err != nil {
		return result, err
	}
	defer unlock()

	current, err := s.Get(ctx, m.ID)
	if err != nil {
		return result, err
	}
	meta := *P(&current).Base()
	if meta.Deleted {
		return result, Conflict(s.entity, m.ID, "deleted", "restore before updating")
	}
	if err := s.checkVersion(m, meta.Version); err != nil {
		return result, err
	}

	next := current
	if err := apply(&next); err != nil {
		return result, err
	}
	*P(&next).Base() = meta
	if s.validate != nil {
		if err := s.validate(&next); err != nil {
			return result, err
		}
	}
	P(&next).Base().touch(s.clock(), m.Actor)

	if err := s.store.Replace(ctx, next, meta.Version); err != nil {
		return result, s.storeError(m.ID, "updating", err)
	}
	s.logger.Debug("record updated", "kind", s.entity, "id", m.ID, "version", P(&next).Base().Version, "actor", m.Actor)

	return next, s.record(ctx, audit.EventUpdate, m.Actor, m.Reason, m.Note, &current, &next)
}

// SoftDelete marks a record deleted. Deleting an already deleted record
// succeeds without changing it.
func (s *Service[T, P]) SoftDelete(ctx context.Context, m Mutation) (result T, err error) {
	defer s.observe("delete", &err)

	if err := s.checkMutation(m); err != nil {
		return result, err
	}
	if strings.TrimSpace(m.Reason) == "" {
		return result, Invalid(s.entity, m.ID, "delete reason required")
	}
	unlock, err := s.lock(ctx, m.ID)
	if err != nil {
		return result, err
	}
	defer unlock()

	current, err := s.Get(ctx, m.ID)
	if err != nil {
		return result, err
	}
	meta := P(&current).Base()
	if meta.Deleted {
		return current, nil
	}
	if err := s.checkVersion(m, meta.Version); err != nil {
		return result, err
	}

	next := current
	now := s.clock()
	P(&next).Base().markDeleted(now, m.Actor, m.Reason)
	P(&next).Base().touch(now, m.Actor)

	if err := s.store.Replace(ctx, next, meta.Version); err != nil {
		return result, s.storeError(m.ID, "deleting", err)
	}
	s.logger.Debug("record deleted", "kind", s.entity, "id", m.ID, "actor", m.Actor)

	return next, s.record(ctx, audit.EventDelete, m.Actor, m.Reason, "", &current, &next)
}

// Restore clears the soft-delete marker of a deleted record.
func (s *Service[T, P]) Restore(ctx context.Context, m Mutation) (result T, err error) {
	defer s.observe("restore", &err)

	if err := s.checkMutation(m); err != nil {
		return result, err
	}
	unlock, err := s.lock(ctx, m.ID)
	if err != nil {
		return result, err
	}
	defer unlock()

	current, err := s.Get(ctx, m.ID)
	if err != nil {
		return result, err
	}
	meta := P(&current).Base()
	if !meta.Deleted {
		return result, Conflict(s.entity, m.ID, "active", "record is not deleted")
	}
	if err := s.checkVersion(m, meta.Version); err != nil {
		return result, err
	}

	next := current
	P(&next).Base().clearDeleted()
	P(&next).Base().touch(s.clock(), m.Actor)

	if err := s.store.Replace(ctx, next, meta.Version); err != nil {
		return result, s.storeError(m.ID, "restoring", err)
	}
	s.logger.Debug("record restored", "kind", s.entity, "id", m.ID, "actor", m.Actor)

	return next, s.record(ctx, audit.EventRestore, m.Actor, m.Reason, "", &current, &next)
}

// Purge irreversibly removes a soft-deleted record.
func (s *Service[T, P]) Purge(ctx context.Context, m Mutation) (err error) {
	defer s.observe("purge", &err)

	if err := s.checkMutation(m); err != nil {
		return err
	}
	unlock, err := s.lock(ctx, m.ID)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	if !P(&current).Base().Deleted {
		return Conflict(s.entity, m.ID, "active", "soft-delete before purging")
	}

	if err := s.store.Delete(ctx, m.ID); err != nil {
		return s.storeError(m.ID, "purging", err)
	}
	s.logger.Debug("record purged", "kind", s.entity, "id", m.ID, "actor", m.Actor)

	return s.record(ctx, audit.EventPurge, m.Actor, m.Reason, "", &current, nil)
}

// Lock serializes callers on an arbitrary key within this entity kind, such
// as a natural key that must stay unique. It is not reentrant.
func (s *Service[T, P]) Lock(ctx context.Context, key string) (func(), error) {
	return s.lock(ctx, key)
}

func (s *Service[T, P]) checkMutation(m Mutation) error {
	if strings.TrimSpace(m.ID) == "" {
		return Invalid(s.entity, m.ID, "id required")
	}
	if strings.TrimSpace(m.Actor) == "" {
		return Invalid(s.entity, m.ID, "actor required")
	}
	return nil
}

func (s *Service[T, P]) checkVersion(m Mutation, stored int64) error {
	if m.ExpectedVersion != 0 && m.ExpectedVersion != stored {
		return Conflict(s.entity, m.ID, "", fmt.Sprintf("expected version %d, stored version %d", m.ExpectedVersion, stored))
	}
	return nil
}

func (s *Service[T, P]) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, string(s.entity)+":"+id)
	if err != nil {
		return nil, fmt.Errorf("locking %s %s: %w", s.entity, id, err)
	}
	return unlock, nil
}

func (s *Service[T, P]) storeError(id, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NotFound(s.entity, id)
	case errors.Is(err, repository.ErrConflict):
		return Conflict(s.entity, id, "", "modified concurrently")
	case errors.Is(err, repository.ErrDuplicate):
		return Conflict(s.entity, id, "", "duplicate id")
	default:
		return fmt.Errorf("%s %s %s: %w", op, s.entity, id, err)
	}
}

func (s *Service[T, P]) record(ctx context.Context, kind audit.EventKind, actor, reason, note string, before, after *T) error {
	if s.audit == nil {
		return nil
	}
	event := &audit.Event{
		Entity: s.entity,
		Kind:   kind,
		Actor:  actor,
		Reason: reason,
		Note:   note,
	}
	if before != nil {
		event.RecordID = P(before).Base().ID
		event.Version = P(before).Base().Version
		event.Before = P(before)
	}
	if after != nil {
		event.RecordID = P(after).Base().ID
		event.Version = P(after).Base().Version
		event.After = P(after)
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Error("audit append failed", "kind", s.entity, "id", event.RecordID, "event", kind, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrAuditIncomplete, s.entity, event.RecordID, err)
	}
	return nil
}

func (s *Service[T, P]) observe(op string, err *error) {
	if s.observer != nil {
		s.observer.Observe(s.entity, op, *err)
	}
}

func storeScope[T any](q Query[T]) Scope {
	if q.Scope == "" {
		return ScopeActive
	}
	return q.Scope
}
