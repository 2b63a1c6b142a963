// Package memory provides in-memory record and audit stores used for tests
// and ephemeral environments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/repository"
)

// Store keeps records of one kind in a map. Values are deep-copied on the
// way in and out so callers never share state with the store.
type Store[T any, P record.Entity[T]] struct {
	mu      sync.RWMutex
	records map[string]T
}

// NewStore creates an empty store.
func NewStore[T any, P record.Entity[T]]() *Store[T, P] {
	return &Store[T, P]{records: make(map[string]T)}
}

func (s *Store[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return zero, repository.ErrNotFound
	}
	return clone(rec)
}

func (s *Store[T, P]) List(ctx context.Context, scope record.Scope) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.records))
	for _, rec := range s.records {
		if !scope.Includes(P(&rec).Base().Deleted) {
			continue
		}
		cp, err := clone(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *Store[T, P]) Insert(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := P(&rec).Base().ID
	if id == "" {
		return repository.ErrInvalidInput
	}
	cp, err := clone(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; exists {
		return repository.ErrDuplicate
	}
	s.records[id] = cp
	return nil
}

func (s *Store[T, P]) Replace(ctx context.Context, rec T, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := P(&rec).Base().ID
	cp, err := clone(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if P(&stored).Base().Version != expectedVersion {
		return repository.ErrConflict
	}
	s.records[id] = cp
	return nil
}

func (s *Store[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func clone[T any](rec T) (T, error) {
	var out T
	data, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("copying record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("copying record: %w", err)
	}
	return out, nil
}
