package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
	"github.com/rpggio/padron/internal/repository"
)

// Store implements record.Store for one entity kind as JSON documents in the
// records table.
type Store[T any, P record.Entity[T]] struct {
	db   *DB
	kind audit.EntityKind
}

// NewStore creates a store for records of the given kind.
func NewStore[T any, P record.Entity[T]](db *DB, kind audit.EntityKind) *Store[T, P] {
	return &Store[T, P]{db: db, kind: kind}
}

// Get retrieves a record by ID
func (s *Store[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE kind = ? AND id = ?`, s.kind, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, repository.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", s.kind, err)
	}
	return s.decode(payload)
}

// List returns every record of the kind in scope.
func (s *Store[T, P]) List(ctx context.Context, scope record.Scope) ([]T, error) {
	query := `SELECT payload FROM records WHERE kind = ?`
	switch scope {
	case record.ScopeAll:
	case record.ScopeDeleted:
		query += ` AND deleted = 1`
	default:
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.kind, err)
		}
		rec, err := s.decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.kind, err)
	}
	return out, nil
}

// Insert stores a new record.
func (s *Store[T, P]) Insert(ctx context.Context, rec T) error {
	meta := P(&rec).Base()
	if meta.ID == "" {
		return repository.ErrInvalidInput
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.kind, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (kind, id, version, deleted, deleted_at, created_at, modified_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.kind, meta.ID, meta.Version, meta.Deleted, deletedAt(meta),
		formatTime(meta.CreatedAt), formatTime(meta.ModifiedAt), string(payload),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert %s: %w", s.kind, err)
	}
	return nil
}

// Replace overwrites a record with optimistic concurrency control
func (s *Store[T, P]) Replace(ctx context.Context, rec T, expectedVersion int64) error {
	meta := P(&rec).Base()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.kind, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET version = ?, deleted = ?, deleted_at = ?, modified_at = ?, payload = ?
		WHERE kind = ? AND id = ? AND version = ?`,
		meta.Version, meta.Deleted, deletedAt(meta), formatTime(meta.ModifiedAt), string(payload),
		s.kind, meta.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", s.kind, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM records WHERE kind = ? AND id = ?)`, s.kind, meta.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check %s existence: %w", s.kind, err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Record exists but version doesn't match - conflict
		return repository.ErrConflict
	}
	return nil
}

// Delete removes a record permanently.
func (s *Store[T, P]) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, s.kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store[T, P]) decode(payload string) (T, error) {
	var rec T
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return rec, fmt.Errorf("failed to decode %s: %w", s.kind, err)
	}
	return rec, nil
}

func deletedAt(meta *record.Meta) any {
	if meta.DeletedAt == nil {
		return nil
	}
	return formatTime(*meta.DeletedAt)
}
