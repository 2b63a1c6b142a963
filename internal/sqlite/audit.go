package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/padron/internal/domain/audit"
)

// AuditRepository implements audit.Repository for SQLite. Payloads are
// stored as JSON and rebuilt through decode.
type AuditRepository struct {
	db     *DB
	decode audit.Decoder
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *DB, decode audit.Decoder) *AuditRepository {
	return &AuditRepository{db: db, decode: decode}
}

// Append inserts a new audit event and assigns its ID.
func (r *AuditRepository) Append(ctx context.Context, event *audit.Event) error {
	before, err := encodePayload(event.Before)
	if err != nil {
		return err
	}
	after, err := encodePayload(event.After)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			entity, record_id, kind, version, actor, reason, note,
			occurred_at, before_payload, after_payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Entity, event.RecordID, event.Kind, event.Version, event.Actor,
		event.Reason, event.Note, formatTime(event.OccurredAt), before, after,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		event.ID = id
	}
	return nil
}

// ForRecord returns every event of a record, oldest first.
func (r *AuditRepository) ForRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	return r.query(ctx, `WHERE record_id = ? ORDER BY id ASC`, recordID)
}

// List returns events matching the given filters, newest first.
func (r *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error) {
	args := []interface{}{}
	conditions := []string{}

	if opts.Entity != "" {
		conditions = append(conditions, "entity = ?")
		args = append(args, opts.Entity)
	}
	if opts.RecordID != nil {
		conditions = append(conditions, "record_id = ?")
		args = append(args, *opts.RecordID)
	}
	if opts.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *opts.Kind)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = "WHERE " + strings.Join(conditions, " AND ")
	}
	clause += " ORDER BY id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	clause += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	return r.query(ctx, clause, args...)
}

func (r *AuditRepository) query(ctx context.Context, clause string, args ...interface{}) ([]audit.Event, error) {
	query := `
		SELECT id, entity, record_id, kind, version, actor, reason, note,
		       occurred_at, before_payload, after_payload
		FROM audit_events ` + clause

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var reason, note, before, after sql.NullString
		var occurredAt string
		if err := rows.Scan(
			&e.ID, &e.Entity, &e.RecordID, &e.Kind, &e.Version, &e.Actor,
			&reason, &note, &occurredAt, &before, &after,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Reason = reason.String
		e.Note = note.String
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		if e.Before, err = r.decodePayload(e.Entity, before); err != nil {
			return nil, err
		}
		if e.After, err = r.decodePayload(e.Entity, after); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}

func (r *AuditRepository) decodePayload(kind audit.EntityKind, data sql.NullString) (audit.Payload, error) {
	if !data.Valid || r.decode == nil {
		return nil, nil
	}
	p, err := r.decode(kind, []byte(data.String))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return p, nil
}

func encodePayload(p audit.Payload) (any, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.AuditKind(), err)
	}
	return string(data), nil
}
