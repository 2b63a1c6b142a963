package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rpggio/padron/internal/domain/audit"
)

// AuditRepository is an append-only in-memory audit log.
type AuditRepository struct {
	mu     sync.RWMutex
	events []audit.Event
}

// NewAuditRepository creates an empty audit log.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(ctx context.Context, event *audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *event)
	return nil
}

func (r *AuditRepository) ForRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []audit.Event
	for _, e := range r.events {
		if opts.Entity != "" && e.Entity != opts.Entity {
			continue
		}
		if opts.RecordID != nil && e.RecordID != *opts.RecordID {
			continue
		}
		if opts.Kind != nil && e.Kind != *opts.Kind {
			continue
		}
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}
