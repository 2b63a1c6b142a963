package record

import (
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
)

// Meta carries identity, soft-delete and audit fields shared by every entity.
type Meta struct {
	ID           string     `json:"id"`
	Deleted      bool       `json:"deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeletedBy    *string    `json:"deleted_by,omitempty"`
	DeleteReason *string    `json:"delete_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by"`
	ModifiedAt   time.Time  `json:"modified_at"`
	ModifiedBy   string     `json:"modified_by"`
	Version      int64      `json:"version"`
}

// Base returns the metadata itself; entities embed Meta to satisfy Entity.
func (m *Meta) Base() *Meta { return m }

// Entity is implemented by a pointer to every record type.
type Entity[T any] interface {
	*T
	Base() *Meta
	audit.Payload
}

func (m *Meta) markDeleted(at time.Time, actor, reason string) {
	m.Deleted = true
	m.DeletedAt = &at
	m.DeletedBy = &actor
	m.DeleteReason = &reason
}

func (m *Meta) clearDeleted() {
	m.Deleted = false
	m.DeletedAt = nil
	m.DeletedBy = nil
	m.DeleteReason = nil
}

func (m *Meta) touch(at time.Time, actor string) {
	m.ModifiedAt = at
	m.ModifiedBy = actor
	m.Version++
}
