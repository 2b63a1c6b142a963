package audit

import "time"

// EntityKind names the record collection an event belongs to.
type EntityKind string

const (
	EntityCompany    EntityKind = "company"
	EntityVehicle    EntityKind = "vehicle"
	EntityDriver     EntityKind = "driver"
	EntityRoute      EntityKind = "route"
	EntityResolution EntityKind = "resolution"
	EntityPermit     EntityKind = "permit"
	EntityCaseFile   EntityKind = "casefile"
)

// Kinds lists every entity kind with its own audit stream.
var Kinds = []EntityKind{
	EntityCompany,
	EntityVehicle,
	EntityDriver,
	EntityRoute,
	EntityResolution,
	EntityPermit,
	EntityCaseFile,
}

// EventKind represents the mutation an event describes
type EventKind string

const (
	EventCreate  EventKind = "CREATE"
	EventUpdate  EventKind = "UPDATE"
	EventDelete  EventKind = "DELETE"
	EventRestore EventKind = "RESTORE"
	EventPurge   EventKind = "PURGE"
)

// Payload is a typed snapshot of an entity carried by an event.
// Implementations are the entity types themselves, so consumers can type
// switch on Before/After and handle every kind exhaustively.
type Payload interface {
	AuditKind() EntityKind
}

// Event is one append-only entry in an entity kind's audit stream.
type Event struct {
	ID         int64      `json:"id"`
	Entity     EntityKind `json:"entity"`
	RecordID   string     `json:"record_id"`
	Kind       EventKind  `json:"kind"`
	Version    int64      `json:"version"`
	Actor      string     `json:"actor"`
	Reason     string     `json:"reason,omitempty"`
	Note       string     `json:"note,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
	Before     Payload    `json:"before,omitempty"` // nil for CREATE
	After      Payload    `json:"after,omitempty"`  // nil for PURGE
}

// Decoder rebuilds a typed payload from its stored JSON form.
type Decoder func(kind EntityKind, data []byte) (Payload, error)
