package record

import "time"

// Scope selects records by soft-delete status.
type Scope string

const (
	ScopeActive  Scope = "ACTIVE_ONLY"
	ScopeDeleted Scope = "DELETED_ONLY"
	ScopeAll     Scope = "ALL"
)

// ScopeFromFlags maps the legacy includeDeleted/onlyDeleted flags onto a Scope.
// onlyDeleted wins when both are set.
func ScopeFromFlags(includeDeleted, onlyDeleted bool) Scope {
	switch {
	case onlyDeleted:
		return ScopeDeleted
	case includeDeleted:
		return ScopeAll
	default:
		return ScopeActive
	}
}

// Valid reports whether s is a known scope. The empty scope means ScopeActive.
func (s Scope) Valid() bool {
	switch s {
	case "", ScopeActive, ScopeDeleted, ScopeAll:
		return true
	}
	return false
}

// Includes reports whether a record with the given deleted flag is in scope.
func (s Scope) Includes(deleted bool) bool {
	switch s {
	case ScopeDeleted:
		return deleted
	case ScopeAll:
		return true
	default:
		return !deleted
	}
}

// Query describes a filtered, paginated list request.
type Query[T any] struct {
	Scope       Scope
	Match       func(*T) bool
	Less        func(a, b *T) bool
	DeletedFrom *time.Time
	DeletedTo   *time.Time
	Page        int
	PageSize    int
}

// Mutation identifies the record and actor of a mutating operation.
// ExpectedVersion, when non-zero, must equal the stored version.
type Mutation struct {
	ID              string
	Actor           string
	Reason          string
	Note            string
	ExpectedVersion int64
}

// Page is one slice of a list result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}
