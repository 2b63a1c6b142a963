package audit

import "context"

// Repository provides append-only persistence for audit events.
type Repository interface {
	Append(ctx context.Context, event *Event) error
	ForRecord(ctx context.Context, recordID string) ([]Event, error)
	List(ctx context.Context, opts ListOptions) ([]Event, error)
}
