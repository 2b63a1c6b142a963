package audit

// ListOptions provides filtering options for listing audit events.
type ListOptions struct {
	Entity   EntityKind
	RecordID *string
	Kind     *EventKind
	Limit    int
	Offset   int
}
