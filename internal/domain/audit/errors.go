package audit

import "errors"

var (
	// ErrInvalidInput indicates an event is missing required fields.
	ErrInvalidInput = errors.New("invalid audit event")
	// ErrUnknownEntity indicates a payload decoder was asked for an unregistered kind.
	ErrUnknownEntity = errors.New("unknown audit entity kind")
)
