package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Recorder appends and reads audit streams.
type Recorder struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

// NewRecorder creates a new audit recorder.
func NewRecorder(repo Repository, now func() time.Time, logger *slog.Logger) *Recorder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{repo: repo, now: now, logger: logger}
}

// Record validates and appends an event, stamping OccurredAt when missing.
func (r *Recorder) Record(ctx context.Context, event *Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now()
	}
	if err := r.repo.Append(ctx, event); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	r.logger.Debug("audit event appended", "entity", event.Entity, "record_id", event.RecordID, "kind", event.Kind, "id", event.ID)
	return nil
}

// ForRecord returns every event of a record, oldest first.
func (r *Recorder) ForRecord(ctx context.Context, recordID string) ([]Event, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, ErrInvalidInput
	}
	return r.repo.ForRecord(ctx, recordID)
}

// Stream lists events of one entity kind, newest first.
func (r *Recorder) Stream(ctx context.Context, opts ListOptions) ([]Event, error) {
	if opts.Entity == "" {
		return nil, ErrInvalidInput
	}
	return r.repo.List(ctx, opts)
}

func validateEvent(event *Event) error {
	if event == nil {
		return ErrInvalidInput
	}
	if event.Entity == "" || event.RecordID == "" || event.Kind == "" || event.Actor == "" {
		return ErrInvalidInput
	}
	switch event.Kind {
	case EventCreate:
		if event.After == nil {
			return ErrInvalidInput
		}
	case EventPurge:
		if event.Before == nil {
			return ErrInvalidInput
		}
	case EventUpdate, EventDelete, EventRestore:
		if event.Before == nil || event.After == nil {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}
