package notifications

import (
	"context"
	"encoding/json"
	"time"

	"example.com/govevents/internal/models"

	"github.com/google/uuid"
)

// ReminderTask is the payload of one deferred reminder. For time-based
// kinds it carries the event id plus the datetime observed at scheduling
// time, used as a staleness token at fire time. For edit-triggered kinds
// it carries a full snapshot of the pre-edit event instead, because the
// live row already reflects the new state the notification is about.
type ReminderTask struct {
	EventID   uuid.UUID         `json:"event_id"`
	Kind      ReminderKind      `json:"kind"`
	EventTime time.Time         `json:"event_time"`
	Snapshot  json.RawMessage   `json:"snapshot,omitempty"`
	Changes   map[string]string `json:"changes,omitempty"`
}

// HasSnapshot reports whether the task carries a serialized event.
func (t ReminderTask) HasSnapshot() bool {
	return len(t.Snapshot) > 0
}

// TaskQueue is the durable deferred work queue consumed by the scheduler
// and the edit triggers. Implementations guarantee at-least-once delivery
// across process restarts.
type TaskQueue interface {
	Enqueue(ctx context.Context, task ReminderTask, delay time.Duration) error
}

// EventStore is the read contract the reminder pipeline needs from the
// relational store.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindOnDate(ctx context.Context, date time.Time) ([]models.Event, error)
	FindInWindow(ctx context.Context, start, end time.Time) ([]models.Event, error)
}

// RecipientSource streams the de-duplicated recipient set of an event in
// bounded batches.
type RecipientSource interface {
	ForEachRecipientBatch(ctx context.Context, eventID, structureID uuid.UUID,
		batchSize int, fn func(users []models.User) error) error
}

// Mailer sends one rendered message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// DedupGuard serializes once-per-day scheduling decisions across worker
// replicas.
type DedupGuard interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
