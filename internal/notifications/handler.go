package notifications

import (
	"context"
	"encoding/json"

	"example.com/govevents/internal/metrics"
	"example.com/govevents/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ReminderJob is the deferred-task handler invoked by the queue at the
// scheduled fire time. It re-validates that the event is still worth
// notifying about before driving the notifier, so a reminder queued days
// ago becomes a no-op if the event was deleted, rescheduled or cancelled
// in the meantime.
type ReminderJob struct {
	events   EventStore
	notifier *Notifier
}

// NewReminderJob creates a reminder job handler.
func NewReminderJob(events EventStore, notifier *Notifier) *ReminderJob {
	return &ReminderJob{
		events:   events,
		notifier: notifier,
	}
}

// Handle processes one reminder task. A nil return with no send is the
// expected outcome for stale tasks; a non-nil return surfaces to the
// queue's redelivery policy.
func (j *ReminderJob) Handle(ctx context.Context, task ReminderTask) error {
	event, err := j.resolveEvent(ctx, task)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}

	return j.notifier.Notify(ctx, event, task.Kind, task.Changes)
}

// resolveEvent returns the event the task should notify about, or nil if
// the task is stale and must be dropped silently.
func (j *ReminderJob) resolveEvent(ctx context.Context, task ReminderTask) (*models.Event, error) {
	if task.HasSnapshot() {
		// Edit-triggered kinds carry the state of the event at the moment
		// the change happened, which may differ from the current row.
		var event models.Event
		if err := json.Unmarshal(task.Snapshot, &event); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal event snapshot")
		}
		if event.ID == uuid.Nil {
			return nil, errors.New("event snapshot has no id")
		}
		return &event, nil
	}

	event, err := j.events.GetByID(ctx, task.EventID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load event for reminder")
	}

	if event == nil {
		metrics.RemindersSkipped.WithLabelValues(metrics.SkipReasonDeleted).Inc()
		log.Info().
			Str("event_id", task.EventID.String()).
			Str("kind", string(task.Kind)).
			Msg("Event no longer exists, dropping reminder")
		return nil, nil
	}

	if !task.EventTime.IsZero() && !task.EventTime.Equal(event.Datetime) {
		metrics.RemindersSkipped.WithLabelValues(metrics.SkipReasonRescheduled).Inc()
		log.Info().
			Str("event_id", task.EventID.String()).
			Str("kind", string(task.Kind)).
			Time("scheduled_for", task.EventTime).
			Time("current", event.Datetime).
			Msg("Event was rescheduled since queuing, dropping reminder")
		return nil, nil
	}

	if !event.IsActive {
		metrics.RemindersSkipped.WithLabelValues(metrics.SkipReasonInactive).Inc()
		log.Info().
			Str("event_id", task.EventID.String()).
			Str("kind", string(task.Kind)).
			Msg("Event is inactive, dropping reminder")
		return nil, nil
	}

	return event, nil
}
