package notifications

import (
	"context"
	"encoding/json"

	"example.com/govevents/internal/metrics"
	"example.com/govevents/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Triggers turns event edits into immediate ad-hoc notifications. The
// editing layer calls these synchronously from its update handlers.
type Triggers struct {
	queue TaskQueue
}

// NewTriggers creates the edit-side notification triggers.
func NewTriggers(queue TaskQueue) *Triggers {
	return &Triggers{queue: queue}
}

// EventUpdated submits an OnChange notification carrying the pre-edit
// event plus the fields that actually changed. Callers pass only changes
// to address and datetime; an empty map is a no-op because a name-only or
// description-only edit is not worth a notification.
func (t *Triggers) EventUpdated(ctx context.Context, before models.Event, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}
	return t.submitSnapshot(ctx, before, KindEventChanged, changes)
}

// EventActivityChanged submits the cancellation or reactivation
// notification for an activity-flag transition. Setting the flag to its
// current value submits nothing.
func (t *Triggers) EventActivityChanged(ctx context.Context, event models.Event, oldActive, newActive bool) error {
	if oldActive == newActive {
		return nil
	}

	kind := KindEventCancelled
	if newActive {
		kind = KindEventRehosted
	}
	return t.submitSnapshot(ctx, event, kind, nil)
}

// submitSnapshot enqueues an ad-hoc task with zero delay. The snapshot
// preserves the event state the notification describes even if the live
// row keeps changing.
func (t *Triggers) submitSnapshot(ctx context.Context, event models.Event, kind ReminderKind,
	changes map[string]string) error {

	snapshot, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event snapshot")
	}

	task := ReminderTask{
		EventID:  event.ID,
		Kind:     kind,
		Snapshot: snapshot,
		Changes:  changes,
	}

	if err := t.queue.Enqueue(ctx, task, 0); err != nil {
		return errors.Wrapf(err, "failed to enqueue %s notification for event %s", kind, event.ID)
	}

	metrics.RemindersScheduled.WithLabelValues(string(kind)).Inc()
	log.Info().
		Str("event_id", event.ID.String()).
		Str("kind", string(kind)).
		Msg("Ad-hoc notification submitted")

	return nil
}
