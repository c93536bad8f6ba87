package notifications

import (
	"context"
	"time"

	"example.com/govevents/internal/cache"
	"example.com/govevents/internal/metrics"
	"example.com/govevents/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Catch-up only (re)schedules a reminder whose natural fire time is still
// in the future at startup. An event closer than the threshold already had
// its reminder fire (or the daily sweep will clamp it to "now").
const (
	catchUpWindow             = 48 * time.Hour
	oneDayCatchUpThreshold    = 15 * time.Hour
	fiveHoursCatchUpThreshold = 2 * time.Hour
)

// dedupTTL keeps a sweep guard key alive long enough to cover a manual
// re-trigger or a second replica sweeping the same day.
const dedupTTL = 48 * time.Hour

// Scheduler decides which (event, kind) reminder pairs need a future-dated
// send and submits them to the deferred queue. It runs single-threaded per
// invocation; the worker runs one sweep at a time.
type Scheduler struct {
	events EventStore
	queue  TaskQueue
	guard  DedupGuard
	loc    *time.Location
}

// NewScheduler creates a scheduler operating in the given timezone. The
// timezone determines calendar-date boundaries for the daily sweep.
func NewScheduler(events EventStore, queue TaskQueue, guard DedupGuard, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		events: events,
		queue:  queue,
		guard:  guard,
		loc:    loc,
	}
}

// RunDailySweep schedules reminders for events exactly seven days and
// exactly one day ahead of now, by calendar-date equality.
func (s *Scheduler) RunDailySweep(ctx context.Context, now time.Time) error {
	now = now.In(s.loc)

	eventsInWeek, err := s.events.FindOnDate(ctx, now.AddDate(0, 0, 7))
	if err != nil {
		return errors.Wrap(err, "failed to find events one week ahead")
	}

	eventsInDay, err := s.events.FindOnDate(ctx, now.AddDate(0, 0, 1))
	if err != nil {
		return errors.Wrap(err, "failed to find events one day ahead")
	}

	for _, event := range eventsInWeek {
		if err := s.scheduleForEvent(ctx, event, KindOneWeekBefore, now); err != nil {
			return err
		}
	}

	for _, event := range eventsInDay {
		if err := s.scheduleForEvent(ctx, event, KindOneDayBefore, now); err != nil {
			return err
		}
		if err := s.scheduleForEvent(ctx, event, KindFiveHoursBefore, now); err != nil {
			return err
		}
	}

	log.Info().
		Int("events_in_week", len(eventsInWeek)).
		Int("events_in_day", len(eventsInDay)).
		Msg("Daily reminder sweep finished")

	return nil
}

// RunStartupCatchUp recovers reminders for events happening within the
// next two days that a crash or restart may have lost. Unlike the daily
// sweep it matches a half-open datetime window, and it never schedules a
// reminder whose fire time has already passed.
func (s *Scheduler) RunStartupCatchUp(ctx context.Context, now time.Time) error {
	now = now.In(s.loc)

	events, err := s.events.FindInWindow(ctx, now, now.Add(catchUpWindow))
	if err != nil {
		return errors.Wrap(err, "failed to find upcoming events for catch-up")
	}

	scheduled := 0
	for _, event := range events {
		until := event.Datetime.Sub(now)

		if until > oneDayCatchUpThreshold {
			if err := s.submit(ctx, event, KindOneDayBefore, now); err != nil {
				return err
			}
			scheduled++
		}
		if until > fiveHoursCatchUpThreshold {
			if err := s.submit(ctx, event, KindFiveHoursBefore, now); err != nil {
				return err
			}
			scheduled++
		}
	}

	log.Info().
		Int("candidates", len(events)).
		Int("scheduled", scheduled).
		Msg("Startup catch-up finished")

	return nil
}

// scheduleForEvent submits one (event, kind) reminder from the daily
// sweep, guarded so running the sweep twice in one day cannot
// double-schedule the pair.
func (s *Scheduler) scheduleForEvent(ctx context.Context, event models.Event, kind ReminderKind, now time.Time) error {
	key := cache.ReminderDedupKey(event.ID, string(kind), now)
	acquired, err := s.guard.AcquireOnce(ctx, key, dedupTTL)
	if err != nil {
		// A broken guard degrades to unguarded scheduling; a possible
		// duplicate email beats a missed reminder.
		log.Warn().Err(err).
			Str("event_id", event.ID.String()).
			Str("kind", string(kind)).
			Msg("Dedup guard unavailable, scheduling unguarded")
	} else if !acquired {
		metrics.RemindersDeduplicated.Inc()
		log.Debug().
			Str("event_id", event.ID.String()).
			Str("kind", string(kind)).
			Msg("Reminder already scheduled today, skipping")
		return nil
	}

	return s.submit(ctx, event, kind, now)
}

// submit computes the delay for one (event, kind) pair and enqueues the
// task. Past-due fire times are clamped to zero so the reminder fires
// immediately rather than being dropped.
func (s *Scheduler) submit(ctx context.Context, event models.Event, kind ReminderKind, now time.Time) error {
	fireTime := event.Datetime.Add(-kind.LeadTime())
	delay := time.Duration(Countdown(now, fireTime)) * time.Second

	task := ReminderTask{
		EventID:   event.ID,
		Kind:      kind,
		EventTime: event.Datetime,
	}

	if err := s.queue.Enqueue(ctx, task, delay); err != nil {
		return errors.Wrapf(err, "failed to enqueue %s reminder for event %s", kind, event.ID)
	}

	metrics.RemindersScheduled.WithLabelValues(string(kind)).Inc()
	log.Info().
		Str("event_id", event.ID.String()).
		Str("kind", string(kind)).
		Dur("delay", delay).
		Time("event_datetime", event.Datetime).
		Msg("Reminder scheduled")

	return nil
}

// Countdown returns the number of whole seconds from start to end, never
// negative.
func Countdown(start, end time.Time) int64 {
	if start.After(end) {
		return 0
	}
	return int64(end.Sub(start).Seconds())
}
