package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersScheduled counts deferred reminder tasks submitted to the queue.
	RemindersScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Reminder tasks submitted to the deferred queue",
		},
		[]string{"kind"},
	)

	// RemindersSkipped counts reminder jobs that aborted without sending.
	RemindersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Reminder jobs that aborted without sending",
		},
		[]string{"reason"},
	)

	// RemindersDeduplicated counts sweep decisions suppressed by the dedup guard.
	RemindersDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_deduplicated_total",
			Help: "Sweep scheduling decisions suppressed by the dedup guard",
		},
	)

	// EmailsSent counts successfully attempted deliveries.
	EmailsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Notification emails sent",
		},
	)

	// EmailsFailed counts per-recipient delivery failures.
	EmailsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_failed_total",
			Help: "Notification emails that failed to send",
		},
	)
)

// Skip reasons used with RemindersSkipped.
const (
	SkipReasonDeleted     = "deleted"
	SkipReasonRescheduled = "rescheduled"
	SkipReasonInactive    = "inactive"
)
