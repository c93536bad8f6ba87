package notifications

import (
	"time"

	"github.com/pkg/errors"
)

// ReminderKind identifies one notification template. The set is closed:
// the three time-based kinds are produced by the scheduler, the other
// three by edit-time triggers.
type ReminderKind string

const (
	KindOneWeekBefore   ReminderKind = "one_week_before"
	KindOneDayBefore    ReminderKind = "one_day_before"
	KindFiveHoursBefore ReminderKind = "five_hours_before"
	KindEventChanged    ReminderKind = "event_changed"
	KindEventCancelled  ReminderKind = "event_cancelled"
	KindEventRehosted   ReminderKind = "event_rehosted"
)

// LeadTime returns how long before the event's datetime a time-based
// reminder fires. Ad-hoc kinds have no lead time.
func (k ReminderKind) LeadTime() time.Duration {
	switch k {
	case KindOneWeekBefore:
		return 7 * 24 * time.Hour
	case KindOneDayBefore:
		return 24 * time.Hour
	case KindFiveHoursBefore:
		return 5 * time.Hour
	default:
		return 0
	}
}

// IsTimeBased reports whether the kind is scheduled ahead of the event
// rather than triggered by an edit.
func (k ReminderKind) IsTimeBased() bool {
	switch k {
	case KindOneWeekBefore, KindOneDayBefore, KindFiveHoursBefore:
		return true
	default:
		return false
	}
}

// ParseKind validates a kind name coming off the wire.
func ParseKind(s string) (ReminderKind, error) {
	switch k := ReminderKind(s); k {
	case KindOneWeekBefore, KindOneDayBefore, KindFiveHoursBefore,
		KindEventChanged, KindEventCancelled, KindEventRehosted:
		return k, nil
	default:
		return "", errors.Errorf("unknown reminder kind %q", s)
	}
}
