package notifications

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"example.com/govevents/internal/i18n"
	"example.com/govevents/internal/models"
)

// eventDatetimeLayout matches the format subscribers see in every message.
const eventDatetimeLayout = "02-01-2006, 15:04"

// FormatEventTime renders an event datetime the way messages display it.
// The editing layer uses it for the changed-field values of an OnChange
// notification.
func FormatEventTime(t time.Time) string {
	return t.Format(eventDatetimeLayout)
}

// Changed-field keys carried in the OnChange payload.
const (
	FieldAddress  = "address"
	FieldDatetime = "datetime"
)

// Renderer maps a reminder kind to its localized subject and body.
type Renderer struct {
	translator    *i18n.Translator
	defaultLocale string
}

// NewRenderer creates a renderer over the given translator.
func NewRenderer(translator *i18n.Translator, defaultLocale string) *Renderer {
	return &Renderer{
		translator:    translator,
		defaultLocale: defaultLocale,
	}
}

// Render produces the subject and body of one message for one recipient.
func (r *Renderer) Render(kind ReminderKind, user models.User, event *models.Event,
	changes map[string]string) (subject, body string) {

	locale := user.Locale
	if locale == "" {
		locale = r.defaultLocale
	}

	data := map[string]any{
		"EventName":     event.Name,
		"EventDatetime": event.Datetime.Format(eventDatetimeLayout),
	}
	if kind == KindEventChanged {
		data["Changes"] = r.renderChanges(locale, changes)
	}

	prefix := messagePrefix(kind)
	subject = r.translator.T(locale, prefix+"Subject", data)
	body = r.translator.T(locale, prefix+"Body", data)
	return subject, body
}

// renderChanges formats the changed-field map as one localized line per
// field, in a stable order.
func (r *Renderer) renderChanges(locale string, changes map[string]string) string {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		newValue := changes[field]
		switch field {
		case FieldAddress:
			lines = append(lines, r.translator.T(locale, "ChangedFieldAddress", map[string]any{"NewValue": newValue}))
		case FieldDatetime:
			lines = append(lines, r.translator.T(locale, "ChangedFieldDatetime", map[string]any{"NewValue": newValue}))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", field, newValue))
		}
	}
	return strings.Join(lines, "\n")
}

// messagePrefix maps each kind to its message-id prefix in the locale
// files. The switch is exhaustive over the closed kind set.
func messagePrefix(kind ReminderKind) string {
	switch kind {
	case KindOneWeekBefore:
		return "OneWeekBefore"
	case KindOneDayBefore:
		return "OneDayBefore"
	case KindFiveHoursBefore:
		return "FiveHoursBefore"
	case KindEventChanged:
		return "EventChanged"
	case KindEventCancelled:
		return "EventCancelled"
	case KindEventRehosted:
		return "EventRehosted"
	default:
		return string(kind)
	}
}
