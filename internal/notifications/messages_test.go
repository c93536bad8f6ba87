package notifications

import (
	"strings"
	"testing"
	"time"

	"example.com/govevents/internal/i18n"
	"example.com/govevents/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRenderer() *Renderer {
	return NewRenderer(i18n.NewTranslator("ru"), "ru")
}

func TestRenderOneDayBeforeRussian(t *testing.T) {
	renderer := newTestRenderer()
	event := &models.Event{
		ID:       uuid.New(),
		Name:     "Субботник",
		Datetime: time.Date(2026, 4, 5, 14, 30, 0, 0, time.UTC),
	}
	user := models.User{Email: "user@example.com", Locale: "ru"}

	subject, body := renderer.Render(KindOneDayBefore, user, event, nil)
	require.Equal(t, `Напоминание о событии "Субботник"`, subject)
	require.Contains(t, body, "через одни сутки")
	require.Contains(t, body, "05-04-2026, 14:30")
}

func TestRenderLocalePerRecipient(t *testing.T) {
	renderer := newTestRenderer()
	event := &models.Event{
		ID:       uuid.New(),
		Name:     "Hearing",
		Datetime: time.Date(2026, 4, 5, 14, 30, 0, 0, time.UTC),
	}

	subject, _ := renderer.Render(KindEventCancelled, models.User{Locale: "en"}, event, nil)
	require.Equal(t, `The event "Hearing" is cancelled`, subject)

	// An empty locale falls back to the configured default
	subject, _ = renderer.Render(KindEventCancelled, models.User{}, event, nil)
	require.Equal(t, `Отмена события "Hearing"`, subject)
}

func TestRenderChangedFieldsStableOrder(t *testing.T) {
	renderer := newTestRenderer()
	event := &models.Event{
		ID:       uuid.New(),
		Name:     "Субботник",
		Datetime: time.Date(2026, 4, 5, 14, 30, 0, 0, time.UTC),
	}
	user := models.User{Locale: "ru"}

	newTime := FormatEventTime(time.Date(2026, 4, 7, 10, 0, 0, 0, time.UTC))
	changes := map[string]string{
		FieldDatetime: newTime,
		FieldAddress:  "пр. Ленина, 1",
	}

	_, body := renderer.Render(KindEventChanged, user, event, changes)

	require.Contains(t, body, "адрес: пр. Ленина, 1")
	require.Contains(t, body, "дата и время: "+newTime)
	// Address sorts before datetime regardless of map iteration order
	require.Less(t, strings.Index(body, "адрес"), strings.Index(body, "дата и время"))
}

func TestFormatEventTime(t *testing.T) {
	formatted := FormatEventTime(time.Date(2026, 12, 31, 23, 5, 0, 0, time.UTC))
	require.Equal(t, "31-12-2026, 23:05", formatted)
}
