package notifications

import (
	"context"
	"testing"
	"time"

	"example.com/govevents/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDailySweepSchedulesWeekAndDayReminders(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	weekEvent := models.Event{
		ID:       uuid.New(),
		Name:     "Public hearing",
		Datetime: now.AddDate(0, 0, 7).Add(12 * time.Hour),
		IsActive: true,
	}
	dayEvent := models.Event{
		ID:       uuid.New(),
		Name:     "Town hall",
		Datetime: now.AddDate(0, 0, 1).Add(18 * time.Hour),
		IsActive: true,
	}

	mockStore := new(MockEventStore)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 7)).Return([]models.Event{weekEvent}, nil)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 1)).Return([]models.Event{dayEvent}, nil)

	mockQueue := new(MockTaskQueue)
	mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	mockGuard := new(MockDedupGuard)
	mockGuard.On("AcquireOnce", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	scheduler := NewScheduler(mockStore, mockQueue, mockGuard, time.UTC)

	err := scheduler.RunDailySweep(context.Background(), now)
	require.NoError(t, err)

	tasks := mockQueue.enqueued()
	delays := mockQueue.delays()
	require.Len(t, tasks, 3)

	// One-week reminder fires seven days before the event, i.e. 12h from now
	require.Equal(t, weekEvent.ID, tasks[0].EventID)
	require.Equal(t, KindOneWeekBefore, tasks[0].Kind)
	require.Equal(t, weekEvent.Datetime, tasks[0].EventTime)
	require.Equal(t, 12*time.Hour, delays[0])

	// One-day reminder comes before the five-hours one for the same event
	require.Equal(t, dayEvent.ID, tasks[1].EventID)
	require.Equal(t, KindOneDayBefore, tasks[1].Kind)
	require.Equal(t, 18*time.Hour, delays[1])

	require.Equal(t, dayEvent.ID, tasks[2].EventID)
	require.Equal(t, KindFiveHoursBefore, tasks[2].Kind)
	require.Equal(t, 37*time.Hour, delays[2])

	mockStore.AssertExpectations(t)
	mockQueue.AssertExpectations(t)
}

func TestDailySweepSkipsWhenGuardDenies(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	event := models.Event{
		ID:       uuid.New(),
		Datetime: now.AddDate(0, 0, 7).Add(10 * time.Hour),
		IsActive: true,
	}

	mockStore := new(MockEventStore)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 7)).Return([]models.Event{event}, nil)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 1)).Return([]models.Event{}, nil)

	mockQueue := new(MockTaskQueue)

	// Another replica already swept this pair today
	mockGuard := new(MockDedupGuard)
	mockGuard.On("AcquireOnce", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	scheduler := NewScheduler(mockStore, mockQueue, mockGuard, time.UTC)

	err := scheduler.RunDailySweep(context.Background(), now)
	require.NoError(t, err)

	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestDailySweepSchedulesUnguardedWhenGuardFails(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	event := models.Event{
		ID:       uuid.New(),
		Datetime: now.AddDate(0, 0, 7).Add(10 * time.Hour),
		IsActive: true,
	}

	mockStore := new(MockEventStore)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 7)).Return([]models.Event{event}, nil)
	mockStore.On("FindOnDate", mock.Anything, now.AddDate(0, 0, 1)).Return([]models.Event{}, nil)

	mockQueue := new(MockTaskQueue)
	mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// A broken guard must not suppress reminders
	mockGuard := new(MockDedupGuard)
	mockGuard.On("AcquireOnce", mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("redis unavailable"))

	scheduler := NewScheduler(mockStore, mockQueue, mockGuard, time.UTC)

	err := scheduler.RunDailySweep(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, mockQueue.enqueued(), 1)
}

func TestStartupCatchUpThresholds(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	farEvent := models.Event{ID: uuid.New(), Datetime: now.Add(20 * time.Hour), IsActive: true}
	midEvent := models.Event{ID: uuid.New(), Datetime: now.Add(10 * time.Hour), IsActive: true}
	nearEvent := models.Event{ID: uuid.New(), Datetime: now.Add(1 * time.Hour), IsActive: true}

	mockStore := new(MockEventStore)
	mockStore.On("FindInWindow", mock.Anything, now, now.Add(48*time.Hour)).
		Return([]models.Event{farEvent, midEvent, nearEvent}, nil)

	mockQueue := new(MockTaskQueue)
	mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	mockGuard := new(MockDedupGuard)

	scheduler := NewScheduler(mockStore, mockQueue, mockGuard, time.UTC)

	err := scheduler.RunStartupCatchUp(context.Background(), now)
	require.NoError(t, err)

	tasks := mockQueue.enqueued()
	delays := mockQueue.delays()
	require.Len(t, tasks, 3)

	// 20h out: the one-day fire time already passed, so it is clamped to now
	require.Equal(t, farEvent.ID, tasks[0].EventID)
	require.Equal(t, KindOneDayBefore, tasks[0].Kind)
	require.Equal(t, time.Duration(0), delays[0])

	require.Equal(t, farEvent.ID, tasks[1].EventID)
	require.Equal(t, KindFiveHoursBefore, tasks[1].Kind)
	require.Equal(t, 15*time.Hour, delays[1])

	// 10h out: past the one-day threshold, only the five-hours reminder survives
	require.Equal(t, midEvent.ID, tasks[2].EventID)
	require.Equal(t, KindFiveHoursBefore, tasks[2].Kind)
	require.Equal(t, 5*time.Hour, delays[2])

	// Catch-up never consults the sweep guard
	mockGuard.AssertNotCalled(t, "AcquireOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestCountdown(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.Equal(t, int64(0), Countdown(base, base.Add(-time.Hour)))
	require.Equal(t, int64(0), Countdown(base, base))
	require.Equal(t, int64(86400), Countdown(base, base.Add(24*time.Hour)))
	// Fractional seconds are truncated, not rounded
	require.Equal(t, int64(90), Countdown(base, base.Add(90*time.Second+500*time.Millisecond)))
}
