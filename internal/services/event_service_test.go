package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"example.com/govevents/internal/models"
	"example.com/govevents/internal/notifications"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock event store for testing
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) List(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockEventStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock task queue for testing
type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task notifications.ReminderTask, delay time.Duration) error {
	args := m.Called(ctx, task, delay)
	return args.Error(0)
}

func (m *MockTaskQueue) enqueued() []notifications.ReminderTask {
	tasks := make([]notifications.ReminderTask, 0, len(m.Calls))
	for _, call := range m.Calls {
		if call.Method == "Enqueue" {
			tasks = append(tasks, call.Arguments.Get(1).(notifications.ReminderTask))
		}
	}
	return tasks
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func storedEvent() *models.Event {
	return &models.Event{
		ID:             uuid.New(),
		Name:           "Субботник",
		Address:        strPtr("ул. Пушкина, 10"),
		Datetime:       time.Date(2026, 4, 5, 14, 30, 0, 0, time.UTC),
		GovStructureID: uuid.New(),
		IsActive:       true,
	}
}

func newTestEventService(events eventStore, queue notifications.TaskQueue) *EventService {
	return &EventService{
		events:   events,
		triggers: notifications.NewTriggers(queue),
	}
}

func TestUpdateEventNameOnlyTriggersNothing(t *testing.T) {
	before := storedEvent()

	mockEvents := new(MockEventStore)
	mockEvents.On("GetByID", mock.Anything, before.ID).Return(before, nil)
	mockEvents.On("UpdateFields", mock.Anything, before.ID,
		map[string]interface{}{"name": "Новое имя"}).Return(nil)

	mockQueue := new(MockTaskQueue)

	service := newTestEventService(mockEvents, mockQueue)

	_, err := service.UpdateEvent(context.Background(), before.ID, EventUpdate{Name: strPtr("Новое имя")})
	require.NoError(t, err)

	mockEvents.AssertExpectations(t)
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateEventAddressAndDatetimeTriggersOnce(t *testing.T) {
	before := storedEvent()
	newDatetime := before.Datetime.Add(48 * time.Hour)

	mockEvents := new(MockEventStore)
	mockEvents.On("GetByID", mock.Anything, before.ID).Return(before, nil)
	mockEvents.On("UpdateFields", mock.Anything, before.ID, map[string]interface{}{
		"name":     "Новое имя",
		"address":  "пр. Ленина, 1",
		"datetime": newDatetime,
	}).Return(nil)

	mockQueue := new(MockTaskQueue)
	mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newTestEventService(mockEvents, mockQueue)

	_, err := service.UpdateEvent(context.Background(), before.ID, EventUpdate{
		Name:     strPtr("Новое имя"),
		Address:  strPtr("пр. Ленина, 1"),
		Datetime: timePtr(newDatetime),
	})
	require.NoError(t, err)

	tasks := mockQueue.enqueued()
	require.Len(t, tasks, 1)
	require.Equal(t, notifications.KindEventChanged, tasks[0].Kind)

	// Only the fields subscribers care about enter the changes map
	require.Equal(t, map[string]string{
		notifications.FieldAddress:  "пр. Ленина, 1",
		notifications.FieldDatetime: notifications.FormatEventTime(newDatetime),
	}, tasks[0].Changes)

	// The snapshot carries the pre-edit state
	var snapshot models.Event
	require.NoError(t, json.Unmarshal(tasks[0].Snapshot, &snapshot))
	require.Equal(t, "Субботник", snapshot.Name)
	require.Equal(t, "ул. Пушкина, 10", *snapshot.Address)
	require.True(t, before.Datetime.Equal(snapshot.Datetime))
}

func TestUpdateEventUnchangedAddressExcludedFromChanges(t *testing.T) {
	before := storedEvent()
	newDatetime := before.Datetime.Add(24 * time.Hour)

	mockEvents := new(MockEventStore)
	mockEvents.On("GetByID", mock.Anything, before.ID).Return(before, nil)
	mockEvents.On("UpdateFields", mock.Anything, before.ID,
		map[string]interface{}{"datetime": newDatetime}).Return(nil)

	mockQueue := new(MockTaskQueue)
	mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	service := newTestEventService(mockEvents, mockQueue)

	// The address in the payload equals the stored one
	_, err := service.UpdateEvent(context.Background(), before.ID, EventUpdate{
		Address:  strPtr(*before.Address),
		Datetime: timePtr(newDatetime),
	})
	require.NoError(t, err)

	tasks := mockQueue.enqueued()
	require.Len(t, tasks, 1)
	require.Equal(t, map[string]string{
		notifications.FieldDatetime: notifications.FormatEventTime(newDatetime),
	}, tasks[0].Changes)
}

func TestUpdateEventNoEffectiveChangeSkipsStore(t *testing.T) {
	before := storedEvent()

	mockEvents := new(MockEventStore)
	mockEvents.On("GetByID", mock.Anything, before.ID).Return(before, nil)

	mockQueue := new(MockTaskQueue)

	service := newTestEventService(mockEvents, mockQueue)

	// Same name as stored: nothing to write, nothing to notify
	updated, err := service.UpdateEvent(context.Background(), before.ID, EventUpdate{Name: strPtr(before.Name)})
	require.NoError(t, err)
	require.Equal(t, before, updated)

	mockEvents.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeEventActivity(t *testing.T) {
	t.Run("same value is a no-op", func(t *testing.T) {
		event := storedEvent()

		mockEvents := new(MockEventStore)
		mockEvents.On("GetByID", mock.Anything, event.ID).Return(event, nil)

		mockQueue := new(MockTaskQueue)
		service := newTestEventService(mockEvents, mockQueue)

		_, err := service.ChangeEventActivity(context.Background(), event.ID, true)
		require.NoError(t, err)

		mockEvents.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
		mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivation submits a cancellation", func(t *testing.T) {
		event := storedEvent()

		mockEvents := new(MockEventStore)
		mockEvents.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		mockEvents.On("UpdateFields", mock.Anything, event.ID,
			map[string]interface{}{"is_active": false}).Return(nil)

		mockQueue := new(MockTaskQueue)
		mockQueue.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		service := newTestEventService(mockEvents, mockQueue)

		updated, err := service.ChangeEventActivity(context.Background(), event.ID, false)
		require.NoError(t, err)
		require.False(t, updated.IsActive)

		tasks := mockQueue.enqueued()
		require.Len(t, tasks, 1)
		require.Equal(t, notifications.KindEventCancelled, tasks[0].Kind)
	})
}
