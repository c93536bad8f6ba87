package notifications

import (
	"context"
	"sync"
	"time"

	"example.com/govevents/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock event store for testing
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) FindOnDate(ctx context.Context, date time.Time) ([]models.Event, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) FindInWindow(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]models.Event), args.Error(1)
}

// Mock task queue for testing
type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task ReminderTask, delay time.Duration) error {
	args := m.Called(ctx, task, delay)
	return args.Error(0)
}

// enqueued returns every task submitted to the queue, in call order.
func (m *MockTaskQueue) enqueued() []ReminderTask {
	tasks := make([]ReminderTask, 0, len(m.Calls))
	for _, call := range m.Calls {
		if call.Method == "Enqueue" {
			tasks = append(tasks, call.Arguments.Get(1).(ReminderTask))
		}
	}
	return tasks
}

// delays returns the delay of every Enqueue call, in call order.
func (m *MockTaskQueue) delays() []time.Duration {
	delays := make([]time.Duration, 0, len(m.Calls))
	for _, call := range m.Calls {
		if call.Method == "Enqueue" {
			delays = append(delays, call.Arguments.Get(2).(time.Duration))
		}
	}
	return delays
}

// Mock dedup guard for testing
type MockDedupGuard struct {
	mock.Mock
}

func (m *MockDedupGuard) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

// fakeRecipients streams a fixed user set in batches of the requested size.
type fakeRecipients struct {
	users   []models.User
	batches int
}

func (f *fakeRecipients) ForEachRecipientBatch(ctx context.Context, eventID, structureID uuid.UUID,
	batchSize int, fn func(users []models.User) error) error {

	for start := 0; start < len(f.users); start += batchSize {
		end := start + batchSize
		if end > len(f.users) {
			end = len(f.users)
		}
		f.batches++
		if err := fn(f.users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// recordingMailer records sends concurrently and fails for configured addresses.
type recordingMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	attempts int
	failFor  map[string]error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
