package repositories

import (
	"context"
	"time"

	"example.com/govevents/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EventRepository provides access to event data
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetByID gets an event by ID. A missing event returns (nil, nil): the
// reminder pipeline treats deletion as an expected outcome, not an error.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get event by ID")
	}
	return &event, nil
}

// List returns all events
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).Order("datetime").Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

// FindOnDate returns events whose datetime falls on the given calendar
// date. The match is on the date component only: an event at 23:59 and
// one at 00:01 of the same day both qualify.
func (r *EventRepository) FindOnDate(ctx context.Context, date time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("DATE(datetime) = ?", date.Format("2006-01-02")).
		Order("datetime").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find events on date")
	}
	return events, nil
}

// FindInWindow returns events with datetime in the half-open range [start, end).
func (r *EventRepository) FindInWindow(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("datetime >= ? AND datetime < ?", start, end).
		Order("datetime").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find events in window")
	}
	return events, nil
}

// UpdateFields applies a partial update to an event
func (r *EventRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update event")
	}
	if result.RowsAffected == 0 {
		return errors.New("no event updated")
	}
	return nil
}

// Delete removes an event; subscriptions cascade via FK constraints
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id).Error
}

// GovStructureRepository provides access to government structure data
type GovStructureRepository struct {
	db *gorm.DB
}

// NewGovStructureRepository creates a new repository
func NewGovStructureRepository(db *gorm.DB) *GovStructureRepository {
	return &GovStructureRepository{db: db}
}

// Create creates a new government structure
func (r *GovStructureRepository) Create(ctx context.Context, structure *models.GovStructure) error {
	return r.db.WithContext(ctx).Create(structure).Error
}

// GetByID gets a government structure by ID
func (r *GovStructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GovStructure, error) {
	var structure models.GovStructure
	err := r.db.WithContext(ctx).First(&structure, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get government structure by ID")
	}
	return &structure, nil
}

// List returns all government structures
func (r *GovStructureRepository) List(ctx context.Context) ([]models.GovStructure, error) {
	var structures []models.GovStructure
	err := r.db.WithContext(ctx).Order("name").Find(&structures).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list government structures")
	}
	return structures, nil
}

// Delete removes a structure; hosted events and subscriptions cascade
func (r *GovStructureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.GovStructure{}, "id = ?", id).Error
}

// SubscriptionRepository provides access to both kinds of subscriptions
// and resolves the recipient set for an event.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// SubscribeToEvent subscribes a user to a single event
func (r *SubscriptionRepository) SubscribeToEvent(ctx context.Context, eventID, userID uuid.UUID) error {
	sub := models.EventSubscription{EventID: eventID, UserID: userID}
	return r.db.WithContext(ctx).Create(&sub).Error
}

// UnsubscribeFromEvent removes a direct event subscription
func (r *SubscriptionRepository) UnsubscribeFromEvent(ctx context.Context, eventID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.EventSubscription{}, "event_id = ? AND user_id = ?", eventID, userID).Error
}

// SubscribeToGovStructure subscribes a user to all events of a structure
func (r *SubscriptionRepository) SubscribeToGovStructure(ctx context.Context, structureID, userID uuid.UUID) error {
	sub := models.GovStructureSubscription{GovStructureID: structureID, UserID: userID}
	return r.db.WithContext(ctx).Create(&sub).Error
}

// UnsubscribeFromGovStructure removes a structure subscription
func (r *SubscriptionRepository) UnsubscribeFromGovStructure(ctx context.Context, structureID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.GovStructureSubscription{}, "gov_structure_id = ? AND user_id = ?", structureID, userID).Error
}

// recipientsUnionQuery is the de-duplicated union of direct event
// subscribers and subscribers of the hosting structure. UNION (not UNION
// ALL) guarantees a user subscribed both ways appears once.
const recipientsUnionQuery = `
SELECT users.* FROM users
  JOIN event_subscriptions ON event_subscriptions.user_id = users.id
  WHERE event_subscriptions.event_id = ? AND users.deleted_at IS NULL
UNION
SELECT users.* FROM users
  JOIN gov_structure_subscriptions ON gov_structure_subscriptions.user_id = users.id
  WHERE gov_structure_subscriptions.gov_structure_id = ? AND users.deleted_at IS NULL
ORDER BY id`

// ForEachRecipientBatch streams the resolved recipient set of an event in
// batches of batchSize, invoking fn once per batch. The full set is never
// materialized in memory.
func (r *SubscriptionRepository) ForEachRecipientBatch(ctx context.Context, eventID, structureID uuid.UUID,
	batchSize int, fn func(users []models.User) error) error {

	rows, err := r.db.WithContext(ctx).Raw(recipientsUnionQuery, eventID, structureID).Rows()
	if err != nil {
		return errors.Wrap(err, "failed to query event recipients")
	}
	defer rows.Close()

	batch := make([]models.User, 0, batchSize)
	for rows.Next() {
		var user models.User
		if err := r.db.ScanRows(rows, &user); err != nil {
			return errors.Wrap(err, "failed to scan recipient row")
		}
		batch = append(batch, user)

		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]models.User, 0, batchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed while streaming recipients")
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// ListEventRecipients materializes the resolved recipient set. Intended
// for the subscriber listing endpoint, not for notification fan-out.
func (r *SubscriptionRepository) ListEventRecipients(ctx context.Context, eventID, structureID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Raw(recipientsUnionQuery, eventID, structureID).Scan(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list event recipients")
	}
	return users, nil
}

// UserRepository provides access to user data
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user by ID")
	}
	return &user, nil
}
