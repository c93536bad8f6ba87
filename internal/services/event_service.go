package services

import (
	"context"
	"time"

	"example.com/govevents/internal/models"
	"example.com/govevents/internal/notifications"
	"example.com/govevents/internal/repositories"
	"example.com/govevents/internal/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrGovStructureNotFound = errors.New("government structure not found")
	ErrUserNotFound         = errors.New("user not found")
)

// EventService handles event CRUD and fires the notification triggers
// that the edit endpoints owe the reminder pipeline.
type EventService struct {
	db         *gorm.DB
	events     eventStore
	structures structureStore
	subs       subscriptionStore
	users      userStore
	triggers   *notifications.Triggers
	indexer    *search.EventIndexer
}

// NewEventService creates a new event service. indexer may be nil when
// search is disabled.
func NewEventService(db *gorm.DB, triggers *notifications.Triggers, indexer *search.EventIndexer) *EventService {
	return &EventService{
		db:         db,
		events:     repositories.NewEventRepository(db),
		structures: repositories.NewGovStructureRepository(db),
		subs:       repositories.NewSubscriptionRepository(db),
		users:      repositories.NewUserRepository(db),
		triggers:   triggers,
		indexer:    indexer,
	}
}

// EventCreate carries the fields needed to create an event.
type EventCreate struct {
	Name           string
	Description    *string
	Address        *string
	Datetime       time.Time
	GovStructureID uuid.UUID
}

// EventUpdate carries a partial event edit; nil fields stay untouched.
type EventUpdate struct {
	Name        *string
	Description *string
	Address     *string
	Datetime    *time.Time
}

// CreateEvent creates an event hosted by an existing structure.
func (s *EventService) CreateEvent(ctx context.Context, input EventCreate) (*models.Event, error) {
	structure, err := s.structures.GetByID(ctx, input.GovStructureID)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, ErrGovStructureNotFound
	}

	event := &models.Event{
		ID:             uuid.New(),
		Name:           input.Name,
		Description:    input.Description,
		Address:        input.Address,
		Datetime:       input.Datetime,
		GovStructureID: input.GovStructureID,
		IsActive:       true,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to create event")
	}

	s.indexEvent(ctx, event, structure.Name)

	log.Info().
		Str("event_id", event.ID.String()).
		Str("gov_structure_id", event.GovStructureID.String()).
		Time("datetime", event.Datetime).
		Msg("Event created")

	return event, nil
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// ListEvents returns all events ordered by datetime.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.List(ctx)
}

// UpdateEvent applies a partial edit. If the edit touches the address or
// the datetime, subscribers are notified about exactly the fields that
// differ from the prior values; a name or description edit notifies
// nobody.
func (s *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, update EventUpdate) (*models.Event, error) {
	before, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, ErrEventNotFound
	}

	fields := make(map[string]interface{})
	changes := make(map[string]string)

	if update.Name != nil && *update.Name != before.Name {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Address != nil && (before.Address == nil || *update.Address != *before.Address) {
		fields["address"] = *update.Address
		changes[notifications.FieldAddress] = *update.Address
	}
	if update.Datetime != nil && !update.Datetime.Equal(before.Datetime) {
		fields["datetime"] = *update.Datetime
		changes[notifications.FieldDatetime] = notifications.FormatEventTime(*update.Datetime)
	}

	if len(fields) == 0 {
		return before, nil
	}

	if err := s.events.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	// The notification carries the pre-edit snapshot: subscribers are told
	// what changed relative to the event they knew.
	if err := s.triggers.EventUpdated(ctx, *before, changes); err != nil {
		log.Error().Err(err).Str("event_id", id.String()).Msg("Failed to submit change notification")
	}

	after, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if after != nil {
		s.indexEvent(ctx, after, "")
	}

	return after, nil
}

// ChangeEventActivity flips the activity flag, notifying subscribers of a
// cancellation or a reactivation. Setting the current value is a no-op.
func (s *EventService) ChangeEventActivity(ctx context.Context, id uuid.UUID, isActive bool) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if event.IsActive == isActive {
		return event, nil
	}

	if err := s.events.UpdateFields(ctx, id, map[string]interface{}{"is_active": isActive}); err != nil {
		return nil, err
	}

	if err := s.triggers.EventActivityChanged(ctx, *event, event.IsActive, isActive); err != nil {
		log.Error().Err(err).Str("event_id", id.String()).Msg("Failed to submit activity notification")
	}

	event.IsActive = isActive
	s.indexEvent(ctx, event, "")
	return event, nil
}

// DeleteEvent removes an event and its subscriptions.
func (s *EventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete event")
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteEvent(ctx, id.String()); err != nil {
			log.Warn().Err(err).Str("event_id", id.String()).Msg("Failed to remove event from search index")
		}
	}

	log.Info().Str("event_id", id.String()).Msg("Event deleted")
	return nil
}

// Subscribe subscribes a user to a single event.
func (s *EventService) Subscribe(ctx context.Context, eventID, userID uuid.UUID) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.subs.SubscribeToEvent(ctx, eventID, userID)
}

// Unsubscribe removes a direct event subscription.
func (s *EventService) Unsubscribe(ctx context.Context, eventID, userID uuid.UUID) error {
	return s.subs.UnsubscribeFromEvent(ctx, eventID, userID)
}

// ListSubscribers returns the resolved recipient set of an event: direct
// subscribers plus structure subscribers, each user once.
func (s *EventService) ListSubscribers(ctx context.Context, eventID uuid.UUID) ([]models.User, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	return s.subs.ListEventRecipients(ctx, eventID, event.GovStructureID)
}

// SearchEvents queries the search index.
func (s *EventService) SearchEvents(ctx context.Context, text string) ([]map[string]interface{}, error) {
	if s.indexer == nil {
		return nil, errors.New("search is not enabled")
	}
	return s.indexer.SearchEvents(ctx, text)
}

// indexEvent pushes the event into the search index, best effort. When
// the hosting structure name is unknown it is looked up first.
func (s *EventService) indexEvent(ctx context.Context, event *models.Event, structureName string) {
	if s.indexer == nil {
		return
	}

	if structureName == "" {
		structure, err := s.structures.GetByID(ctx, event.GovStructureID)
		if err == nil && structure != nil {
			structureName = structure.Name
		}
	}

	if err := s.indexer.IndexEvent(ctx, event, structureName); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("Failed to index event")
	}
}
