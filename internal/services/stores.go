package services

import (
	"context"

	"example.com/govevents/internal/models"

	"github.com/google/uuid"
)

// Store contracts the services need from the repositories.

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type structureStore interface {
	Create(ctx context.Context, structure *models.GovStructure) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GovStructure, error)
	List(ctx context.Context) ([]models.GovStructure, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type subscriptionStore interface {
	SubscribeToEvent(ctx context.Context, eventID, userID uuid.UUID) error
	UnsubscribeFromEvent(ctx context.Context, eventID, userID uuid.UUID) error
	SubscribeToGovStructure(ctx context.Context, structureID, userID uuid.UUID) error
	UnsubscribeFromGovStructure(ctx context.Context, structureID, userID uuid.UUID) error
	ListEventRecipients(ctx context.Context, eventID, structureID uuid.UUID) ([]models.User, error)
}

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
