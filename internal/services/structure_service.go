package services

import (
	"context"

	"example.com/govevents/internal/models"
	"example.com/govevents/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GovStructureService handles government structure CRUD and
// structure-level subscriptions.
type GovStructureService struct {
	db         *gorm.DB
	structures structureStore
	subs       subscriptionStore
	users      userStore
}

// NewGovStructureService creates a new government structure service.
func NewGovStructureService(db *gorm.DB) *GovStructureService {
	return &GovStructureService{
		db:         db,
		structures: repositories.NewGovStructureRepository(db),
		subs:       repositories.NewSubscriptionRepository(db),
		users:      repositories.NewUserRepository(db),
	}
}

// GovStructureCreate carries the fields needed to create a structure.
type GovStructureCreate struct {
	Name        string
	Description *string
	Email       string
	Address     *string
}

// CreateStructure creates a government structure.
func (s *GovStructureService) CreateStructure(ctx context.Context, input GovStructureCreate) (*models.GovStructure, error) {
	structure := &models.GovStructure{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Email:       input.Email,
		Address:     input.Address,
	}

	if err := s.structures.Create(ctx, structure); err != nil {
		return nil, errors.Wrap(err, "failed to create government structure")
	}

	log.Info().Str("gov_structure_id", structure.ID.String()).Msg("Government structure created")
	return structure, nil
}

// GetStructure returns one structure.
func (s *GovStructureService) GetStructure(ctx context.Context, id uuid.UUID) (*models.GovStructure, error) {
	structure, err := s.structures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, ErrGovStructureNotFound
	}
	return structure, nil
}

// ListStructures returns all structures.
func (s *GovStructureService) ListStructures(ctx context.Context) ([]models.GovStructure, error) {
	return s.structures.List(ctx)
}

// DeleteStructure removes a structure; its events and the subscriptions
// hanging off them cascade away with it.
func (s *GovStructureService) DeleteStructure(ctx context.Context, id uuid.UUID) error {
	structure, err := s.structures.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if structure == nil {
		return ErrGovStructureNotFound
	}

	if err := s.structures.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete government structure")
	}

	log.Info().Str("gov_structure_id", id.String()).Msg("Government structure deleted")
	return nil
}

// Subscribe subscribes a user to every event the structure hosts.
func (s *GovStructureService) Subscribe(ctx context.Context, structureID, userID uuid.UUID) error {
	structure, err := s.structures.GetByID(ctx, structureID)
	if err != nil {
		return err
	}
	if structure == nil {
		return ErrGovStructureNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.subs.SubscribeToGovStructure(ctx, structureID, userID)
}

// Unsubscribe removes a structure subscription.
func (s *GovStructureService) Unsubscribe(ctx context.Context, structureID, userID uuid.UUID) error {
	return s.subs.UnsubscribeFromGovStructure(ctx, structureID, userID)
}
