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

// UserService handles account registration and lookup.
type UserService struct {
	users userStore
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		users: repositories.NewUserRepository(db),
	}
}

// UserCreate carries the fields needed to register an account.
type UserCreate struct {
	FirstName          string
	LastName           string
	Patronymic         string
	Email              string
	IsGovernmentWorker bool
	Locale             string
}

// CreateUser registers a new account. An empty locale falls back to the
// notification default.
func (s *UserService) CreateUser(ctx context.Context, input UserCreate) (*models.User, error) {
	locale := input.Locale
	if locale == "" {
		locale = "ru"
	}

	user := &models.User{
		ID:                 uuid.New(),
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Patronymic:         input.Patronymic,
		Email:              input.Email,
		IsGovernmentWorker: input.IsGovernmentWorker,
		Locale:             locale,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
