package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if strings.TrimSpace(user.Name) == "" || strings.TrimSpace(user.Email) == "" {
		return nil, fmt.Errorf("%w: user name and email are required", domain.ErrValidation)
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

// UpdateUser applies a partial update. A duplicate email yields ErrConflict.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		user.Name = *patch.Name
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		user.Email = *patch.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}
