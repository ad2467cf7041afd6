package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"users-api/internal/apperror"
	"users-api/internal/domain"
	"users-api/internal/repository"
)

// UserService describes the users resource operations.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in domain.UpdateUserInput) (*domain.User, error)
	// Delete removes the user and returns the confirmation message.
	Delete(ctx context.Context, id int64) (string, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Persistence("error retrieving users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, apperror.Persistence(fmt.Sprintf("error retrieving user %d", id), err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, apperror.Validation("name and email are required")
	}

	user, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, apperror.Persistence("error creating user", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id int64, in domain.UpdateUserInput) (*domain.User, error) {
	if in.Empty() {
		return nil, apperror.Validation("at least one field to update is required")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, in.Apply(*existing))
	if err != nil {
		// the row may vanish between the read and the write
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, apperror.Persistence(fmt.Sprintf("error updating user %d", id), err)
	}
	return updated, nil
}

func (s *userService) Delete(ctx context.Context, id int64) (string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", notFound(id)
		}
		return "", apperror.Persistence(fmt.Sprintf("error deleting user %d", id), err)
	}
	return fmt.Sprintf("user with id %d deleted successfully", id), nil
}

func notFound(id int64) error {
	return apperror.NotFound(fmt.Sprintf("user with id %d not found", id))
}
