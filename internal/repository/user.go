package repository

import (
	"context"
	"errors"

	"users-api/internal/domain"
)

// ErrNotFound indicates that no row matched the given id.
var ErrNotFound = errors.New("repository: not found")

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	// List returns every user ordered by ascending id.
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in domain.CreateUserInput) (*domain.User, error)
	// Update overwrites name, email and age of the row with user.ID.
	Update(ctx context.Context, user domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
