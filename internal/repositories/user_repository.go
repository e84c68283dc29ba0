package repositories

import (
	"context"

	"focustache/internal/models"
)

// UserRepository defines the interface for user data access.
// Lookups that match nothing return models.ErrNotFound; an email collision on
// create or update returns models.ErrDuplicateKey.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, changes models.UserChanges) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
