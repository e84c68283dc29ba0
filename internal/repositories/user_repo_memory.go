package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"focustache/internal/models"

	"github.com/google/uuid"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
type InMemoryUserRepository struct {
	users   map[string]models.User
	byEmail map[string]string
	mu      sync.RWMutex
}

// NewInMemoryUserRepository creates a new instance of InMemoryUserRepository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create adds a new user. The email index enforces uniqueness.
func (r *InMemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return fmt.Errorf("email %s: %w", user.Email, models.ErrDuplicateKey)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	r.users[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByEmail returns a user by email.
func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, models.ErrNotFound)
	}
	user := r.users[id]
	return &user, nil
}

// GetByID returns a user by ID.
func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

// Update modifies an existing user.
func (r *InMemoryUserRepository) Update(_ context.Context, id string, changes models.UserChanges) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s not found for update: %w", id, models.ErrNotFound)
	}
	if changes.Email != nil && *changes.Email != user.Email {
		if _, taken := r.byEmail[*changes.Email]; taken {
			return nil, fmt.Errorf("update user %s: %w", id, models.ErrDuplicateKey)
		}
		delete(r.byEmail, user.Email)
		user.Email = *changes.Email
		r.byEmail[user.Email] = id
	}
	if changes.Name != nil {
		user.Name = *changes.Name
	}
	if changes.PasswordHash != nil {
		user.PasswordHash = *changes.PasswordHash
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return &user, nil
}

// Delete removes a user by ID.
func (r *InMemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	delete(r.byEmail, user.Email)
	delete(r.users, id)
	return nil
}
