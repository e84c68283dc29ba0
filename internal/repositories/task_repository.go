package repositories

import (
	"context"

	"focustache/internal/models"
)

// TaskRepository defines the interface for task data access. Every method
// that addresses a single task filters on both the task ID and the owner ID,
// so a task owned by someone else is reported as models.ErrNotFound.
type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, ownerID, id string) (*models.Task, error)
	Update(ctx context.Context, ownerID, id string, changes models.TaskChanges) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
