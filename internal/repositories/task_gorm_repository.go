package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustache/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMTaskRepository is a GORM implementation of TaskRepository.
type GORMTaskRepository struct {
	db *gorm.DB
}

// NewGORMTaskRepository creates a new instance of GORMTaskRepository.
func NewGORMTaskRepository(db *gorm.DB) *GORMTaskRepository {
	return &GORMTaskRepository{
		db: db,
	}
}

// ListByOwner retrieves the owner's tasks, newest first.
func (r *GORMTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create creates a new task in the database.
func (r *GORMTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a single task owned by ownerID.
func (r *GORMTaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %s: %w", id, err)
	}
	return &task, nil
}

// Update applies a partial update to a task owned by ownerID.
func (r *GORMTaskRepository) Update(ctx context.Context, ownerID, id string, changes models.TaskChanges) (*models.Task, error) {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.DueDateSet {
		updates["due_date"] = changes.DueDate
	}
	if changes.Priority != nil {
		updates["priority"] = *changes.Priority
	}
	if changes.Completed != nil {
		updates["completed"] = *changes.Completed
	}

	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("task with ID %s not found for update: %w", id, models.ErrNotFound)
	}
	return r.GetByID(ctx, ownerID, id)
}

// Delete deletes a task owned by ownerID.
func (r *GORMTaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, "id = ? AND user_id = ?", id, ownerID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteByOwner deletes every task owned by ownerID and returns how many were removed.
func (r *GORMTaskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, "user_id = ?", ownerID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete tasks of user %s: %w", ownerID, res.Error)
	}
	return res.RowsAffected, nil
}
