package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"focustache/internal/models"

	"github.com/google/uuid"
)

// InMemoryTaskRepository is an in-memory implementation of TaskRepository.
type InMemoryTaskRepository struct {
	tasks map[string]models.Task
	mu    sync.RWMutex
}

// NewInMemoryTaskRepository creates a new instance of InMemoryTaskRepository.
func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{
		tasks: make(map[string]models.Task),
	}
}

// ListByOwner returns the owner's tasks, newest first.
func (r *InMemoryTaskRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == ownerID {
			list = append(list, cloneTask(t))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Create adds a new task.
func (r *InMemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	r.tasks[task.ID] = cloneTask(*task)
	return nil
}

// GetByID returns a task by ID if ownerID owns it.
func (r *InMemoryTaskRepository) GetByID(_ context.Context, ownerID, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, fmt.Errorf("task with ID %s: %w", id, models.ErrNotFound)
	}
	t = cloneTask(t)
	return &t, nil
}

// Update merges changes into a task owned by ownerID.
func (r *InMemoryTaskRepository) Update(_ context.Context, ownerID, id string, changes models.TaskChanges) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, fmt.Errorf("task with ID %s not found for update: %w", id, models.ErrNotFound)
	}
	changes.Apply(&t)
	t.UpdatedAt = time.Now().UTC()
	r.tasks[id] = cloneTask(t)
	return &t, nil
}

// Delete removes a task owned by ownerID.
func (r *InMemoryTaskRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return fmt.Errorf("task with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

// DeleteByOwner removes every task owned by ownerID.
func (r *InMemoryTaskRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tasks {
		if t.UserID == ownerID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

// cloneTask detaches the due date pointer so callers cannot mutate stored state.
func cloneTask(t models.Task) models.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
