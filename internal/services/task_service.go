package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"focustache/internal/models"
	"focustache/internal/repositories"
)

// NewTask holds the fields of a task to create.
type NewTask struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
}

// TaskUpdate holds the fields of a partial task update. Nil fields are kept;
// set ClearDueDate to remove an existing due date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *string
	Completed    *bool
}

// TaskService provides task operations scoped to a single owner.
type TaskService struct {
	repo      repositories.TaskRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewTaskService creates a new TaskService. publisher may be nil.
func NewTaskService(repo repositories.TaskRepository, publisher EventPublisher) *TaskService {
	return &TaskService{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns the owner's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	tasks, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	return tasks, nil
}

// Create stores a new task for userID. The title is required; an unknown
// priority falls back to medium.
func (s *TaskService) Create(ctx context.Context, userID string, in NewTask) (*models.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "title is required")
	}

	now := s.now()
	task := &models.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		DueDate:     utcPtr(in.DueDate),
		Priority:    models.ParsePriority(in.Priority),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, storeError("create task", err)
	}

	slog.DebugContext(ctx, "task created", "user_id", userID, "task_id", task.ID)
	publish(ctx, s.publisher, EventTaskCreated, map[string]interface{}{
		"userId": userID,
		"taskId": task.ID,
	})
	return task, nil
}

// GetByID returns one of the owner's tasks. Tasks of other users are
// reported as not found.
func (s *TaskService) GetByID(ctx context.Context, userID, id string) (*models.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	task, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, taskLookupError("get task", id, err)
	}
	return task, nil
}

// Update applies a partial update to one of the owner's tasks.
func (s *TaskService) Update(ctx context.Context, userID, id string, in TaskUpdate) (*models.Task, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var changes models.TaskChanges
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, NewValidationError("title", "title cannot be empty")
		}
		changes.Title = &title
	}
	changes.Description = in.Description
	if in.ClearDueDate {
		changes.DueDateSet = true
	} else if in.DueDate != nil {
		changes.DueDateSet = true
		changes.DueDate = utcPtr(in.DueDate)
	}
	if in.Priority != nil {
		p := models.ParsePriority(*in.Priority)
		changes.Priority = &p
	}
	changes.Completed = in.Completed

	task, err := s.repo.Update(ctx, userID, id, changes)
	if err != nil {
		return nil, taskLookupError("update task", id, err)
	}

	publish(ctx, s.publisher, EventTaskUpdated, map[string]interface{}{
		"userId":    userID,
		"taskId":    task.ID,
		"completed": task.Completed,
	})
	return task, nil
}

// Delete removes one of the owner's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return taskLookupError("delete task", id, err)
	}

	publish(ctx, s.publisher, EventTaskDeleted, map[string]interface{}{
		"userId": userID,
		"taskId": id,
	})
	return nil
}

func taskLookupError(op, id string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return storeError(op, err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
