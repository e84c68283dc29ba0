package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"focustache/internal/models"
	"focustache/internal/repositories"
	"focustache/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTaskService_Create_Defaults(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), publisher)

	task, err := taskService.Create(ctx, "user-1", services.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "user-1", task.UserID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, []string{services.EventTaskCreated}, publisher.Events())
}

func TestTaskService_Create_Priority(t *testing.T) {
	ctx := context.Background()
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), nil)

	cases := map[string]models.Priority{
		"high":   models.PriorityHigh,
		"LOW":    models.PriorityLow,
		"urgent": models.PriorityMedium,
		"":       models.PriorityMedium,
		"haute":  models.PriorityHigh,
	}
	for raw, want := range cases {
		task, err := taskService.Create(ctx, "user-1", services.NewTask{Title: "x", Priority: raw})
		require.NoError(t, err)
		assert.Equal(t, want, task.Priority, "priority %q", raw)
	}
}

func TestTaskService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), nil)

	_, err := taskService.Create(ctx, "user-1", services.NewTask{Title: "   "})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = taskService.Create(ctx, "", services.NewTask{Title: "x"})
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestTaskService_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), nil)

	for _, title := range []string{"first", "second", "third"} {
		_, err := taskService.Create(ctx, "user-1", services.NewTask{Title: title})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := taskService.Create(ctx, "user-2", services.NewTask{Title: "someone else"})
	require.NoError(t, err)

	tasks, err := taskService.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
	assert.Equal(t, "first", tasks[2].Title)

	empty, err := taskService.List(ctx, "user-3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskService_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewInMemoryTaskRepository()
	taskService := services.NewTaskService(repo, nil)

	task, err := taskService.Create(ctx, "user-a", services.NewTask{Title: "private"})
	require.NoError(t, err)

	_, err = taskService.GetByID(ctx, "user-b", task.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = taskService.Update(ctx, "user-b", task.ID, services.TaskUpdate{Title: strPtr("hijacked")})
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, taskService.Delete(ctx, "user-b", task.ID), services.ErrNotFound)

	unchanged, err := taskService.GetByID(ctx, "user-a", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", unchanged.Title)

	_, err = taskService.GetByID(ctx, "user-a", "does-not-exist")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestTaskService_Update_Partial(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), publisher)

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	task, err := taskService.Create(ctx, "user-1", services.NewTask{
		Title:       "Report",
		Description: "quarterly",
		DueDate:     &due,
		Priority:    "high",
	})
	require.NoError(t, err)

	completed := true
	updated, err := taskService.Update(ctx, "user-1", task.ID, services.TaskUpdate{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Report", updated.Title)
	assert.Equal(t, "quarterly", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))
	assert.False(t, updated.UpdatedAt.Before(task.UpdatedAt))

	updated, err = taskService.Update(ctx, "user-1", task.ID, services.TaskUpdate{Priority: strPtr("whatever")})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, updated.Priority)

	updated, err = taskService.Update(ctx, "user-1", task.ID, services.TaskUpdate{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	_, err = taskService.Update(ctx, "user-1", task.ID, services.TaskUpdate{Title: strPtr("")})
	assert.ErrorIs(t, err, services.ErrValidation)

	assert.Equal(t, []string{
		services.EventTaskCreated,
		services.EventTaskUpdated,
		services.EventTaskUpdated,
		services.EventTaskUpdated,
	}, publisher.Events())
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	taskService := services.NewTaskService(repositories.NewInMemoryTaskRepository(), nil)

	task, err := taskService.Create(ctx, "user-1", services.NewTask{Title: "temp"})
	require.NoError(t, err)

	require.NoError(t, taskService.Delete(ctx, "user-1", task.ID))
	_, err = taskService.GetByID(ctx, "user-1", task.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, taskService.Delete(ctx, "user-1", task.ID), services.ErrNotFound)
}

func TestTaskService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTaskRepository)
	taskService := services.NewTaskService(mockRepo, nil)

	mockRepo.On("ListByOwner", mock.Anything, "user-1").Return(nil, errors.New("connection reset")).Once()
	mockRepo.On("GetByID", mock.Anything, "user-1", "t1").Return(nil, errors.New("connection reset")).Once()

	_, err := taskService.List(ctx, "user-1")
	var storeErr *services.StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.NotErrorIs(t, err, services.ErrNotFound)

	_, err = taskService.GetByID(ctx, "user-1", "t1")
	assert.True(t, errors.As(err, &storeErr))

	mockRepo.AssertExpectations(t)
}
