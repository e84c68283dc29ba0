package handlers

import (
	"focustache/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles HTTP requests for tasks. Every route acts on the
// authenticated caller's tasks only.
type TaskHandler struct {
	service  *services.TaskService
	validate *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the task routes behind authRequired.
func (h *TaskHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	taskRoutes := router.Group("/tasks", authRequired)
	taskRoutes.Get("/", h.HandleGetTasks)
	taskRoutes.Post("/", h.HandleCreateTask)
	taskRoutes.Get("/:id", h.HandleGetTaskByID)
	taskRoutes.Put("/:id", h.HandleUpdateTask)
	taskRoutes.Patch("/:id", h.HandleUpdateTask)
	taskRoutes.Delete("/:id", h.HandleDeleteTask)
}

// CreateTaskRequest represents the request body for a new task.
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	DueDate     DueDate `json:"dueDate" validate:"-"`
	Priority    string  `json:"priority"`
}

// UpdateTaskRequest represents the request body for a partial task update.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	DueDate     DueDate `json:"dueDate" validate:"-"`
	Priority    *string `json:"priority"`
	Completed   *bool   `json:"completed"`
}

// HandleGetTasks lists the caller's tasks, newest first.
func (h *TaskHandler) HandleGetTasks(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// HandleCreateTask creates a task owned by the caller.
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateTaskRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	task, err := h.service.Create(c.UserContext(), userID, services.NewTask{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.Ptr(),
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// HandleGetTaskByID retrieves a single task by its ID.
func (h *TaskHandler) HandleGetTaskByID(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	task, err := h.service.GetByID(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// HandleUpdateTask merges the provided fields into a task.
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req UpdateTaskRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	task, err := h.service.Update(c.UserContext(), userID, c.Params("id"), services.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate.Ptr(),
		ClearDueDate: req.DueDate.Set() && req.DueDate.Ptr() == nil,
		Priority:     req.Priority,
		Completed:    req.Completed,
	})
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// HandleDeleteTask removes a task.
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}
