package handlers

import (
	"focustache/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the authenticated caller's own account.
type UserHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the profile routes behind authRequired.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	userRoutes := router.Group("/users", authRequired)
	userRoutes.Get("/me", h.HandleGetProfile)
	userRoutes.Put("/me", h.HandleUpdateProfile)
	userRoutes.Delete("/me", h.HandleDeleteProfile)
}

// UpdateProfileRequest represents the request body for a profile update.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,max=72"`
}

func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.authService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = trimPtr(req.Email)
	if err := validateStruct(h.validate, req); err != nil {
		return err
	}

	profile, err := h.authService.UpdateProfile(c.UserContext(), userID, services.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *UserHandler) HandleDeleteProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.authService.DeleteProfile(c.UserContext(), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Account deleted"})
}
