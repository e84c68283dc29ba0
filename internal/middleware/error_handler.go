package middleware

import (
	"errors"
	"log/slog"

	"focustache/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler converts errors returned by handlers into JSON responses.
// Causes of 5xx responses are logged and never sent to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, fiber.Map) {
	var verr *services.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		}
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, fiber.Map{"message": "Validation failed"}
	case errors.Is(err, services.ErrDuplicateEmail):
		return fiber.StatusConflict, fiber.Map{"message": "Email already registered"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, fiber.Map{"message": "Invalid email or password"}
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrExpiredToken):
		return fiber.StatusUnauthorized, fiber.Map{"message": "Invalid or expired token"}
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, fiber.Map{"message": "Resource not found"}
	case errors.As(err, &ferr):
		if ferr.Code >= fiber.StatusInternalServerError {
			return ferr.Code, fiber.Map{"message": "Internal server error"}
		}
		return ferr.Code, fiber.Map{"message": ferr.Message}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"message": "Internal server error"}
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
