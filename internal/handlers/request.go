package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"focustache/internal/middleware"
	"focustache/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

var errInvalidDueDate = errors.New("dueDate must be YYYY-MM-DD or an RFC 3339 timestamp")

// DueDate is an optional due date in a request body. It records whether the
// field was present so that an explicit null can clear a stored date.
type DueDate struct {
	set   bool
	value *time.Time
}

// UnmarshalJSON accepts null, "YYYY-MM-DD" (midnight UTC) or RFC 3339.
func (d *DueDate) UnmarshalJSON(data []byte) error {
	d.set = true
	d.value = nil

	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errInvalidDueDate
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}

	s := strings.TrimSpace(*raw)
	if parsed, err := time.Parse(dateLayout, s); err == nil {
		d.value = &parsed
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		parsed = parsed.UTC()
		d.value = &parsed
		return nil
	}
	return errInvalidDueDate
}

// Set reports whether the field appeared in the body.
func (d DueDate) Set() bool { return d.set }

// Ptr returns the parsed date, or nil when absent or null.
func (d DueDate) Ptr() *time.Time { return d.value }

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// parseBody decodes the JSON body into out and validates it.
func parseBody(c *fiber.Ctx, validate *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		if errors.Is(err, errInvalidDueDate) {
			return services.NewValidationError("dueDate", errInvalidDueDate.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return validateStruct(validate, out)
}

func validateStruct(validate *validator.Validate, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	verr := services.NewValidationError()
	for _, e := range validationErrors {
		verr.Fields[e.Field()] = fieldMessage(e)
	}
	return verr
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}

// currentUser returns the id of the authenticated caller.
func currentUser(c *fiber.Ctx) (string, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return "", services.ErrUnauthenticated
	}
	return identity.UserID, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
