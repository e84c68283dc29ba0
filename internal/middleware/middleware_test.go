package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"focustache/internal/middleware"
	"focustache/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret"

type countingVerifier struct {
	calls int
}

func (v *countingVerifier) Verify(string) (string, error) {
	v.calls++
	return "user-1", nil
}

func setupApp(verifier middleware.TokenVerifier) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/me", middleware.AuthRequired(verifier), func(c *fiber.Ctx) error {
		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			return errors.New("identity missing")
		}
		fromCtx, ok := middleware.IdentityFromContext(c.UserContext())
		if !ok || fromCtx != identity {
			return errors.New("identity not in user context")
		}
		return c.JSON(fiber.Map{"userId": identity.UserID})
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, header string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestAuthenticate_RejectsBeforeVerifying(t *testing.T) {
	verifier := &countingVerifier{}
	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "Token abc", "abc"} {
		_, err := middleware.Authenticate(header, verifier)
		assert.ErrorIs(t, err, services.ErrUnauthenticated, "header %q", header)
	}
	assert.Zero(t, verifier.calls)

	identity, err := middleware.Authenticate("bearer some-token", verifier)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, 1, verifier.calls)
}

func TestAuthRequired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	tokens := services.NewTokenService(testSecret, time.Hour)
	app := setupApp(tokens)

	valid, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	expired, _, err := services.NewTokenService(testSecret, time.Hour).
		WithClock(func() time.Time { return issued }).
		Issue("user-1")
	require.NoError(t, err)

	forged, _, err := services.NewTokenService("other-secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		status, body := doGet(t, app, "Bearer "+valid)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "user-1", body["userId"])
	})

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + valid,
		"malformed":      "Bearer not-a-token",
		"expired":        "Bearer " + expired,
		"forged":         "Bearer " + forged,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := doGet(t, app, header)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, "Invalid or expired token", body["message"])
		})
	}
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", services.NewValidationError("title", "title is required"), fiber.StatusBadRequest, "Validation failed"},
		{"duplicate", services.ErrDuplicateEmail, fiber.StatusConflict, "Email already registered"},
		{"credentials", services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid email or password"},
		{"not found", services.ErrNotFound, fiber.StatusNotFound, "Resource not found"},
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "Invalid request body"), fiber.StatusBadRequest, "Invalid request body"},
		{"store", &services.StoreError{Op: "list tasks", Err: errors.New("dial tcp: refused")}, fiber.StatusInternalServerError, "Internal server error"},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.message, body["message"])
			assert.NotContains(t, string(raw), "refused")
			assert.NotContains(t, string(raw), "boom")
		})
	}
}
