package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"focustache/internal/config"
	"focustache/internal/repositories"
	"focustache/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	args := m.Called(ctx, eventType, data)
	return args.Error(0)
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{
			Port:            ":0",
			CORSOrigin:      "*",
			BodyLimit:       1 << 20,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:  "test_jwt_secret",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
	}
}

func request(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestIndexAndHealth(t *testing.T) {
	app := newApp(testConfig(), repositories.NewInMemoryStore(), nil, nil)

	resp, body := request(t, app, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FocusTache API", body["message"])

	resp, body = request(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Contains(t, body, "uptime")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealth_StoreDown(t *testing.T) {
	ctx := context.Background()
	store, err := repositories.Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	app := newApp(testConfig(), store, nil, nil)
	resp, body := request(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "disconnected", body["database"])
}

func TestNotFound(t *testing.T) {
	app := newApp(testConfig(), repositories.NewInMemoryStore(), nil, nil)

	resp, body := request(t, app, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["message"], "GET /nope")
	assert.NotEmpty(t, body["availableRoutes"])

	for _, path := range []string{"/api/nope", "/api/auth/nope"} {
		resp, body = request(t, app, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.NotEmpty(t, body["availableRoutes"], path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newApp(testConfig(), repositories.NewInMemoryStore(), nil, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/abc"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/auth/verify"},
	} {
		resp, _ := request(t, app, route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newApp(testConfig(), repositories.NewInMemoryStore(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestEventsArePublished(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, services.EventUserRegistered, mock.Anything).Return(nil).Once()
	publisher.On("Publish", mock.Anything, services.EventTaskCreated, mock.Anything).Return(nil).Once()
	publisher.On("Publish", mock.Anything, services.EventTaskDeleted, mock.Anything).Return(assert.AnError).Once()

	app := newApp(testConfig(), repositories.NewInMemoryStore(), publisher, nil)

	resp, body := request(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ana", "email": "ana@x.com", "password": "pw1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := body["token"].(string)

	resp, body = request(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "Buy milk"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = request(t, app, http.MethodDelete, "/api/tasks/"+body["id"].(string), nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "a failed publish does not fail the request")

	publisher.AssertExpectations(t)
}
