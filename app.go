package main

import (
	"io"
	"time"

	"focustache/internal/config"
	"focustache/internal/handlers"
	"focustache/internal/middleware"
	"focustache/internal/repositories"
	"focustache/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// newApp wires services and handlers onto a Fiber app. publisher may be nil
// to disable events; accessLog may be nil to disable request logging.
func newApp(cfg config.Config, store *repositories.Store, publisher services.EventPublisher, accessLog io.Writer) *fiber.App {
	// --- Initialize Services ---
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(store.Users, store.Tasks, tokenService, publisher, services.AuthOptions{
		BcryptCost:      cfg.Auth.BcryptCost,
		CascadeOnDelete: cfg.Auth.CascadeOnDelete,
	})
	taskService := services.NewTaskService(store.Tasks, publisher)

	// --- Initialize Handlers ---
	systemHandler := handlers.NewSystemHandler(store, time.Now())
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:               "focustache",
		ErrorHandler:          middleware.ErrorHandler,
		BodyLimit:             cfg.App.BodyLimit,
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	if accessLog != nil {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
			TimeFormat: time.RFC3339,
			Output:     accessLog,
		}))
	}
	app.Use(middleware.CORS(cfg.App.CORSOrigin))

	systemHandler.RegisterRoutes(app)

	// --- API Routes ---
	api := app.Group("/api")
	authRequired := middleware.AuthRequired(tokenService)
	authHandler.RegisterRoutes(api, authRequired)

	userHandler.RegisterRoutes(api, authRequired)
	taskHandler.RegisterRoutes(api, authRequired)

	app.Use(systemHandler.HandleNotFound)
	return app
}
