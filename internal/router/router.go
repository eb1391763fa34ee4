package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/drumschool-api/internal/config"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/middleware"
	"github.com/noah-isme/drumschool-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CategoryHandler  *handler.CategoryHandler
	StudentHandler   *handler.StudentHandler
	SummaryHandler   *handler.SummaryHandler
	SessionHandler   *handler.SessionHandler
	ReportHandler    *handler.ReportHandler
	DashboardHandler *handler.DashboardHandler
	UserHandler      *handler.UserHandler
	ActivityHandler  *handler.ActivityHandler
	HealthCheck      fiber.Handler
	JWTMiddleware    fiber.Handler
	SummaryRateLimit int
	SummaryWindow    time.Duration
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	health := deps.HealthCheck
	if health == nil {
		health = handler.HealthCheck(cfg, nil)
	}
	api.Get("/health", health)

	auth := deps.JWTMiddleware
	if auth == nil {
		auth = middleware.JWTProtected(cfg.JWTSecret)
	}
	admin := middleware.RequireAdmin()

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users"), auth)
	}

	if deps.CategoryHandler != nil {
		deps.CategoryHandler.Register(api.Group("/categories", auth))
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", auth)
		if deps.SummaryHandler != nil {
			limit := middleware.RateLimit("ai-summary", deps.SummaryRateLimit, deps.SummaryWindow)
			deps.SummaryHandler.Register(students, limit)
		}
		deps.StudentHandler.Register(students)
	}

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/sessions", auth))
	}

	reports := api.Group("/reports", auth)
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(reports, admin)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(reports)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity", auth, admin))
	}
}
