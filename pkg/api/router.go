// Package api exposes the explored index over HTTP.
package api

import (
	"time"

	"github.com/1F47E/geo-explored/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
)

const requestTimeout = 15 * time.Second

// NewApp creates a fiber app with all routes registered
func NewApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "explored",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers the REST routes and the metrics endpoint
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(requestid.New())
	app.Use(AccessLogMiddleware(deps.Log.With().Str("component", "api").Logger()))

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/explored", timeout.NewWithContext(QueryHandler(deps), requestTimeout))
	v1.Get("/explored/all", timeout.NewWithContext(AllHandler(deps), requestTimeout))
	v1.Get("/explored/check", timeout.NewWithContext(CheckHandler(deps), requestTimeout))
	v1.Post("/fixes", FixesHandler(deps))
	v1.Get("/stats", StatsHandler(deps))
	v1.Post("/flush", timeout.NewWithContext(FlushHandler(deps), requestTimeout))
}
