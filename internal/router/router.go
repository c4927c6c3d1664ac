package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/school-admin-api/internal/config"
	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/observability"
	"github.com/noah-isme/school-admin-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler         *handler.ActivityHandler
	SecuritySettingsHandler *handler.SecuritySettingsHandler
	VisualSettingsHandler   *handler.VisualSettingsHandler
	AuthMiddleware          fiber.Handler
	HealthProbes            map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	responder := utils.ErrorResponder{LegacyStatus: cfg.LegacyErrorStatus}

	functions := app.Group("/functions/v1", authMiddleware)

	if deps.ActivityHandler != nil {
		functions.Get("/get-activity-logs", deps.ActivityHandler.List)
		functions.Post("/log-activity",
			middleware.RateLimit("log-activity", cfg.LogActivityPerMinute, time.Minute, responder),
			deps.ActivityHandler.Log,
		)
	}

	if deps.SecuritySettingsHandler != nil {
		adminOnly := middleware.RequireRole(models.RoleAdmin, responder)
		functions.Get("/get-security-settings", adminOnly, deps.SecuritySettingsHandler.Get)
		functions.Post("/save-security-settings", adminOnly, deps.SecuritySettingsHandler.Save)
	}

	if deps.VisualSettingsHandler != nil {
		functions.Get("/get-visual-settings", deps.VisualSettingsHandler.Get)
		functions.Post("/save-visual-settings", deps.VisualSettingsHandler.Save)
		functions.Post("/upload-logo", deps.VisualSettingsHandler.UploadLogo)
	}
}
