package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/supportdesk/internal/api/http/handlers"
	"github.com/spec-kit/supportdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tickets      *handlers.TicketsHandler
	Entitlements *handlers.EntitlementsHandler
	Blacklist    *handlers.BlacklistHandler
	Settings     *handlers.SettingsHandler
	Tokens       *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/token", cfg.Auth.Token)

	v1 := app.Group("/v1", auth.Middleware(cfg.Tokens))

	tickets := v1.Group("/tickets")
	tickets.Post("", cfg.Tickets.Open)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/activity", cfg.Tickets.Activity)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/pause", cfg.Tickets.Pause)
	tickets.Post("/:id/resume", cfg.Tickets.Resume)
	tickets.Post("/:id/claim", auth.RequireStaff(), cfg.Tickets.Claim)
	tickets.Post("/:id/hide", auth.RequireStaff(), cfg.Tickets.Hide)
	tickets.Post("/:id/unhide", auth.RequireStaff(), cfg.Tickets.Unhide)
	tickets.Post("/:id/block", auth.RequireStaff(), cfg.Tickets.Block)
	tickets.Post("/:id/unblock", auth.RequireStaff(), cfg.Tickets.Unblock)
	tickets.Post("/:id/forward", auth.RequireStaff(), cfg.Tickets.Forward)
	tickets.Post("/:id/split", auth.RequireStaff(), cfg.Tickets.Split)

	v1.Post("/forwards/:offerID/respond", auth.RequireStaff(), cfg.Tickets.RespondForward)

	blacklist := v1.Group("/blacklist", auth.RequireStaff())
	blacklist.Put("/:userID", cfg.Blacklist.Add)
	blacklist.Delete("/:userID", cfg.Blacklist.Remove)
	blacklist.Get("/:userID", cfg.Blacklist.Get)

	entitlement := v1.Group("/entitlement")
	entitlement.Get("", cfg.Entitlements.Resolve)
	entitlement.Get("/features/:key", cfg.Entitlements.CheckFeature)
	admin := entitlement.Group("", auth.RequireAdmin())
	admin.Post("/activate", cfg.Entitlements.Activate)
	admin.Post("/deactivate", cfg.Entitlements.Deactivate)
	admin.Post("/renew", cfg.Entitlements.Renew)
	admin.Post("/downgrade", cfg.Entitlements.Downgrade)
	admin.Post("/cancel", cfg.Entitlements.Cancel)

	settings := v1.Group("/settings", auth.RequireAdmin())
	settings.Get("", cfg.Settings.Get)
	settings.Patch("", cfg.Settings.Update)
	settings.Post("/api-key", cfg.Settings.RotateAPIKey)
}
