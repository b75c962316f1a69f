package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/yuu551/plc-control/internal/config"
	"github.com/yuu551/plc-control/internal/handlers"
	"github.com/yuu551/plc-control/internal/middleware"
	"github.com/yuu551/plc-control/internal/obs"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	commandHandler *handlers.CommandHandler,
	auditHandler *handlers.AuditHandler,
	liveHandler *handlers.LiveHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(obs.Handler()))

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)

	// System
	api.Get("/system/info", systemHandler.Info)

	// PLC commands
	api.Post("/plc/command", commandHandler.Submit)
	api.Get("/plc/history", commandHandler.History)
	api.Put("/plc/parameters", commandHandler.UpdateParameters)

	// Live command feed (WebSocket)
	api.Use("/plc/live", liveHandler.UpgradeCheck())
	api.Get("/plc/live", liveHandler.Feed())

	// Audit trail
	api.Get("/audit/logs", auditHandler.ListAuditLogs)
}
