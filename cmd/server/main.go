package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/yuu551/plc-control/internal/audit"
	"github.com/yuu551/plc-control/internal/config"
	"github.com/yuu551/plc-control/internal/crypto"
	"github.com/yuu551/plc-control/internal/database"
	"github.com/yuu551/plc-control/internal/handlers"
	"github.com/yuu551/plc-control/internal/obs"
	"github.com/yuu551/plc-control/internal/plc"
	"github.com/yuu551/plc-control/internal/routes"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting PLC control gateway", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Metrics ────────────────────────────────────────────────────────
	obs.Init()

	// ─── Parameter encryption ───────────────────────────────────────────
	var encryptor *crypto.Encryptor
	if cfg.ParamEncryptionKey != "" {
		var err error
		encryptor, err = crypto.NewEncryptor(cfg.ParamEncryptionKey)
		if err != nil {
			slog.Error("Failed to create encryptor", "error", err)
			os.Exit(1)
		}
		slog.Info("Secure parameter encryption initialized")
	} else {
		slog.Warn("PARAM_ENCRYPTION_KEY not set, device parameters will not be protected")
		// Dummy encryptor with a default key for development
		encryptor, _ = crypto.NewEncryptor("0000000000000000000000000000000000000000000000000000000000000000")
	}

	// ─── Command pipeline ───────────────────────────────────────────────
	parameterStore := plc.NewParameterStore(db)
	recordStore := plc.NewRecordStore(db)
	resolver := plc.NewResolver(parameterStore, encryptor, cfg.ParamStorePrefix, cfg.ParamCacheTTL)
	executor := plc.SimulatedExecutor{}

	auditStore := audit.NewStore(db)
	sink := audit.NewSink(auditStore, cfg.AuditLogGroup)
	queryService := audit.NewQueryService(auditStore, cfg.AuditLogGroup)

	gateway := plc.NewGateway(resolver, executor, recordStore, sink, cfg.DeviceTimeout)

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg)
	commandHandler := handlers.NewCommandHandler(gateway, recordStore, parameterStore, encryptor, sink, cfg.ParamStorePrefix)
	auditHandler := handlers.NewAuditHandler(queryService)
	liveHandler := handlers.NewLiveHandler(recordStore)
	systemHandler := handlers.NewSystemHandler(db)

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "plc-control v" + handlers.Version,
		ServerHeader: "plc-control",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" || c.Path() == "/metrics" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, commandHandler, auditHandler, liveHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down PLC control gateway...")

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("PLC control gateway listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
