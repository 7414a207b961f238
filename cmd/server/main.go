package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/juliangsibecas/girafa-backend/internal/router"
	"github.com/juliangsibecas/girafa-backend/internal/services"
	"github.com/juliangsibecas/girafa-backend/pkg/config"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
	"github.com/juliangsibecas/girafa-backend/pkg/push"
	"github.com/juliangsibecas/girafa-backend/pkg/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database connection
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Push delivery is environment-gated; the dedup engine behaves the same
	// either way.
	var dispatcher services.Dispatcher = push.NopDispatcher{}
	if cfg.PushEnabled {
		dispatcher, err = push.NewFCMDispatcher(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize push dispatcher: %v", err)
		}
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	core := router.SetupRoutes(e, db.Database, dispatcher, cfg, appLogger)

	// Validator
	e.Validator = validators.NewValidator()

	go core.ExpirySweeper.Run(ctx)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
