package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/juliangsibecas/girafa-backend/internal/handlers"
	"github.com/juliangsibecas/girafa-backend/internal/middleware"
	"github.com/juliangsibecas/girafa-backend/internal/repositories"
	"github.com/juliangsibecas/girafa-backend/internal/services"
	"github.com/juliangsibecas/girafa-backend/pkg/config"
	"github.com/juliangsibecas/girafa-backend/pkg/logger"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// Core bundles the wired service layer so main can reach pieces that run
// outside the request path (the expiry sweeper).
type Core struct {
	ExpirySweeper *services.ExpirySweeper
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *mongo.Database, dispatcher services.Dispatcher, cfg *config.Config, log *logger.Logger) *Core {
	// --- Repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	partyRepo := repositories.NewMongoPartyRepository(db)
	notificationRepo := repositories.NewMongoNotificationRepository(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, dispatcher, log)
	relationshipService := services.NewRelationshipService(userRepo, log)
	membershipService := services.NewMembershipService(userRepo, partyRepo, log)
	inviteService := services.NewInviteService(userRepo, partyRepo, notificationService, log)
	partyService := services.NewPartyService(userRepo, partyRepo, membershipService, dispatcher, log)
	cascadeService := services.NewCascadeService(userRepo, partyRepo, relationshipService, membershipService, notificationService, log)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(userRepo, relationshipService, notificationService, cascadeService, cfg.AdminEmail)
	partyHandler := handlers.NewPartyHandler(userRepo, partyService, membershipService, inviteService, cascadeService, dispatcher, cfg.AdminEmail)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	authGroup := e.Group("/auth")
	authHandler.RegisterAuthRoutes(authGroup)

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	userHandler.RegisterUserRoutes(api)
	partyHandler.RegisterPartyRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)

	return &Core{
		ExpirySweeper: services.NewExpirySweeper(partyRepo, cfg.PartyExpiryInterval, log),
	}
}
