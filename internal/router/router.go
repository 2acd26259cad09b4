package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/padosi-app/backend/internal/handlers"
	"github.com/padosi-app/backend/internal/middleware"
	"github.com/padosi-app/backend/internal/models"
	"github.com/padosi-app/backend/internal/repositories"
	"github.com/padosi-app/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.HelpRequest{},
		&models.Notification{},
		&models.Withdrawal{},
		&models.WalletTransaction{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	requestRepo := repositories.NewPostgresRequestRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	walletRepo := repositories.NewPostgresWalletRepository(pgdb)
	conversationRepo := repositories.NewMongoConversationRepository(mgClient.Database("padosi"))

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Help request routes
	requestHandler := handlers.NewRequestHandler(requestRepo, userRepo, walletRepo, notificationRepo)
	requestHandler.RegisterRequestRoutes(api)
	log.Println("Help request routes configured.")

	// Proximity feed routes
	feedHandler := handlers.NewFeedHandler(requestRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Offer and conversation routes
	conversationHandler := handlers.NewConversationHandler(conversationRepo, requestRepo, userRepo, notificationRepo)
	conversationHandler.RegisterConversationRoutes(api)
	log.Println("Conversation routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Wallet routes
	walletHandler := handlers.NewWalletHandler(walletRepo, userRepo, notificationRepo, cfg.SettlementDelay)
	walletHandler.RegisterWalletRoutes(api)
	log.Println("Wallet routes configured.")

	log.Println("All routes configured.")
}
