package main

import (
	"fmt"
	"net/http"
	"os"

	"gideon/internal/config"
	"gideon/internal/database"
	"gideon/internal/handlers"
	"gideon/internal/logger"
	"gideon/internal/middleware"
	"gideon/internal/services"
	"gideon/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gideon/internal/docs" // Import swagger docs
)

// @title           Gideon Finance API
// @version         1.0
// @description     Gideon Finance tracks personal income and expenses and summarizes them by month and category.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()
	router := newRouter(appConfig, dbManager)

	log.Infof("Starting Gideon Finance gateway on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

func newRouter(appConfig *config.Config, dbManager *database.Manager) *gin.Engine {
	db := dbManager.DB()
	tokens := middleware.NewTokenManager(appConfig.JWTSecret, appConfig.AccessTokenTTL, appConfig.RefreshTokenTTL)

	// Initialize services
	userService := services.NewUserService(db, appConfig.AutoConfirm)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, tokens, services.NewLogMailer())
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	activityHandler := handlers.NewActivityHandler(auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.CORSOrigin))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/verify", authHandler.Verify)
	auth.POST("/token", authHandler.SignIn)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/recover", authHandler.Recover)
	auth.POST("/reset", authHandler.Reset)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.GET("/auth/user", authHandler.GetUser)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/activity", activityHandler.ListActivity)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return router
}
