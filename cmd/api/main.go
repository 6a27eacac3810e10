package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"rufous/internal/categorize"
	"rufous/internal/config"
	"rufous/internal/database"
	"rufous/internal/handlers"
	"rufous/internal/insight"
	"rufous/internal/location"
	"rufous/internal/logger"
	"rufous/internal/middleware"
	"rufous/internal/parser"
	"rufous/internal/services"
	"rufous/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "rufous/internal/docs" // Import swagger docs
)

// @title           Rufous API
// @version         1.0
// @description     Rufous ingests bank statements, categorizes transactions, and answers natural-language questions about spending.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

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

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize the parsing pipeline
	locationExtractor := location.NewExtractor()
	statementParser := parser.New(locationExtractor, appConfig.StatementYear)
	categorizer := categorize.New()

	// Initialize the insight backend. Without an API key the insight
	// endpoints report the backend as unavailable but everything else
	// still works.
	var completer insight.Completer
	if appConfig.GeminiAPIKey != "" {
		gemini, err := insight.NewGemini(context.Background(), appConfig.GeminiAPIKey, appConfig.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to initialize insight backend: %w", err)
		}
		completer = gemini
		log.Infof("Insight backend ready (model %s)", appConfig.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not set, insight endpoints disabled")
	}

	// Initialize services
	db := dbManager.DB()
	statementService := services.NewStatementService(db, statementParser, categorizer)
	transactionService := services.NewTransactionService(db)
	maintenanceService := services.NewMaintenanceService(db, categorizer, locationExtractor)
	ruleService := services.NewRuleService(db, categorizer)
	insightService := services.NewInsightService(db, completer, transactionService)

	// Register persisted custom rules with the categorizer
	if err := ruleService.LoadRules(); err != nil {
		return fmt.Errorf("failed to load custom rules: %w", err)
	}

	// Initialize handlers
	statementHandler := handlers.NewStatementHandler(statementService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	insightHandler := handlers.NewInsightHandler(insightService)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group, protected by an API key when one is configured
	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(appConfig.APIKey))

	// Statement ingestion routes
	statements := v1.Group("/statements")
	statements.POST("/upload", statementHandler.Upload)
	statements.POST("/text", statementHandler.IngestText)
	statements.POST("/import", statementHandler.Import)
	statements.GET("", statementHandler.List)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.GET("", transactionHandler.List)
	transactions.GET("/search", transactionHandler.Search)
	transactions.GET("/:id", transactionHandler.Get)
	transactions.PUT("/:id/category", transactionHandler.UpdateCategory)
	transactions.PUT("/categories", transactionHandler.BulkUpdateCategories)

	// Analytics routes
	analytics := v1.Group("/analytics")
	analytics.GET("/spending", transactionHandler.Spending)
	analytics.GET("/trends", transactionHandler.Trends)
	analytics.GET("/stats", transactionHandler.Stats)
	analytics.GET("/categories", transactionHandler.CategorySummary)

	// Categorization rule routes
	rules := v1.Group("/rules")
	rules.POST("", ruleHandler.Create)
	rules.GET("", ruleHandler.List)
	rules.DELETE("/:id", ruleHandler.Delete)
	v1.GET("/categories", ruleHandler.Categories)
	v1.GET("/categorize/explain", ruleHandler.Explain)

	// Insight routes
	insights := v1.Group("/insights")
	insights.POST("/query", insightHandler.Query)
	insights.GET("/history", insightHandler.History)

	// Maintenance routes
	maintenance := v1.Group("/maintenance")
	maintenance.POST("/categorize", maintenanceHandler.AutoCategorize)
	maintenance.POST("/locations", maintenanceHandler.BackfillLocations)
	maintenance.POST("/credit-amounts", maintenanceHandler.FixCreditAmounts)
	maintenance.POST("/transfers", maintenanceHandler.MarkTransfers)

	log.Infof("Starting Rufous server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
