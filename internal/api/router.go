package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	accountHandler := NewAccountHandler(repos, log)
	jobHandler := NewJobHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)
	proxyHandler := NewProxyHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)

	// API v1
	v1 := router.Group("/v1")
	{
		// Account (credential store) endpoints
		accounts := v1.Group("/accounts")
		{
			accounts.GET("", accountHandler.ListAccounts)
			accounts.POST("", accountHandler.CreateAccount)
			accounts.DELETE("/:account_id", accountHandler.DeleteAccount)
		}

		// Bulk import job endpoints
		imports := v1.Group("/accounts/:account_id/import")
		{
			imports.GET("", jobHandler.GetSnapshot)
			imports.POST("/start", jobHandler.StartImport)
			imports.POST("/pause", jobHandler.PauseImport)
			imports.POST("/resume", jobHandler.ResumeImport)
			imports.POST("/stop", jobHandler.StopImport)
			imports.POST("/clear", jobHandler.ClearImport)
			imports.PATCH("/settings", jobHandler.UpdateSettings)
			imports.GET("/results", exportHandler.ExportResults)
		}

		// Pass-through proxy endpoints
		v1.POST("/accounts/:account_id/password-resets", proxyHandler.SendPasswordResets)
		v1.GET("/accounts/:account_id/email-templates/:template", proxyHandler.GetEmailTemplate)
		v1.PUT("/accounts/:account_id/email-templates/:template", proxyHandler.UpdateEmailTemplate)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "identity-admin-api",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
