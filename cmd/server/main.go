package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/identity-admin-api/internal/api"
	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/identity"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/service"
	"github.com/identity-admin-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Identity Admin API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize repositories (account store file + in-memory job store)
	repos, err := repository.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open account store")
	}
	log.Info().Str("accounts_file", cfg.Accounts.FilePath).Int("accounts", len(repos.Account.List())).Msg("Account store loaded")

	// Initialize identity provider client
	client := identity.NewClient(cfg.Identity.RequestTimeout, log)

	// Initialize services
	services := service.NewServices(repos, client, cfg, log)

	// Initialize router
	router := api.NewRouter(services, repos, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Request stop on active import runs
	services.Job.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
