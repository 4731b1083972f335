package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/internal/handlers"
	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/services"
	"github.com/GrandGaleTechnologies/docops-console/internal/upstream"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/GrandGaleTechnologies/docops-console/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("upstream", cfg.Upstream.BaseURL).
		Msg("Starting console")

	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()

	platform := upstream.NewClient(&http.Client{Timeout: cfg.Upstream.Timeout}, cfg.Upstream.BaseURL)
	queryCache := cache.New(redisDB.Client(), cfg.Cache.Enabled)
	invalidator := services.NewInvalidator(queryCache)

	sessionService := services.NewSessionService(redisDB, platform, cfg.Session.Expiry)
	projectService := services.NewProjectService(platform, queryCache, invalidator, cfg.Cache.ResourceTTL)
	integrationService := services.NewIntegrationService(platform, queryCache, invalidator, cfg.Cache.ResourceTTL)
	syncService := services.NewSyncService(platform, queryCache, invalidator, cfg.Cache.ResourceTTL)
	dashboardService := services.NewDashboardService(platform, queryCache, cfg.Cache.DashboardTTL)

	router := handlers.NewRouter(handlers.Deps{
		Config:       cfg,
		Sessions:     sessionService,
		Auth:         handlers.NewAuthHandler(sessionService, platform, invalidator, cfg.Session, cfg.Server.IsProduction()),
		Projects:     handlers.NewProjectsHandler(projectService, projectService),
		Integrations: handlers.NewIntegrationsHandler(integrationService),
		Syncs:        handlers.NewSyncsHandler(syncService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		Health:       handlers.NewHealthHandler(redisDB),
		Pages:        handlers.NewPagesHandler(),
		RateLimiter:  middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
