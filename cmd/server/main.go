package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kweissmann/hireview/backend/internal/api"
	"github.com/kweissmann/hireview/backend/internal/auth"
	"github.com/kweissmann/hireview/backend/internal/cache"
	"github.com/kweissmann/hireview/backend/internal/config"
	"github.com/kweissmann/hireview/backend/internal/ingest"
	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/refresh"
	"github.com/kweissmann/hireview/backend/internal/stats"
	"github.com/kweissmann/hireview/backend/internal/storage"
	"github.com/kweissmann/hireview/backend/internal/websocket"
	"github.com/kweissmann/hireview/backend/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("timezone", cfg.Timezone.String()).
		Str("log_level", cfg.LogLevel).
		Msg("starting hireview backend server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create record store
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize record store")
	}

	// Create recruiter cache and aggregation pipeline
	recruiters := cache.NewRecruiterCache(store, cache.DefaultRecruiterTTL)
	engine := stats.NewEngine(store, recruiters, cfg.StoreTimeout, log.Logger)
	statsService := stats.NewService(engine, cfg.Timezone, log.Logger)

	// Create WebSocket hub
	hub := websocket.NewHub(statsService, log.Logger)
	go hub.Run()

	// Create refresher (pushes fresh snapshots after writes)
	refresher := refresh.NewRefresher(hub, cfg.RefreshDebounce, log.Logger)
	go refresher.Start(ctx)

	// Create handlers
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	dashboardHandler := api.NewDashboardHandler(statsService, log.Logger)
	ingestHandler := ingest.NewHandler(store, recruiters, refresher, cfg.Timezone, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Get().Handler())

	// Internal routes (no auth - for the tracking frontend's server side)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/records", ingestHandler.HandleRecord)
		r.Put("/recruiters/{recruiterId}", ingestHandler.HandleRecruiter)
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/api/dashboard-stats", dashboardHandler.HandleStats)
		r.Get("/ws", wsHandler.ServeHTTP)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the refresher loop
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"hireview-backend"}`)
}
