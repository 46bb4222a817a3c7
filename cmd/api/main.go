package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contextfort/postwatch/internal/config"
	"github.com/contextfort/postwatch/internal/database"
	"github.com/contextfort/postwatch/internal/handlers"
	middlewareCustom "github.com/contextfort/postwatch/internal/middleware"
	"github.com/contextfort/postwatch/internal/repositories"
	"github.com/contextfort/postwatch/internal/routes"
	"github.com/contextfort/postwatch/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	requestRepo := repositories.NewBlockedRequestRepository(db)
	whitelistRepo := repositories.NewWhitelistRepository(db)

	// Initialize services
	requestService := services.NewRequestService(requestRepo, services.RequestServiceConfig{
		StatsTopDomains:  cfg.API.StatsTopDomains,
		DefaultListLimit: cfg.API.DefaultListLimit,
		MaxListLimit:     cfg.API.MaxListLimit,
	}, logger)
	whitelistService := services.NewWhitelistService(whitelistRepo, logger)

	// Initialize handlers
	requestHandler := handlers.NewRequestHandler(requestService)
	whitelistHandler := handlers.NewWhitelistHandler(whitelistService)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	ingestLimit := middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.API.IngestRateLimit}
	routes.RegisterRoutes(router, requestHandler, whitelistHandler, ingestLimit)

	// Service index
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"postwatch","endpoints":{` +
			`"POST /api/blocked-requests":"store a detected request",` +
			`"GET /api/blocked-requests":"list records with optional filters",` +
			`"GET /api/blocked-requests/{id}":"fetch one record",` +
			`"PATCH /api/blocked-requests/{id}/status":"update record status",` +
			`"DELETE /api/blocked-requests/{id}":"delete one record",` +
			`"DELETE /api/blocked-requests":"delete all records",` +
			`"GET /api/stats":"aggregate summary",` +
			`"POST /api/whitelist":"whitelist a URL",` +
			`"GET /api/whitelist":"list whitelisted URLs",` +
			`"GET /api/whitelist/check":"check if a URL is whitelisted",` +
			`"DELETE /api/whitelist/{id}":"remove a whitelist entry"}}`))
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
