package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/audit"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/config"
	"github.com/menuguard/menuguard-engine/pkg/database"
	"github.com/menuguard/menuguard-engine/pkg/handlers"
	"github.com/menuguard/menuguard-engine/pkg/llm"
	"github.com/menuguard/menuguard-engine/pkg/logging"
	"github.com/menuguard/menuguard-engine/pkg/menufetch"
	"github.com/menuguard/menuguard-engine/pkg/middleware"
	"github.com/menuguard/menuguard-engine/pkg/places"
	"github.com/menuguard/menuguard-engine/pkg/prompts"
	"github.com/menuguard/menuguard-engine/pkg/repositories"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("redis", cfg.Redis.Host))

	ctx := context.Background()

	// Run migrations before opening the pool the server uses
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional; without it password reset is disabled.
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, password reset disabled")
	}

	llmClient, err := llm.NewFromConfig(&cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	promptLib, err := prompts.NewLibrary(cfg.AI.PromptOverridesPath)
	if err != nil {
		logger.Fatal("Failed to load prompt overrides", zap.Error(err))
	}

	fetcher := menufetch.NewFetcher(
		time.Duration(cfg.Gateway.MenuFetchTimeoutSeconds)*time.Second,
		cfg.Gateway.MenuFetchMaxBytes,
		logger)
	placesClient := places.NewClient(&cfg.Places, logger)

	// Repositories
	profileRepo := repositories.NewProfileRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	// Services
	analysisService := services.NewAnalysisService(llmClient, promptLib, fetcher,
		time.Duration(cfg.AI.RequestTimeoutSeconds)*time.Second, logger)
	profileService := services.NewProfileService(profileRepo, cfg.DefaultMonthlyQuota, logger)
	historyService := services.NewHistoryService(historyRepo, logger)
	accountService := services.NewAccountService(profileRepo, redisClient,
		time.Duration(cfg.Auth.ResetTokenTTLMinutes)*time.Minute,
		cfg.DefaultMonthlyQuota, logger)

	// Auth
	sessions := auth.NewSessionManager(cfg.Auth.SessionKey, cfg.Auth.CookieSecure, cfg.Auth.TokenTTLHours*3600)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, sessions, logger)
	authMiddleware := auth.NewMiddleware(tokens, logger)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RatePerMinute: cfg.Gateway.RatePerMinute,
		Burst:         cfg.Gateway.Burst,
	}, logger)
	defer limiter.Stop()

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, db, redisClient != nil, logger).RegisterRoutes(mux)
	handlers.NewClientConfigHandler(cfg, redisClient != nil, logger).RegisterRoutes(mux)
	handlers.NewGatewayHandler(analysisService, profileService, historyService, placesClient, logger).
		RegisterRoutes(mux, authMiddleware, limiter)
	auditor := audit.NewSecurityAuditor(logger)
	handlers.NewAuthHandler(accountService, tokens, sessions, auditor, logger).RegisterRoutes(mux)
	handlers.NewProfileHandler(profileService, historyService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewHistoryHandler(historyService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewBillingHandler(profileService, logger).RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting menuguard-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-shutdownCtx.Done()
	logger.Info("Shutting down")

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logger.Warn("Graceful shutdown failed", zap.Error(err))
	}
}
