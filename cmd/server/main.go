package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vurse/backend/internal/api"
	"github.com/vurse/backend/internal/cache"
	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/engagement"
	"github.com/vurse/backend/internal/middleware"
	"github.com/vurse/backend/internal/notify"
	"github.com/vurse/backend/internal/points"
	"github.com/vurse/backend/pkg/config"
	"github.com/vurse/backend/pkg/logging"
	"github.com/vurse/backend/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Vurse API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect database and migrate schema
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Shared Redis feed cache (optional)
	feedCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer feedCache.Close()

	// Wire the engagement engine
	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	registry := notify.NewRegistry()
	notifier := notify.NewNotifier(db.NewNotificationRepository(repo), registry)
	ledger := points.NewLedger(db.NewPointsRepository(repo), users)

	engine := engagement.NewEngine(engagement.Options{
		Users:            users,
		Posts:            db.NewPostRepository(repo),
		Reactions:        db.NewReactionRepository(repo),
		Comments:         db.NewCommentRepository(repo),
		Follows:          db.NewFollowRepository(repo),
		Views:            db.NewViewRepository(repo),
		Ledger:           ledger,
		Notifier:         notifier,
		Cache:            cache.NewTagCache(cfg.Cache.Enabled, cfg.Cache.MaxEntries),
		Feed:             feedCache,
		MaxCommentLength: cfg.Engagement.MaxCommentLength,
		TrendingTTL:      time.Duration(cfg.Cache.FeedTTLSeconds) * time.Second,
	})

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Tracing())
	router.Use(middleware.RateLimit(&cfg.Engagement))

	apiRouter := api.NewRouter(engine, notifier, registry, database)
	apiRouter.SetupRoutes(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
