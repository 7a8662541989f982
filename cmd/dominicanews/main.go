// Package main is the entry point for the Dominica News API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"dominicanews/internal/auth"
	"dominicanews/internal/cache"
	"dominicanews/internal/config"
	"dominicanews/internal/database"
	"dominicanews/internal/handlers"
	"dominicanews/internal/middleware"
	"dominicanews/internal/models"
	"dominicanews/internal/router"
	"dominicanews/internal/session"
	"dominicanews/internal/storage"
	"dominicanews/internal/store"
)

// cacheSweepInterval is how often expired response cache entries are dropped.
const cacheSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"version", handlers.Version,
	)

	ctx := context.Background()

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Default categories always; the admin account and demo articles only
	// in development.
	seed := database.SeedOptions{}
	if cfg.IsDev() {
		seed = database.SeedOptions{
			AdminEmail:     cfg.AdminEmail,
			AdminPassword:  cfg.AdminPassword,
			SampleArticles: true,
		}
	}
	if err := database.Seed(ctx, db, seed); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (optional). Without it tokens are stateless and
	// logout only discards the token client-side.
	var valkeyClient *redis.Client
	if cfg.UseValkey() {
		valkeyClient, err = cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
	} else {
		slog.Warn("valkey not configured, token revocation disabled")
	}
	sessionStore := session.NewStore(valkeyClient)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	articleStore := store.NewArticleStore(db)
	imageStore := store.NewImageStore(db)

	// Uploaded files go to S3-compatible storage when configured, else disk.
	files, err := newFileStorage(cfg)
	if err != nil {
		slog.Error("failed to initialize file storage", "error", err)
		os.Exit(1)
	}

	// In-memory response cache.
	responseCache := cache.NewTTL(cacheSweepInterval)
	responseCache.Start()
	defer responseCache.Stop()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn)
	dev := cfg.IsDev()

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Auth:       handlers.NewAuth(userStore, tokens, sessionStore, dev),
		Categories: handlers.NewCategories(categoryStore, responseCache, dev),
		Articles:   handlers.NewArticles(articleStore, categoryStore, responseCache, dev),
		Images:     handlers.NewImages(imageStore, files, responseCache, cfg.MaxFileSize, dev),
		System:     handlers.NewSystem(db, valkeyClient, responseCache, cfg.Env),
	}

	// Set up the Chi router with all middleware and routes.
	r := router.New(h, middleware.NewAuthenticator(tokens, userStore, sessionStore, dev), responseCache, router.Options{
		FrontendURL: cfg.FrontendURL,
		RateLimit:   cfg.RateLimitMaxRequests,
		RateWindow:  cfg.RateLimitWindow,
		Dev:         dev,
	})
	defer r.Stop()

	// WriteTimeout leaves room for large image uploads on slow links.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server stopped gracefully")
}

// newFileStorage picks the S3 backend when it is configured and falls back
// to the local upload directory.
func newFileStorage(cfg *config.Config) (storage.Backend, error) {
	if cfg.UseS3() {
		s3, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return nil, err
		}
		if s3 != nil {
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
			return s3, nil
		}
	}

	disk, err := storage.NewDisk(cfg.UploadDir, models.ThumbnailDir)
	if err != nil {
		return nil, err
	}
	slog.Info("disk storage ready", "dir", cfg.UploadDir)
	return disk, nil
}
