package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hogis-registration/config"
	"hogis-registration/internal/api/handler"
	"hogis-registration/internal/api/router"
	"hogis-registration/internal/repository"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/blobstore"
	"hogis-registration/pkg/database"
	"hogis-registration/pkg/imaging"
	"hogis-registration/pkg/jwt"
	applogger "hogis-registration/pkg/logger"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/redis"
	"hogis-registration/pkg/sheets"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("HOGIS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting registration server",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis is optional: without it rate limiting and token revocation are off
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without rate limiting and token blacklist", zap.Error(err))
		rdb = nil
	}

	ctx := context.Background()

	// 5. photo blob store (optional)
	var blob blobstore.Store
	if cfg.Photo.BlobBucket != "" {
		gcs, err := blobstore.NewGCS(ctx, cfg.Photo.BlobBucket, cfg.Photo.BlobCredentials, logger)
		if err != nil {
			logger.Fatal("blob store init failed", zap.Error(err))
		}
		blob = gcs
	}

	// 6. notifications; a misconfigured provider disables email, not the form
	notifier, err := notify.New(&cfg.Mail, logger)
	if err != nil {
		logger.Warn("email notifications disabled", zap.Error(err))
		notifier = nil
	}

	// 7. accepted roster sync (optional)
	var roster sheets.Roster = sheets.Nop{}
	if cfg.Sheets.Enabled {
		client, err := sheets.New(ctx, &cfg.Sheets)
		if err != nil {
			logger.Fatal("roster sheet init failed", zap.Error(err))
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Warn("roster header check failed", zap.Error(err))
		}
		roster = client
	}

	// 8. wiring: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	deps := service.Deps{
		Encoder:  imaging.NewEncoder(photoOptions(&cfg.Photo)),
		Blob:     blob,
		Notifier: notifier,
		Roster:   roster,
		JWT:      jwtMgr,
	}
	if rdb != nil {
		deps.Blacklist = rdb
	}

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(cfg, svc, repo)

	// warm the admin view; an empty store is fine
	if _, err := svc.Triage.Refresh(ctx); err != nil {
		logger.Warn("initial registration view refresh failed", zap.Error(err))
	}

	// 9. router
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 10. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if blob != nil {
		blob.Close()
	}

	logger.Info("server stopped")
}

func photoOptions(cfg *config.PhotoConfig) imaging.Options {
	return imaging.Options{
		MaxUploadBytes:  cfg.MaxUploadBytes,
		MaxDimension:    cfg.MaxDimension,
		Quality:         cfg.Quality,
		FallbackQuality: cfg.FallbackQuality,
		SoftLimitBytes:  cfg.SoftLimitBytes,
		HardLimitBytes:  cfg.HardLimitBytes,
	}
}
