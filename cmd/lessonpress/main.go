// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the LessonPress server.
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

	"lessonpress/internal/auth"
	"lessonpress/internal/cache"
	"lessonpress/internal/config"
	"lessonpress/internal/database"
	"lessonpress/internal/handlers"
	"lessonpress/internal/middleware"
	"lessonpress/internal/router"
	"lessonpress/internal/session"
	"lessonpress/internal/storage"
	"lessonpress/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.IsDev() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(context.Background(), db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey holds sessions and cached public responses.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	guard := auth.NewGuard(auth.Config{
		AdminLogin:        cfg.AdminLogin,
		AdminPassword:     cfg.AdminPassword,
		AdminPasswordHash: cfg.AdminPasswordHash,
		CSRFSecretSeed:    cfg.CSRFSecretSeed,
		SessionMaxAge:     cfg.SessionMaxAge,
	}, session.NewStore(valkeyClient, cfg.SessionMaxAge))

	// Object storage is optional; uploads answer 503 without it.
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	deps := handlers.Deps{
		Guard:    guard,
		Cookies:  session.Cookies{Secure: cfg.SecureCookies, MaxAge: cfg.SessionMaxAge},
		Sections: store.NewSectionStore(db),
		Lessons:  store.NewLessonStore(db),
		Images:   storageClient,
		Cache:    cache.NewPageCache(valkeyClient, cfg.PageCacheTTL),
		Orphans:  store.NewOrphanLogStore(db),
	}

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.TrustProxy)
	defer loginLimiter.Stop()

	r := router.New(guard, router.Handlers{
		API:    handlers.NewAPI(deps),
		Pages:  handlers.NewPages(deps),
		Public: handlers.NewPublic(deps),
	}, loginLimiter, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
