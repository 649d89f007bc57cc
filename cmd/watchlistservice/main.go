package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"watchlist-service/internal/api"
	"watchlist-service/internal/config"
	"watchlist-service/internal/store"
	"watchlist-service/pkg/auth"
)

func connectToDB(dbURL string, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL database.")
	return db, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := connectToDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		logger.Info("Closing PostgreSQL database connection...")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close PostgreSQL connection", slog.String("error", err.Error()))
		}
	}()

	if err := store.Migrate(context.Background(), db); err != nil {
		logger.Error("Failed to apply schema migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	platformStorage, err := store.NewPostgresPlatformStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL platform store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	movieStorage, err := store.NewPostgresMovieStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL movie store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	reviewStorage, err := store.NewPostgresReviewStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL review store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	userStorage, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tokenStorage, err := store.NewPostgresTokenStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize PostgreSQL token store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("PostgreSQL stores initialized.")

	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("Failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := api.NewHandler(api.Stores{
		Platforms: platformStorage,
		Movies:    movieStorage,
		Reviews:   reviewStorage,
		Users:     userStorage,
		Tokens:    tokenStorage,
	}, logger, api.NewValidator(), tokenManager)

	router := api.NewRouter(handler, api.RouterConfig{
		ReviewRateLimit:  cfg.ReviewRateLimit,
		ReviewRateWindow: cfg.ReviewRateWindow,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", slog.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server ListenAndServe() failed", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
}
