// Worker that recognizes queued videos announced over Postgres NOTIFY.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jamesfarrell.me/audd-recognizer/internal/cache"
	"jamesfarrell.me/audd-recognizer/internal/config"
	"jamesfarrell.me/audd-recognizer/internal/fetcher"
	"jamesfarrell.me/audd-recognizer/internal/pipeline"
	"jamesfarrell.me/audd-recognizer/internal/recognition"
	"jamesfarrell.me/audd-recognizer/internal/storage/db"
	"jamesfarrell.me/audd-recognizer/internal/storage/postgres"
	"jamesfarrell.me/audd-recognizer/internal/worker"
)

const cacheTTL = 7 * 24 * time.Hour

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}
	config.NewLogger(cfg.LogLevel)

	var dbID string
	if len(os.Args) > 1 {
		dbID = os.Args[1]
	}
	dbURL, err := config.GetDatabaseURL(dbID)
	if err != nil {
		slog.Error("Database configuration", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewConnection(db.Config{URL: dbURL})
	if err != nil {
		slog.Error("Failed to initialize database", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	repo := postgres.NewRecognitionRepository(database)
	if err := repo.Migrate(ctx); err != nil {
		slog.Error("Failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	var responses worker.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewResponseCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cacheTTL)
		if err != nil {
			slog.Warn("Response cache disabled", "error", err.Error())
		} else {
			defer rc.Close()
			responses = rc
		}
	}

	youtubeClient, err := fetcher.NewYoutubeClient(cfg.Socks5Proxy, cfg.HTTPTimeout)
	if err != nil {
		slog.Error("Invalid proxy configuration", "error", err.Error())
		os.Exit(1)
	}

	p := pipeline.New(
		fetcher.New(youtubeClient),
		recognition.NewClient(cfg.Endpoint, cfg.APIToken, cfg.Return, &http.Client{Timeout: cfg.HTTPTimeout}),
	)

	svc := worker.NewService(repo, responses, p, cfg.WorkDir)
	if err := svc.Listen(ctx, dbURL, postgres.NotifyChannel); err != nil {
		slog.Error("Service error", "error", err.Error())
		os.Exit(1)
	}
}
