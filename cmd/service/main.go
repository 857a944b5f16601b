// HTTP API that queues recognition jobs and serves their results.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"jamesfarrell.me/audd-recognizer/internal/api"
	"jamesfarrell.me/audd-recognizer/internal/config"
	"jamesfarrell.me/audd-recognizer/internal/storage/db"
	"jamesfarrell.me/audd-recognizer/internal/storage/postgres"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}
	config.NewLogger(cfg.LogLevel)

	if cfg.ServiceAPIKey == "" {
		slog.Error("SERVICE_API_KEY environment variable must be set")
		os.Exit(1)
	}

	var dbID string
	if len(os.Args) > 1 {
		dbID = os.Args[1]
	}
	dbURL, err := config.GetDatabaseURL(dbID)
	if err != nil {
		slog.Error("Database configuration", "error", err.Error())
		os.Exit(1)
	}

	database, err := db.NewConnection(db.Config{URL: dbURL})
	if err != nil {
		slog.Error("Failed to initialize database", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	repo := postgres.NewRecognitionRepository(database)
	if err := repo.Migrate(context.Background()); err != nil {
		slog.Error("Failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	router := api.NewRouter(repo, cfg.ServiceAPIKey)

	slog.Info("Starting HTTP server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		slog.Error("HTTP server error", "error", err.Error())
		os.Exit(1)
	}
}
