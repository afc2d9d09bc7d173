package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/reminder"
	"github.com/nchiang/moodiary/internal/server/repositories/repomanager"
)

func main() {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	cfg := reminder.LoadConfig()
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN is required")
	}
	if cfg.SendgridAPIKey == "" || cfg.FromEmail == "" {
		log.Fatal("SENDGRID_API_KEY and FROM_EMAIL are required")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	job := reminder.NewJob(cfg, db, repomanager.NewPostgresRepositoryManager(), logger)
	if _, err := job.Run(context.Background()); err != nil {
		log.Fatalf("reminder run error: %v", err)
	}
}
