package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/nchiang/moodiary/internal/buildinfo"
	"github.com/nchiang/moodiary/internal/client/cli"
	"github.com/nchiang/moodiary/internal/client/config"
	"github.com/nchiang/moodiary/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	sl := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger := logging.NewSlogLogger(sl)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
