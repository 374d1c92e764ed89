package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/andrejsm/readsync/internal/cli"
	"github.com/andrejsm/readsync/internal/config"
	"github.com/andrejsm/readsync/internal/logging"
)

// set via -ldflags at build time
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {
	fmt.Printf("readsync %s (built %s)\n", buildVersion, buildDate)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
