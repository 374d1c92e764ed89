// Package cli implements the interactive readsync client: a small REPL
// over the link service, the credential manager and the sync engine.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/andrejsm/readsync/internal/auth"
	"github.com/andrejsm/readsync/internal/config"
	"github.com/andrejsm/readsync/internal/localdb"
	"github.com/andrejsm/readsync/internal/logging"
	"github.com/andrejsm/readsync/internal/postgrest"
	"github.com/andrejsm/readsync/internal/repositories/links"
	"github.com/andrejsm/readsync/internal/repositories/queue"
	"github.com/andrejsm/readsync/internal/services"
)

type App struct {
	config *config.Config
	client *postgrest.Client
	creds  *auth.Manager
	links  *services.LinkService
	engine *services.SyncEngine
	log    logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := localdb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	client := postgrest.New(cfg.ServiceURL, cfg.AnonKey, cfg.RequestTimeout, log)
	creds := auth.NewManager(client, db, log)

	queueRepo := queue.NewSQLiteRepository(db)
	cacheRepo := links.NewSQLiteRepository(db)

	engine := services.NewSyncEngine(client, creds, queueRepo, cacheRepo, log)
	pager := services.NewPager(client, cfg.PageSize)
	linkService := services.NewLinkService(engine, pager, creds, queueRepo, cacheRepo,
		log, cfg.DrainTimeout, cfg.DeviceName)

	return &App{
		config: cfg,
		client: client,
		creds:  creds,
		links:  linkService,
		engine: engine,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run starts the background maintenance tasks and the REPL. Returns when
// the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.creds.StartPrefetch(ctx, a.config.PrefetchInterval)
	go a.startDrainLoop(ctx, a.config.PrefetchInterval)

	a.repl(ctx)
}

// startDrainLoop periodically pushes whatever other processes (share
// handlers) have queued since the last pass.
func (a *App) startDrainLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.engine.Drain(ctx); err != nil {
				a.log.Debug(ctx, "background drain failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
