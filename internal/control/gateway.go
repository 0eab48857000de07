package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/ledgerbridge/asset-gateway/internal/api"
	"github.com/ledgerbridge/asset-gateway/internal/core/config"
	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage/memory"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage/postgres"
	redisstore "github.com/ledgerbridge/asset-gateway/internal/infra/storage/redis"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/listener"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/retry"
	"github.com/ledgerbridge/asset-gateway/internal/ledger/submit"
)

// Gateway is the main application struct that manages the service lifecycle:
// the Fabric connection, the pending-transaction store, the REST server and
// the background retry and commit-listener workers.
type Gateway struct {
	cfg      config.AppConfig
	client   *fabric.Client
	store    storage.PendingStore
	redis    *redisstore.Store
	db       *postgres.DB
	server   *api.Server
	worker   *retry.Worker
	listener *listener.Listener
	log      *slog.Logger
}

// NewGateway creates a new Gateway instance with all dependencies initialized.
func NewGateway(cfg config.AppConfig) (*Gateway, error) {

	// 1. Initialize Storage
	var store storage.PendingStore
	var redisClient *redisstore.Store
	var db *postgres.DB

	switch {
	case cfg.Redis.URL != "":
		var err error
		redisClient, err = redisstore.NewStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store = redisClient
		slog.Info("Using Redis storage")

	case cfg.Database.URL != "":
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations. Goose needs the raw *sql.DB that sqlx wraps.
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		store = postgres.NewPendingRepo(db)
		slog.Info("Using PostgreSQL storage")

	default:
		store = memory.NewPendingStore()
		slog.Info("Using Memory storage")
	}

	// 2. Connect to the Fabric gateway peer
	client, err := fabric.NewClient(cfg.Fabric)
	if err != nil {
		return nil, fmt.Errorf("failed to connect gateway peer: %w", err)
	}

	// 3. Assemble the submission pipeline
	submitter := submit.NewSubmitter(client, store)

	return &Gateway{
		cfg:      cfg,
		client:   client,
		store:    store,
		redis:    redisClient,
		db:       db,
		server:   api.NewServer(cfg.Server.Port, cfg.Server.APIKey, submitter, client),
		worker:   retry.NewWorker(client, store, cfg.Submit.RetryInterval(), cfg.Submit.MaxRetries),
		listener: listener.NewListener(client, client, store),
		log:      slog.Default(),
	}, nil
}

// Start starts the gateway and all its components.
func (g *Gateway) Start(ctx context.Context) error {
	// Start HTTP Server
	go func() {
		if err := g.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("HTTP server failed", "error", err)
		}
	}()

	// Start DB Metrics Collector
	if g.db != nil {
		g.db.StartMetricsCollector(ctx)
	}

	// Start Retry Worker
	g.log.Info("Starting retry worker",
		"interval", g.cfg.Submit.RetryInterval(),
		"maxRetries", g.cfg.Submit.MaxRetries)
	go g.worker.Start(ctx)

	// Start Block Commit Listener
	g.log.Info("Starting block commit listener", "channel", g.cfg.Fabric.Channel)
	go g.listener.Start(ctx)

	return nil
}

// Stop stops the gateway.
func (g *Gateway) Stop(ctx context.Context) error {
	g.log.Info("Stopping Gateway...")

	// Stop accepting requests first so in-flight submissions can finish.
	if err := g.server.Stop(ctx); err != nil {
		g.log.Warn("Failed to stop HTTP server", "error", err)
	}

	// Close Fabric connection
	if err := g.client.Close(); err != nil {
		g.log.Warn("Failed to close gateway connection", "error", err)
	}

	// Close Storage
	if g.redis != nil {
		if err := g.redis.Close(); err != nil {
			g.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil {
			g.log.Warn("Failed to close database", "error", err)
		}
	}

	return nil
}
