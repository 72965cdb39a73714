package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	councildirectory "shora/contexts/council-governance/council-directory"
	directorymemory "shora/contexts/council-governance/council-directory/adapters/memory"
	directorymongo "shora/contexts/council-governance/council-directory/adapters/mongo"
	directorypostgres "shora/contexts/council-governance/council-directory/adapters/postgres"
	decisionengine "shora/contexts/council-governance/decision-engine"
	decisionmemory "shora/contexts/council-governance/decision-engine/adapters/memory"
	decisionmongo "shora/contexts/council-governance/decision-engine/adapters/mongo"
	decisionpostgres "shora/contexts/council-governance/decision-engine/adapters/postgres"
	workerapp "shora/contexts/council-governance/decision-engine/application/workers"
	"shora/contexts/council-governance/decision-engine/ports"
	"shora/internal/platform/config"
	"shora/internal/platform/db"
	"shora/internal/platform/httpserver"
	"shora/internal/platform/messaging"
	"shora/internal/platform/registry"
	"shora/internal/platform/ws"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	hub      *ws.Hub
	relay    *workerapp.OutboxRelay
	registry *registry.Consul
	storage  *storage
	logger   *slog.Logger

	relayInterval time.Duration
}

type WorkerApp struct {
	outboxRelay  workerapp.OutboxRelay
	storage      *storage
	pollInterval time.Duration
	logger       *slog.Logger
}

// storage bundles the persistence-specific ports selected by config.
type storage struct {
	decisions ports.DecisionRepository
	outbox    ports.OutboxRepository
	directory councildirectory.Dependencies
	clock     ports.Clock
	idgen     ports.IDGenerator

	postgres *db.Postgres
	mongo    *db.Mongo
}

func (s *storage) Close() error {
	if s.postgres != nil {
		return s.postgres.Close()
	}
	if s.mongo != nil {
		return s.mongo.Close()
	}
	return nil
}

func buildStorage(cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Persistence {
	case "memory":
		decisionStore := decisionmemory.NewStore(nil)
		directoryStore := directorymemory.NewStore(nil, nil)
		return &storage{
			decisions: decisionStore,
			outbox:    decisionStore,
			directory: councildirectory.Dependencies{
				Directory: directoryStore,
				Clock:     directoryStore,
				IDGen:     directoryStore,
				Logger:    logger,
			},
			clock: decisionStore,
			idgen: decisionStore,
		}, nil

	case "postgres":
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required for postgres persistence")
		}
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		decisionRepo := decisionpostgres.NewRepository(pg.DB, logger)
		directoryRepo := directorypostgres.NewRepository(pg.DB, logger)
		return &storage{
			decisions: decisionRepo,
			outbox:    decisionRepo,
			directory: councildirectory.Dependencies{
				Directory: directoryRepo,
				Clock:     directorypostgres.SystemClock{},
				IDGen:     directorypostgres.UUIDGenerator{},
				Logger:    logger,
			},
			clock:    decisionpostgres.SystemClock{},
			idgen:    decisionpostgres.UUIDGenerator{},
			postgres: pg,
		}, nil

	case "mongo":
		if strings.TrimSpace(cfg.MongoURI) == "" {
			return nil, errors.New("MONGO_URI is required for mongo persistence")
		}
		mg, err := db.ConnectMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		decisionRepo := decisionmongo.NewRepository(mg.Database, logger)
		directoryRepo := directorymongo.NewRepository(mg.Database, logger)
		return &storage{
			decisions: decisionRepo,
			outbox:    decisionRepo,
			directory: councildirectory.Dependencies{
				Directory: directoryRepo,
				Clock:     decisionpostgres.SystemClock{},
				IDGen:     decisionpostgres.UUIDGenerator{},
				Logger:    logger,
			},
			clock: decisionpostgres.SystemClock{},
			idgen: decisionpostgres.UUIDGenerator{},
			mongo: mg,
		}, nil

	default:
		return nil, fmt.Errorf("unknown persistence %q", cfg.Persistence)
	}
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	store, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	directoryModule := councildirectory.NewModule(store.directory)
	decisionModule := decisionengine.NewModule(decisionengine.Dependencies{
		Decisions: store.decisions,
		Roster:    directoryModule.Queries,
		Outbox:    store.outbox,
		Clock:     store.clock,
		IDGen:     store.idgen,
		Logger:    logger,
	})

	app := &APIApp{
		storage:       store,
		logger:        logger,
		relayInterval: 2 * time.Second,
	}

	var hub *ws.Hub
	if cfg.EnableNotifications {
		hub = ws.NewHub(logger)
		bus := messaging.NewBus(logger)
		app.hub = hub
		// The api process drains its own outbox so socket clients get
		// push updates without a separate worker.
		if cfg.RelayEnabled() {
			app.relay = &workerapp.OutboxRelay{
				Outbox:    store.outbox,
				Publisher: bus,
				Clock:     store.clock,
				BatchSize: cfg.RelayBatchSize,
				Logger:    logger,
			}
		}
		if err := hub.AttachBus(context.Background(), bus); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(cfg.ConsulAddr) != "" {
		reg, err := registry.Register(cfg.ConsulAddr, cfg.ServiceName, cfg.HTTPPort, logger)
		if err != nil {
			return nil, err
		}
		app.registry = reg
	}

	app.server = httpserver.New(
		decisionModule,
		directoryModule,
		hub,
		cfg.JWTSecret,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if cfg.Persistence == "memory" {
		return nil, errors.New("worker requires postgres or mongo persistence")
	}

	store, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	return &WorkerApp{
		storage: store,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    store.outbox,
			Publisher: bus,
			Clock:     store.clock,
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	if a.hub != nil {
		go a.hub.Run(ctx)
	}
	if a.relay != nil {
		go a.runRelay(ctx)
	}
	if a.registry != nil {
		go a.registry.KeepAlive(ctx)
	}
	return a.server.Start()
}

func (a *APIApp) runRelay(ctx context.Context) {
	ticker := time.NewTicker(a.relayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.relay.RunOnce(ctx); err != nil {
				a.logger.Warn("outbox relay pass failed",
					"event", "bootstrap_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func (a *APIApp) Close() error {
	if a.registry != nil {
		a.registry.Deregister()
	}
	if a.storage != nil {
		return a.storage.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.storage != nil {
		return w.storage.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
