// Package control assembles the indexer from configuration and manages
// its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ara-foundation/act-indexer/internal/core/config"
	"github.com/ara-foundation/act-indexer/internal/core/watermark"
	"github.com/ara-foundation/act-indexer/internal/indexing/health"
	"github.com/ara-foundation/act-indexer/internal/indexing/indexer"
	"github.com/ara-foundation/act-indexer/internal/indexing/pending"
	"github.com/ara-foundation/act-indexer/internal/indexing/processor"
	"github.com/ara-foundation/act-indexer/internal/indexing/source"
	"github.com/ara-foundation/act-indexer/internal/infra/chain"
	"github.com/ara-foundation/act-indexer/internal/infra/chain/evm"
	"github.com/ara-foundation/act-indexer/internal/infra/forum"
	redisclient "github.com/ara-foundation/act-indexer/internal/infra/redis"
	"github.com/ara-foundation/act-indexer/internal/infra/rpc"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/memory"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/postgres"
)

// Service is the assembled application.
type Service struct {
	cfg *config.AppConfig

	scheduler    *indexer.Scheduler
	healthServer *health.Server
	source       *source.Client

	db          *postgres.DB
	redisClient *redisclient.Client

	log *slog.Logger
}

// repositories groups the projection store access used by the processors.
type repositories struct {
	projects    storage.ProjectRepository
	collaterals storage.CollateralRepository
	tasks       storage.TaskRepository
	plans       storage.PlanRepository
	acts        storage.ActRepository
	wallets     storage.LinkedWalletRepository
	watermarks  storage.WatermarkRepository
	processed   storage.ProcessedEventRepository
}

// NewService wires the full indexer from configuration.
func NewService(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	// 1. Projection store. Postgres when a URL is configured, otherwise
	// in-memory for local runs.
	var (
		repos     repositories
		db        *postgres.DB
		dbChecker health.DatabaseChecker
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}

		repos = repositories{
			projects:    postgres.NewProjectRepo(db),
			collaterals: postgres.NewCollateralRepo(db),
			tasks:       postgres.NewTaskRepo(db),
			plans:       postgres.NewPlanRepo(db),
			acts:        postgres.NewActRepo(db),
			wallets:     postgres.NewLinkedWalletRepo(db),
			watermarks:  postgres.NewWatermarkRepo(db),
			processed:   postgres.NewProcessedEventRepo(db),
		}
		dbChecker = db
		log.Info("using PostgreSQL projection store")
	} else {
		store := memory.NewStorage()
		repos = repositories{
			projects:    memory.NewProjectRepo(store),
			collaterals: memory.NewCollateralRepo(store),
			tasks:       memory.NewTaskRepo(store),
			plans:       memory.NewPlanRepo(store),
			acts:        memory.NewActRepo(store),
			wallets:     memory.NewLinkedWalletRepo(store),
			watermarks:  memory.NewWatermarkRepo(store),
			processed:   memory.NewProcessedEventRepo(store),
		}
		dbChecker = store
		log.Info("using in-memory projection store")
	}

	// 2. Redis token symbol cache. Optional; chain lookups fall through
	// to RPC without it.
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, symbol cache disabled", "error", err)
		}
	}

	// 3. Chain clients, one per tracked network.
	clients := make(map[int64]chain.Client, len(cfg.Networks))
	for _, n := range cfg.Networks {
		provider := rpc.NewHTTPProvider(
			fmt.Sprintf("evm-%d", n.NetworkID),
			n.RPCURL,
			n.RPCTimeout,
		)
		client, err := evm.NewClient(provider, n.ActAddress, n.NativeSymbol)
		if err != nil {
			return nil, fmt.Errorf("init chain client for network %d: %w", n.NetworkID, err)
		}
		if redisClient != nil {
			clients[n.NetworkID] = chain.NewCachedClient(client, n.NetworkID, redisClient, log)
		} else {
			clients[n.NetworkID] = client
		}
		log.Info("tracking network", "network_id", n.NetworkID, "native_symbol", n.NativeSymbol)
	}
	registry := chain.NewRegistry(clients)

	// 4. Forum client for development-progress topics.
	var forumClient forum.Client = forum.NoopClient{}
	if cfg.Forum.Endpoint != "" && cfg.Forum.APIKey != "" {
		forumClient = forum.NewHTTPClient(cfg.Forum)
	} else {
		log.Info("forum not configured, skipping discussion creation")
	}

	// 5. Processors and scheduler.
	stash := pending.NewCache()
	marks := watermark.NewStore(repos.watermarks)
	handlers := processor.NewDispatchTable(processor.Deps{
		Projects:      repos.projects,
		Collaterals:   repos.collaterals,
		Tasks:         repos.tasks,
		Plans:         repos.plans,
		Acts:          repos.acts,
		Wallets:       repos.wallets,
		Processed:     repos.processed,
		Pending:       stash,
		Chains:        registry,
		Forum:         forumClient,
		ForumActTagID: cfg.Forum.ActTagID,
		Logger:        log,
	})

	feed := source.NewClient(cfg.Indexer.Source)
	scheduler := indexer.NewScheduler(indexer.Config{
		Interval:   cfg.Indexer.Interval,
		Source:     feed,
		Watermarks: marks,
		Handlers:   handlers,
		Chains:     registry,
		Pending:    stash,
		Logger:     log,
	})

	// 6. Health and stats server.
	monitor := health.NewMonitor(dbChecker, scheduler, marks, stash, cfg.Indexer.Enabled)
	healthServer := health.NewServer(monitor, repos.acts, cfg.Server.Port)

	return &Service{
		cfg:          cfg,
		scheduler:    scheduler,
		healthServer: healthServer,
		source:       feed,
		db:           db,
		redisClient:  redisClient,
		log:          log,
	}, nil
}

// Start launches the HTTP server and, when enabled, the polling loop.
// A disabled indexer never starts; the process only serves health and
// stats.
func (s *Service) Start(ctx context.Context) error {
	go func() {
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("health server failed", "error", err)
		}
	}()

	if !s.cfg.Indexer.Enabled {
		s.log.Info("indexing disabled, serving health and stats only")
		return nil
	}

	s.log.Info("starting indexer",
		"endpoint", s.cfg.Indexer.Source.Endpoint,
		"interval", s.cfg.Indexer.Interval,
	)
	go func() {
		if err := s.scheduler.Start(ctx); err != nil {
			s.log.Error("scheduler failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down in reverse order of startup.
func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("stopping indexer")

	s.scheduler.Stop()
	s.source.Close()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("failed to close redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("failed to close database", "error", err)
		}
	}

	return s.healthServer.Stop(ctx)
}
