package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	contestservice "crucible/contexts/contest-core/contest-service"
	contestpg "crucible/contexts/contest-core/contest-service/adapters/postgres"
	contestworkers "crucible/contexts/contest-core/contest-service/application/workers"
	entryservice "crucible/contexts/contest-core/entry-service"
	entrypg "crucible/contexts/contest-core/entry-service/adapters/postgres"
	entryworkers "crucible/contexts/contest-core/entry-service/application/workers"
	judgingengine "crucible/contexts/contest-core/judging-engine"
	judgingpg "crucible/contexts/contest-core/judging-engine/adapters/postgres"
	judgingredis "crucible/contexts/contest-core/judging-engine/adapters/redis"
	judgingports "crucible/contexts/contest-core/judging-engine/ports"
	payoutengine "crucible/contexts/contest-core/payout-engine"
	payoutpg "crucible/contexts/contest-core/payout-engine/adapters/postgres"
	payoutworkers "crucible/contexts/contest-core/payout-engine/application/workers"
	"crucible/internal/platform/config"
	"crucible/internal/platform/db"
	"crucible/internal/platform/httpserver"
	"crucible/internal/platform/messaging"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	contestRelay    contestworkers.OutboxRelay
	entryRelay      entryworkers.OutboxRelay
	payoutRelay     payoutworkers.OutboxRelay
	judgmentConsume judgingengine.Module
	finalizer       payoutworkers.DeadlineFinalizer
	finalizerOn     bool
	pollInterval    time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	contestRepo := contestpg.NewRepository(pg.DB, logger)
	contestModule := contestservice.NewModule(contestservice.Dependencies{
		Contests:       contestRepo,
		History:        contestRepo,
		Idempotency:    contestRepo,
		Outbox:         contestRepo,
		Clock:          contestpg.SystemClock{},
		IDGen:          contestpg.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	entryRepo := entrypg.NewRepository(pg.DB, logger)
	entryModule := entryservice.NewModule(entryservice.Dependencies{
		Work:           entrypg.NewUnitOfWork(pg.DB, logger),
		Entries:        entryRepo,
		Images:         entrypg.NewImageReader(pg.DB, logger),
		Idempotency:    entryRepo,
		Clock:          entrypg.SystemClock{},
		IDGen:          entrypg.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	var standingsCache judgingports.StandingsCache
	if cfg.EnableStandingsCache && strings.TrimSpace(cfg.RedisAddr) != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		standingsCache = judgingredis.NewStandingsCache(client, logger)
	}

	judgingRepo := judgingpg.NewRepository(pg.DB, logger)
	judgingModule := judgingengine.NewModule(judgingengine.Dependencies{
		Contests:  judgingRepo,
		Scores:    judgingRepo,
		Judgments: judgingRepo,
		Dedup:     judgingRepo,
		Cache:     standingsCache,
		Clock:     judgingpg.SystemClock{},
		IDGen:     judgingpg.UUIDGenerator{},
		CacheTTL:  15 * time.Second,
		Logger:    logger,
	})

	payoutRepo := payoutpg.NewRepository(pg.DB, logger)
	payoutModule := payoutengine.NewModule(payoutengine.Dependencies{
		Work:     payoutpg.NewUnitOfWork(pg.DB, logger),
		Contests: payoutRepo,
		Entries:  payoutRepo,
		Finder:   payoutRepo,
		Clock:    payoutpg.SystemClock{},
		IDGen:    payoutpg.UUIDGenerator{},
		Logger:   logger,
	})

	server := httpserver.New(
		contestModule,
		entryModule,
		judgingModule,
		payoutModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	contestRepo := contestpg.NewRepository(pg.DB, logger)
	entryRepo := entrypg.NewRepository(pg.DB, logger)
	payoutRepo := payoutpg.NewRepository(pg.DB, logger)

	judgingRepo := judgingpg.NewRepository(pg.DB, logger)
	judgingModule := judgingengine.NewModule(judgingengine.Dependencies{
		Contests:         judgingRepo,
		Scores:           judgingRepo,
		Judgments:        judgingRepo,
		Dedup:            judgingRepo,
		Subscriber:       kafka,
		Clock:            judgingpg.SystemClock{},
		IDGen:            judgingpg.UUIDGenerator{},
		ConsumerDisabled: !cfg.EnableJudgmentConsumer,
		Logger:           logger,
	})

	payoutModule := payoutengine.NewModule(payoutengine.Dependencies{
		Work:     payoutpg.NewUnitOfWork(pg.DB, logger),
		Contests: payoutRepo,
		Entries:  payoutRepo,
		Finder:   payoutRepo,
		Clock:    payoutpg.SystemClock{},
		IDGen:    payoutpg.UUIDGenerator{},
		Logger:   logger,
	})

	return &WorkerApp{
		postgres: pg,
		contestRelay: contestworkers.OutboxRelay{
			Outbox:    contestRepo,
			Publisher: kafka,
			Clock:     contestpg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		entryRelay: entryworkers.OutboxRelay{
			Outbox:    entryRepo,
			Publisher: kafka,
			Clock:     entrypg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		payoutRelay: payoutworkers.OutboxRelay{
			Outbox:    payoutRepo,
			Publisher: kafka,
			Clock:     payoutpg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		judgmentConsume: judgingModule,
		finalizer:       payoutModule.Finalizer,
		finalizerOn:     cfg.EnableDeadlineFinalizer,
		pollInterval:    2 * time.Second,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.judgmentConsume.Consumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.finalizerOn {
			if err := w.finalizer.RunOnce(ctx); err != nil {
				return err
			}
		}
		if err := w.contestRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.entryRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.payoutRelay.RunOnce(ctx); err != nil {
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
	if w.postgres != nil {
		return w.postgres.Close()
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
