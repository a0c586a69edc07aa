package judgingengine

import (
	"log/slog"
	"time"

	httpadapter "crucible/contexts/contest-core/judging-engine/adapters/http"
	"crucible/contexts/contest-core/judging-engine/adapters/memory"
	"crucible/contexts/contest-core/judging-engine/application/commands"
	"crucible/contexts/contest-core/judging-engine/application/queries"
	"crucible/contexts/contest-core/judging-engine/application/workers"
	"crucible/contexts/contest-core/judging-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Consumer workers.JudgmentConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Contests         ports.ContestReader
	Scores           ports.EntryScoreRepository
	Judgments        ports.JudgmentRepository
	Dedup            ports.EventDedupStore
	Cache            ports.StandingsCache
	Subscriber       ports.EventSubscriber
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	CacheTTL         time.Duration
	ConsumerDisabled bool
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recordUseCase := commands.RecordJudgmentUseCase{
		Contests:  deps.Contests,
		Scores:    deps.Scores,
		Judgments: deps.Judgments,
		Dedup:     deps.Dedup,
		Cache:     deps.Cache,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	standingsUseCase := queries.StandingsUseCase{
		Scores:   deps.Scores,
		Cache:    deps.Cache,
		CacheTTL: deps.CacheTTL,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Record:    recordUseCase,
			Standings: standingsUseCase,
			Logger:    deps.Logger,
		},
		Consumer: workers.JudgmentConsumer{
			Subscriber: deps.Subscriber,
			Record:     recordUseCase,
			Disabled:   deps.ConsumerDisabled,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Contests:  store,
		Scores:    store,
		Judgments: store,
		Dedup:     store,
		Cache:     store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
