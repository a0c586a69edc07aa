package contestservice

import (
	"log/slog"
	"time"

	httpadapter "crucible/contexts/contest-core/contest-service/adapters/http"
	"crucible/contexts/contest-core/contest-service/adapters/memory"
	"crucible/contexts/contest-core/contest-service/application/commands"
	"crucible/contexts/contest-core/contest-service/application/queries"
	"crucible/contexts/contest-core/contest-service/domain/entities"
	"crucible/contexts/contest-core/contest-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Contests       ports.ContestRepository
	History        ports.HistoryRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createUseCase := commands.CreateContestUseCase{
		Contests:       deps.Contests,
		History:        deps.History,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	activateUseCase := commands.ActivateContestUseCase{
		Contests: deps.Contests,
		History:  deps.History,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	contestQueries := queries.ContestUseCase{
		Contests: deps.Contests,
		History:  deps.History,
	}
	return Module{
		Handler: httpadapter.Handler{
			Create:   createUseCase,
			Activate: activateUseCase,
			Contests: contestQueries,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Contest, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Contests:       store,
		History:        store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
