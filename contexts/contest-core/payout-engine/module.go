package payoutengine

import (
	"log/slog"

	httpadapter "crucible/contexts/contest-core/payout-engine/adapters/http"
	"crucible/contexts/contest-core/payout-engine/adapters/memory"
	"crucible/contexts/contest-core/payout-engine/application/commands"
	"crucible/contexts/contest-core/payout-engine/application/queries"
	"crucible/contexts/contest-core/payout-engine/application/workers"
	"crucible/contexts/contest-core/payout-engine/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Finalizer workers.DeadlineFinalizer
	Store     *memory.Store
}

type Dependencies struct {
	Work     ports.UnitOfWork
	Contests ports.ContestStore
	Entries  ports.EntryStore
	Finder   ports.ContestFinder
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	finalizeUseCase := commands.FinalizeContestUseCase{
		Work:   deps.Work,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	cancelUseCase := commands.CancelContestUseCase{
		Work:   deps.Work,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Contests: deps.Contests,
		Entries:  deps.Entries,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Finalize: finalizeUseCase,
			Cancel:   cancelUseCase,
			Results:  resultsUseCase,
			Logger:   deps.Logger,
		},
		Finalizer: workers.DeadlineFinalizer{
			Contests: deps.Finder,
			Finalize: finalizeUseCase,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Work:     store,
		Contests: store,
		Entries:  store,
		Finder:   store,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
