package entryservice

import (
	"log/slog"
	"time"

	httpadapter "crucible/contexts/contest-core/entry-service/adapters/http"
	"crucible/contexts/contest-core/entry-service/adapters/memory"
	"crucible/contexts/contest-core/entry-service/application/commands"
	"crucible/contexts/contest-core/entry-service/application/queries"
	"crucible/contexts/contest-core/entry-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Work           ports.UnitOfWork
	Entries        ports.EntryRepository
	Images         ports.ImageMetadataProvider
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submitUseCase := commands.SubmitEntryUseCase{
		Work:           deps.Work,
		Entries:        deps.Entries,
		Images:         deps.Images,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	entryQueries := queries.EntryUseCase{
		Entries: deps.Entries,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Submit:  submitUseCase,
			Entries: entryQueries,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Work:           store,
		Entries:        store,
		Images:         store,
		Idempotency:    store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
