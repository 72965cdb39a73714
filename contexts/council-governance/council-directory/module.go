package councildirectory

import (
	"log/slog"

	httpadapter "shora/contexts/council-governance/council-directory/adapters/http"
	"shora/contexts/council-governance/council-directory/adapters/memory"
	"shora/contexts/council-governance/council-directory/application/commands"
	"shora/contexts/council-governance/council-directory/application/queries"
	"shora/contexts/council-governance/council-directory/domain/entities"
	"shora/contexts/council-governance/council-directory/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Queries queries.DirectoryQueryUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Directory ports.DirectoryRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	directoryUseCase := commands.DirectoryUseCase{
		Directory: deps.Directory,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.DirectoryQueryUseCase{
		Directory: deps.Directory,
	}
	return Module{
		Handler: httpadapter.Handler{
			Directory: directoryUseCase,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
		Queries: queryUseCase,
	}
}

func NewInMemoryModule(places []entities.Place, shoras []entities.Shora, logger *slog.Logger) Module {
	store := memory.NewStore(places, shoras)
	module := NewModule(Dependencies{
		Directory: store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
