package decisionengine

import (
	"log/slog"

	httpadapter "shora/contexts/council-governance/decision-engine/adapters/http"
	"shora/contexts/council-governance/decision-engine/adapters/memory"
	"shora/contexts/council-governance/decision-engine/application/commands"
	"shora/contexts/council-governance/decision-engine/application/queries"
	"shora/contexts/council-governance/decision-engine/domain/entities"
	"shora/contexts/council-governance/decision-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Decisions ports.DecisionRepository
	Roster    ports.CouncilRoster
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	decisionUseCase := commands.DecisionUseCase{
		Decisions: deps.Decisions,
		Roster:    deps.Roster,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.DecisionQueryUseCase{
		Decisions: deps.Decisions,
		Clock:     deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Decisions: decisionUseCase,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Decision, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Decisions: store,
		Roster:    store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
