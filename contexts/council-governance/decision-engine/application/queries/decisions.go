package queries

import (
	"context"
	"strings"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	"shora/contexts/council-governance/decision-engine/ports"
)

// DecisionQueryUseCase serves read-only views over decisions. All derived
// values are computed from the immutable snapshot the repository returns,
// so reads need no locking.
type DecisionQueryUseCase struct {
	Decisions ports.DecisionRepository
	Clock     ports.Clock
}

func (uc DecisionQueryUseCase) GetDecision(ctx context.Context, decisionID string) (entities.Decision, error) {
	return uc.Decisions.GetDecision(ctx, strings.TrimSpace(decisionID))
}

func (uc DecisionQueryUseCase) ListDecisions(ctx context.Context, filter ports.DecisionFilter) ([]entities.Summary, error) {
	decisions, err := uc.Decisions.ListDecisions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.summarize(decisions), nil
}

// ListActive returns draft and proposed decisions, newest first.
func (uc DecisionQueryUseCase) ListActive(ctx context.Context) ([]entities.Summary, error) {
	decisions, err := uc.Decisions.ListActiveDecisions(ctx)
	if err != nil {
		return nil, err
	}
	return uc.summarize(decisions), nil
}

func (uc DecisionQueryUseCase) VoteCounts(ctx context.Context, decisionID string) (entities.VoteCounts, int, error) {
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(decisionID))
	if err != nil {
		return entities.VoteCounts{}, 0, err
	}
	return decision.VoteCounts(), decision.TotalVotes(), nil
}

func (uc DecisionQueryUseCase) HasUserVoted(ctx context.Context, decisionID string, userID string) (bool, error) {
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(decisionID))
	if err != nil {
		return false, err
	}
	return decision.HasUserVoted(strings.TrimSpace(userID)), nil
}

func (uc DecisionQueryUseCase) GetUserVote(ctx context.Context, decisionID string, userID string) (entities.Vote, bool, error) {
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(decisionID))
	if err != nil {
		return entities.Vote{}, false, err
	}
	vote, found := decision.UserVote(strings.TrimSpace(userID))
	return vote, found, nil
}

func (uc DecisionQueryUseCase) CanUserVote(ctx context.Context, decisionID string, userID string) (bool, error) {
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(decisionID))
	if err != nil {
		return false, err
	}
	return decision.CanUserVote(strings.TrimSpace(userID), uc.now()), nil
}

func (uc DecisionQueryUseCase) summarize(decisions []entities.Decision) []entities.Summary {
	now := uc.now()
	items := make([]entities.Summary, 0, len(decisions))
	for _, decision := range decisions {
		items = append(items, decision.Summarize(now))
	}
	return items
}

func (uc DecisionQueryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
