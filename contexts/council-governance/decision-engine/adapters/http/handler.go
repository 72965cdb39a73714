package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"shora/contexts/council-governance/decision-engine/application/commands"
	"shora/contexts/council-governance/decision-engine/application/queries"
	"shora/contexts/council-governance/decision-engine/domain/entities"
	"shora/contexts/council-governance/decision-engine/ports"
	httptransport "shora/contexts/council-governance/decision-engine/transport/http"
)

type Handler struct {
	Decisions commands.DecisionUseCase
	Queries   queries.DecisionQueryUseCase
	Logger    *slog.Logger
}

func (h Handler) now() time.Time {
	if h.Queries.Clock != nil {
		return h.Queries.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (h Handler) CreateDecisionHandler(
	ctx context.Context,
	actor commands.Actor,
	req httptransport.CreateDecisionRequest,
) (httptransport.DecisionResponse, error) {
	decision, err := h.Decisions.CreateDecision(ctx, commands.CreateDecisionCommand{
		Actor:              actor,
		PlaceID:            req.PlaceID,
		ShoraID:            req.ShoraID,
		Title:              req.Title,
		TitlePersian:       req.TitlePersian,
		Description:        req.Description,
		DescriptionPersian: req.DescriptionPersian,
		Type:               entities.DecisionType(req.Type),
		Priority:           entities.Priority(req.Priority),
		Category:           entities.Category(req.Category),
		VotingDeadline:     req.VotingDeadline,
		QuorumRequired:     req.QuorumRequired,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) UpdateDecisionHandler(
	ctx context.Context,
	actor commands.Actor,
	decisionID string,
	req httptransport.UpdateDecisionRequest,
) (httptransport.DecisionResponse, error) {
	decision, err := h.Decisions.UpdateDraft(ctx, commands.UpdateDraftCommand{
		Actor:              actor,
		DecisionID:         decisionID,
		Title:              req.Title,
		TitlePersian:       req.TitlePersian,
		Description:        req.Description,
		DescriptionPersian: req.DescriptionPersian,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) ProposeDecisionHandler(
	ctx context.Context,
	actor commands.Actor,
	decisionID string,
	req httptransport.ProposeDecisionRequest,
) (httptransport.DecisionResponse, error) {
	decision, err := h.Decisions.Propose(ctx, commands.ProposeCommand{
		Actor:          actor,
		DecisionID:     decisionID,
		VotingDeadline: req.VotingDeadline,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	actor commands.Actor,
	decisionID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Decisions.CastVote(ctx, commands.CastVoteCommand{
		Actor:      actor,
		DecisionID: decisionID,
		Choice:     entities.VoteChoice(req.Choice),
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		DecisionID: result.Decision.ID,
		TotalVotes: result.TotalVotes,
		VoteCounts: mapCounts(result.Counts),
	}, nil
}

func (h Handler) ResolveDecisionHandler(
	ctx context.Context,
	actor commands.Actor,
	decisionID string,
	req httptransport.ResolveDecisionRequest,
) (httptransport.DecisionResponse, error) {
	decision, err := h.Decisions.Resolve(ctx, commands.ResolveCommand{
		Actor:      actor,
		DecisionID: decisionID,
		Outcome:    commands.ResolveOutcome(req.Outcome),
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) ImplementDecisionHandler(
	ctx context.Context,
	actor commands.Actor,
	decisionID string,
	req httptransport.ImplementDecisionRequest,
) (httptransport.DecisionResponse, error) {
	decision, err := h.Decisions.Implement(ctx, commands.ImplementCommand{
		Actor:              actor,
		DecisionID:         decisionID,
		ImplementationDate: req.ImplementationDate,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) GetDecisionHandler(ctx context.Context, decisionID string) (httptransport.DecisionResponse, error) {
	decision, err := h.Queries.GetDecision(ctx, decisionID)
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(decision, h.now()), nil
}

func (h Handler) ListDecisionsHandler(
	ctx context.Context,
	placeID string,
	shoraID string,
	status string,
) (httptransport.DecisionListResponse, error) {
	summaries, err := h.Queries.ListDecisions(ctx, ports.DecisionFilter{
		PlaceID: placeID,
		ShoraID: shoraID,
		Status:  entities.DecisionStatus(status),
	})
	if err != nil {
		return httptransport.DecisionListResponse{}, err
	}
	return httptransport.DecisionListResponse{Items: mapSummaries(summaries)}, nil
}

func (h Handler) ListActiveDecisionsHandler(ctx context.Context) (httptransport.DecisionListResponse, error) {
	summaries, err := h.Queries.ListActive(ctx)
	if err != nil {
		return httptransport.DecisionListResponse{}, err
	}
	return httptransport.DecisionListResponse{Items: mapSummaries(summaries)}, nil
}

func (h Handler) UserVoteHandler(ctx context.Context, decisionID string, userID string) (httptransport.UserVoteResponse, error) {
	vote, found, err := h.Queries.GetUserVote(ctx, decisionID, userID)
	if err != nil {
		return httptransport.UserVoteResponse{}, err
	}
	canVote, err := h.Queries.CanUserVote(ctx, decisionID, userID)
	if err != nil {
		return httptransport.UserVoteResponse{}, err
	}
	resp := httptransport.UserVoteResponse{
		DecisionID: decisionID,
		HasVoted:   found,
		CanVote:    canVote,
	}
	if found {
		view := mapVote(vote)
		resp.Vote = &view
	}
	return resp, nil
}

func mapDecision(decision entities.Decision, now time.Time) httptransport.DecisionResponse {
	votes := make([]httptransport.VoteView, 0, len(decision.Votes))
	for _, vote := range decision.Votes {
		votes = append(votes, mapVote(vote))
	}
	return httptransport.DecisionResponse{
		ID:                 decision.ID,
		PlaceID:            decision.PlaceID,
		ShoraID:            decision.ShoraID,
		Title:              decision.Title,
		TitlePersian:       decision.TitlePersian,
		Description:        decision.Description,
		DescriptionPersian: decision.DescriptionPersian,
		Type:               string(decision.Type),
		Status:             string(decision.Status),
		Priority:           string(decision.Priority),
		Category:           string(decision.Category),
		ProposedBy:         decision.ProposedBy,
		ApprovedBy:         decision.ApprovedBy,
		ApprovedAt:         decision.ApprovedAt,
		VotingDeadline:     decision.VotingDeadline,
		QuorumRequired:     decision.QuorumRequired,
		Votes:              votes,
		TotalVotes:         decision.TotalVotes(),
		VoteCounts:         mapCounts(decision.VoteCounts()),
		IsVotingOpen:       decision.IsVotingOpen(now),
		HasReachedQuorum:   decision.HasReachedQuorum(),
		ImplementationDate: decision.ImplementationDate,
		CreatedAt:          decision.CreatedAt,
		UpdatedAt:          decision.UpdatedAt,
	}
}

func mapSummaries(summaries []entities.Summary) []httptransport.DecisionSummaryView {
	items := make([]httptransport.DecisionSummaryView, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, httptransport.DecisionSummaryView{
			ID:               summary.ID,
			Title:            summary.Title,
			TitlePersian:     summary.TitlePersian,
			Type:             string(summary.Type),
			Status:           string(summary.Status),
			PlaceID:          summary.PlaceID,
			ShoraID:          summary.ShoraID,
			ProposedBy:       summary.ProposedBy,
			TotalVotes:       summary.TotalVotes,
			VoteCounts:       mapCounts(summary.VoteCounts),
			IsVotingOpen:     summary.IsVotingOpen,
			HasReachedQuorum: summary.ReachedQuorum,
			VotingDeadline:   summary.VotingDeadline,
		})
	}
	return items
}

func mapVote(vote entities.Vote) httptransport.VoteView {
	return httptransport.VoteView{
		UserID:    vote.UserID,
		Choice:    string(vote.Choice),
		Timestamp: vote.Timestamp,
		Reason:    vote.Reason,
	}
}

func mapCounts(counts entities.VoteCounts) httptransport.VoteCountsView {
	return httptransport.VoteCountsView{
		Yes:     counts.Yes,
		No:      counts.No,
		Abstain: counts.Abstain,
	}
}
