package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "shora/contexts/council-governance/decision-engine/application"
	"shora/contexts/council-governance/decision-engine/domain/entities"
	domainerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	"shora/contexts/council-governance/decision-engine/ports"
)

const (
	PermissionWrite   = "write"
	PermissionVote    = "vote"
	PermissionApprove = "approve"
	PermissionManage  = "manage"

	roleSuperAdmin = "super-admin"
)

// Actor is the authenticated identity acting on a decision. Roles come from
// the identity provider; seat permissions are resolved against the council
// roster per call.
type Actor struct {
	UserID string
	Roles  []string
}

func (a Actor) isSuperAdmin() bool {
	for _, role := range a.Roles {
		if role == roleSuperAdmin {
			return true
		}
	}
	return false
}

// CreateDecisionCommand opens a new draft decision in the owning place.
type CreateDecisionCommand struct {
	Actor              Actor
	PlaceID            string
	ShoraID            string
	Title              string
	TitlePersian       string
	Description        string
	DescriptionPersian string
	Type               entities.DecisionType
	Priority           entities.Priority
	Category           entities.Category
	VotingDeadline     *time.Time
	QuorumRequired     int
}

// UpdateDraftCommand edits display text while the decision is still a
// draft. Empty fields are left unchanged.
type UpdateDraftCommand struct {
	Actor              Actor
	DecisionID         string
	Title              string
	TitlePersian       string
	Description        string
	DescriptionPersian string
}

type ProposeCommand struct {
	Actor      Actor
	DecisionID string
	// VotingDeadline optionally opens the voting window at proposal time.
	VotingDeadline *time.Time
}

type CastVoteCommand struct {
	Actor      Actor
	DecisionID string
	Choice     entities.VoteChoice
	Reason     string
}

// CastVoteResult carries the post-vote tally back to the transport layer.
type CastVoteResult struct {
	Decision   entities.Decision
	TotalVotes int
	Counts     entities.VoteCounts
}

type ResolveOutcome string

const (
	OutcomeApprove ResolveOutcome = "approve"
	OutcomeReject  ResolveOutcome = "reject"
)

type ResolveCommand struct {
	Actor      Actor
	DecisionID string
	Outcome    ResolveOutcome
}

type ImplementCommand struct {
	Actor      Actor
	DecisionID string
	// ImplementationDate defaults to the current time when nil.
	ImplementationDate *time.Time
}

// DecisionUseCase orchestrates the decision lifecycle: draft creation,
// proposal, voting, resolution and implementation. Guards never partially
// apply; every mutation is a single repository save, and vote uniqueness is
// delegated to the repository's atomic AddVote.
type DecisionUseCase struct {
	Decisions ports.DecisionRepository
	Roster    ports.CouncilRoster
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc DecisionUseCase) CreateDecision(ctx context.Context, cmd CreateDecisionCommand) (entities.Decision, error) {
	logger := application.ResolveLogger(uc.Logger)
	placeID := strings.TrimSpace(cmd.PlaceID)
	shoraID := strings.TrimSpace(cmd.ShoraID)
	title := strings.TrimSpace(cmd.Title)
	titlePersian := strings.TrimSpace(cmd.TitlePersian)

	if placeID == "" || shoraID == "" || title == "" || titlePersian == "" {
		logger.Warn("decision create validation failed",
			"event", "decision_create_validation_failed",
			"module", "council-governance/decision-engine",
			"layer", "application",
			"place_id", placeID,
			"shora_id", shoraID,
		)
		return entities.Decision{}, domainerrors.ErrInvalidDecisionInput
	}

	quorum := cmd.QuorumRequired
	if quorum == 0 {
		quorum = 50
	}
	if quorum < 1 || quorum > 100 {
		return entities.Decision{}, domainerrors.ErrQuorumOutOfRange
	}
	if err := uc.authorize(ctx, shoraID, cmd.Actor, PermissionWrite); err != nil {
		return entities.Decision{}, err
	}

	now := uc.now()
	decisionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Decision{}, err
	}

	decision := entities.Decision{
		ID:                 decisionID,
		PlaceID:            placeID,
		ShoraID:            shoraID,
		Title:              title,
		TitlePersian:       titlePersian,
		Description:        strings.TrimSpace(cmd.Description),
		DescriptionPersian: strings.TrimSpace(cmd.DescriptionPersian),
		Type:               resolveType(cmd.Type),
		Status:             entities.DecisionStatusDraft,
		Priority:           resolvePriority(cmd.Priority),
		Category:           resolveCategory(cmd.Category),
		VotingDeadline:     normalizeTime(cmd.VotingDeadline),
		QuorumRequired:     quorum,
		CreatedBy:          cmd.Actor.UserID,
		UpdatedBy:          cmd.Actor.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.Decisions.SaveDecision(ctx, decision); err != nil {
		return entities.Decision{}, err
	}
	if err := uc.appendDecisionEvent(ctx, "decision.created", decision, now, nil); err != nil {
		return entities.Decision{}, err
	}

	logger.Info("decision created",
		"event", "decision_created",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", decision.ID,
		"place_id", decision.PlaceID,
		"shora_id", decision.ShoraID,
		"created_by", decision.CreatedBy,
	)
	return decision, nil
}

func (uc DecisionUseCase) UpdateDraft(ctx context.Context, cmd UpdateDraftCommand) (entities.Decision, error) {
	logger := application.ResolveLogger(uc.Logger)
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(cmd.DecisionID))
	if err != nil {
		return entities.Decision{}, err
	}
	if decision.Status != entities.DecisionStatusDraft {
		return entities.Decision{}, domainerrors.NewTransitionError(string(decision.Status), string(entities.DecisionStatusDraft))
	}
	if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionWrite); err != nil {
		return entities.Decision{}, err
	}

	if title := strings.TrimSpace(cmd.Title); title != "" {
		decision.Title = title
	}
	if title := strings.TrimSpace(cmd.TitlePersian); title != "" {
		decision.TitlePersian = title
	}
	if desc := strings.TrimSpace(cmd.Description); desc != "" {
		decision.Description = desc
	}
	if desc := strings.TrimSpace(cmd.DescriptionPersian); desc != "" {
		decision.DescriptionPersian = desc
	}

	now := uc.now()
	decision.UpdatedBy = cmd.Actor.UserID
	decision.UpdatedAt = now
	if err := uc.Decisions.SaveDecision(ctx, decision); err != nil {
		return entities.Decision{}, err
	}
	if err := uc.appendDecisionEvent(ctx, "decision.updated", decision, now, nil); err != nil {
		return entities.Decision{}, err
	}

	logger.Info("decision draft updated",
		"event", "decision_draft_updated",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", decision.ID,
		"updated_by", cmd.Actor.UserID,
	)
	return decision, nil
}

// Propose moves a draft to proposed and records the proposer. Repeat calls
// fail: a proposed decision is no longer in draft.
func (uc DecisionUseCase) Propose(ctx context.Context, cmd ProposeCommand) (entities.Decision, error) {
	logger := application.ResolveLogger(uc.Logger)
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(cmd.DecisionID))
	if err != nil {
		return entities.Decision{}, err
	}
	if decision.Status != entities.DecisionStatusDraft {
		return entities.Decision{}, domainerrors.NewTransitionError(string(decision.Status), string(entities.DecisionStatusProposed))
	}
	if strings.TrimSpace(decision.Title) == "" || strings.TrimSpace(decision.ShoraID) == "" {
		return entities.Decision{}, domainerrors.ErrInvalidDecisionInput
	}
	if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionWrite); err != nil {
		return entities.Decision{}, err
	}

	now := uc.now()
	decision.Status = entities.DecisionStatusProposed
	decision.ProposedBy = cmd.Actor.UserID
	if cmd.VotingDeadline != nil {
		decision.VotingDeadline = normalizeTime(cmd.VotingDeadline)
	}
	decision.UpdatedBy = cmd.Actor.UserID
	decision.UpdatedAt = now
	if err := uc.Decisions.SaveDecision(ctx, decision); err != nil {
		return entities.Decision{}, err
	}
	if err := uc.appendDecisionEvent(ctx, "decision.proposed", decision, now, nil); err != nil {
		return entities.Decision{}, err
	}

	logger.Info("decision proposed",
		"event", "decision_proposed",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", decision.ID,
		"proposed_by", decision.ProposedBy,
	)
	return decision, nil
}

// CastVote records a ballot while voting is open. The one-vote-per-user
// invariant is enforced by the repository's conditional insert, so two
// racing calls cannot both append.
func (uc DecisionUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Choice != entities.VoteYes && cmd.Choice != entities.VoteNo && cmd.Choice != entities.VoteAbstain {
		return CastVoteResult{}, domainerrors.ErrInvalidDecisionInput
	}

	decisionID := strings.TrimSpace(cmd.DecisionID)
	decision, err := uc.Decisions.GetDecision(ctx, decisionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionVote); err != nil {
		return CastVoteResult{}, err
	}

	now := uc.now()
	if !decision.IsVotingOpen(now) {
		logger.Warn("vote rejected outside voting window",
			"event", "decision_vote_closed",
			"module", "council-governance/decision-engine",
			"layer", "application",
			"decision_id", decision.ID,
			"status", string(decision.Status),
			"user_id", cmd.Actor.UserID,
		)
		return CastVoteResult{}, domainerrors.ErrVotingClosed
	}

	vote := entities.Vote{
		UserID:    cmd.Actor.UserID,
		Choice:    cmd.Choice,
		Timestamp: now,
		Reason:    strings.TrimSpace(cmd.Reason),
	}
	if err := uc.Decisions.AddVote(ctx, decisionID, vote); err != nil {
		return CastVoteResult{}, err
	}

	updated, err := uc.Decisions.GetDecision(ctx, decisionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	counts := updated.VoteCounts()
	if err := uc.appendDecisionEvent(ctx, "decision.vote_cast", updated, now, map[string]any{
		"voter_id":    cmd.Actor.UserID,
		"choice":      string(cmd.Choice),
		"total_votes": updated.TotalVotes(),
		"yes":         counts.Yes,
		"no":          counts.No,
		"abstain":     counts.Abstain,
	}); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "decision_vote_cast",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", updated.ID,
		"user_id", cmd.Actor.UserID,
		"choice", string(cmd.Choice),
		"total_votes", updated.TotalVotes(),
	)
	return CastVoteResult{Decision: updated, TotalVotes: updated.TotalVotes(), Counts: counts}, nil
}

// Resolve closes a proposed decision as approved or rejected. Before the
// voting deadline only an actor with manage permission may resolve. A
// lapsed deadline never resolves by itself; this call is always explicit.
func (uc DecisionUseCase) Resolve(ctx context.Context, cmd ResolveCommand) (entities.Decision, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Outcome != OutcomeApprove && cmd.Outcome != OutcomeReject {
		return entities.Decision{}, domainerrors.ErrInvalidDecisionInput
	}

	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(cmd.DecisionID))
	if err != nil {
		return entities.Decision{}, err
	}
	target := entities.DecisionStatusApproved
	if cmd.Outcome == OutcomeReject {
		target = entities.DecisionStatusRejected
	}
	if decision.Status != entities.DecisionStatusProposed {
		return entities.Decision{}, domainerrors.NewTransitionError(string(decision.Status), string(target))
	}
	if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionApprove); err != nil {
		return entities.Decision{}, err
	}

	now := uc.now()
	if decision.VotingDeadline != nil && now.Before(*decision.VotingDeadline) {
		if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionManage); err != nil {
			// Early resolution without the admin override is a guard failure.
			return entities.Decision{}, domainerrors.NewTransitionError(string(decision.Status), string(target))
		}
	}

	if cmd.Outcome == OutcomeApprove {
		reached, err := uc.quorumReached(ctx, decision)
		if err != nil {
			return entities.Decision{}, err
		}
		if !reached {
			return entities.Decision{}, domainerrors.ErrQuorumNotReached
		}
		decision.Status = entities.DecisionStatusApproved
		decision.ApprovedBy = cmd.Actor.UserID
		approvedAt := now
		decision.ApprovedAt = &approvedAt
	} else {
		decision.Status = entities.DecisionStatusRejected
	}

	decision.UpdatedBy = cmd.Actor.UserID
	decision.UpdatedAt = now
	if err := uc.Decisions.SaveDecision(ctx, decision); err != nil {
		return entities.Decision{}, err
	}
	eventType := "decision.approved"
	if cmd.Outcome == OutcomeReject {
		eventType = "decision.rejected"
	}
	if err := uc.appendDecisionEvent(ctx, eventType, decision, now, nil); err != nil {
		return entities.Decision{}, err
	}

	logger.Info("decision resolved",
		"event", "decision_resolved",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", decision.ID,
		"outcome", string(cmd.Outcome),
		"resolved_by", cmd.Actor.UserID,
	)
	return decision, nil
}

func (uc DecisionUseCase) Implement(ctx context.Context, cmd ImplementCommand) (entities.Decision, error) {
	logger := application.ResolveLogger(uc.Logger)
	decision, err := uc.Decisions.GetDecision(ctx, strings.TrimSpace(cmd.DecisionID))
	if err != nil {
		return entities.Decision{}, err
	}
	if decision.Status != entities.DecisionStatusApproved {
		return entities.Decision{}, domainerrors.NewTransitionError(string(decision.Status), string(entities.DecisionStatusImplemented))
	}
	if err := uc.authorize(ctx, decision.ShoraID, cmd.Actor, PermissionManage); err != nil {
		return entities.Decision{}, err
	}

	now := uc.now()
	implementedAt := now
	if cmd.ImplementationDate != nil {
		implementedAt = cmd.ImplementationDate.UTC()
	}
	decision.Status = entities.DecisionStatusImplemented
	decision.ImplementationDate = &implementedAt
	decision.UpdatedBy = cmd.Actor.UserID
	decision.UpdatedAt = now
	if err := uc.Decisions.SaveDecision(ctx, decision); err != nil {
		return entities.Decision{}, err
	}
	if err := uc.appendDecisionEvent(ctx, "decision.implemented", decision, now, nil); err != nil {
		return entities.Decision{}, err
	}

	logger.Info("decision implemented",
		"event", "decision_implemented",
		"module", "council-governance/decision-engine",
		"layer", "application",
		"decision_id", decision.ID,
		"implemented_by", cmd.Actor.UserID,
	)
	return decision, nil
}

// quorumReached prefers the council roster when the shora has registered
// voting members; otherwise it falls back to the decision's historical
// self-referential formula.
func (uc DecisionUseCase) quorumReached(ctx context.Context, decision entities.Decision) (bool, error) {
	if uc.Roster != nil {
		members, err := uc.Roster.VotingMemberCount(ctx, decision.ShoraID)
		if err != nil {
			return false, err
		}
		if members > 0 {
			required := entities.QuorumThreshold(members, decision.QuorumRequired)
			return decision.TotalVotes() >= required, nil
		}
	}
	return decision.HasReachedQuorum(), nil
}

func (uc DecisionUseCase) authorize(ctx context.Context, shoraID string, actor Actor, permission string) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return domainerrors.ErrPermissionDenied
	}
	if actor.isSuperAdmin() {
		return nil
	}
	if uc.Roster == nil {
		return domainerrors.ErrRosterUnavailable
	}
	entry, found, err := uc.Roster.RosterEntry(ctx, strings.TrimSpace(shoraID), actor.UserID)
	if err != nil {
		return err
	}
	if !found || !entry.HasPermission(permission) {
		return domainerrors.ErrPermissionDenied
	}
	return nil
}

func (uc DecisionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func resolveType(t entities.DecisionType) entities.DecisionType {
	switch t {
	case entities.DecisionTypeResolution, entities.DecisionTypePolicy,
		entities.DecisionTypeApproval, entities.DecisionTypeRejection:
		return t
	default:
		return entities.DecisionTypeResolution
	}
}

func resolvePriority(p entities.Priority) entities.Priority {
	switch p {
	case entities.PriorityLow, entities.PriorityMedium, entities.PriorityHigh, entities.PriorityUrgent:
		return p
	default:
		return entities.PriorityMedium
	}
}

func resolveCategory(c entities.Category) entities.Category {
	switch c {
	case entities.CategoryInfrastructure, entities.CategoryEducation, entities.CategoryHealth,
		entities.CategorySecurity, entities.CategoryFinance, entities.CategoryOther:
		return c
	default:
		return entities.CategoryOther
	}
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
