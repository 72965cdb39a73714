package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	domainerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	"shora/contexts/council-governance/decision-engine/ports"
)

func seedDecision(id string) entities.Decision {
	now := time.Date(2099, 3, 1, 9, 0, 0, 0, time.UTC)
	deadline := now.Add(24 * time.Hour)
	return entities.Decision{
		ID:             id,
		PlaceID:        "place-1",
		ShoraID:        "shora-1",
		Title:          "Test decision",
		TitlePersian:   "تصمیم آزمایشی",
		Status:         entities.DecisionStatusProposed,
		QuorumRequired: 50,
		VotingDeadline: &deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestAddVoteRejectsDuplicateUser(t *testing.T) {
	store := NewStore([]entities.Decision{seedDecision("d-1")})

	if err := store.AddVote(context.Background(), "d-1", entities.Vote{UserID: "u1", Choice: entities.VoteYes}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	err := store.AddVote(context.Background(), "d-1", entities.Vote{UserID: "u1", Choice: entities.VoteNo})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}

	decision, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}
	if decision.TotalVotes() != 1 || decision.Votes[0].Choice != entities.VoteYes {
		t.Fatalf("duplicate ballot must not alter the recorded vote: %+v", decision.Votes)
	}
}

func TestAddVoteConcurrentSingleWinner(t *testing.T) {
	store := NewStore([]entities.Decision{seedDecision("d-1")})

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.AddVote(context.Background(), "d-1", entities.Vote{
				UserID: "racer",
				Choice: entities.VoteYes,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainerrors.ErrAlreadyVoted):
		default:
			t.Fatalf("unexpected error from concurrent vote: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winning ballot, got %d", succeeded)
	}

	decision, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}
	if decision.TotalVotes() != 1 {
		t.Fatalf("expected a single recorded ballot, got %d", decision.TotalVotes())
	}
}

func TestSaveDecisionPreservesBallots(t *testing.T) {
	store := NewStore([]entities.Decision{seedDecision("d-1")})

	// Take a snapshot before any ballots land, the way a resolve flow does.
	snapshot, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}

	if err := store.AddVote(context.Background(), "d-1", entities.Vote{UserID: "u1", Choice: entities.VoteYes}); err != nil {
		t.Fatalf("add vote failed: %v", err)
	}

	snapshot.Status = entities.DecisionStatusApproved
	if err := store.SaveDecision(context.Background(), snapshot); err != nil {
		t.Fatalf("save decision failed: %v", err)
	}

	saved, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}
	if saved.Status != entities.DecisionStatusApproved {
		t.Fatalf("expected status update to stick, got %s", saved.Status)
	}
	if saved.TotalVotes() != 1 {
		t.Fatalf("stale save dropped ballots: %+v", saved.Votes)
	}
}

func TestSaveDecisionNormalizesIDBeforeLookup(t *testing.T) {
	store := NewStore([]entities.Decision{seedDecision("d-1")})

	snapshot, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}

	if err := store.AddVote(context.Background(), "d-1", entities.Vote{UserID: "u1", Choice: entities.VoteYes}); err != nil {
		t.Fatalf("add vote failed: %v", err)
	}

	// A padded ID must hit the same row as the trimmed one so the
	// ballot-preserving merge still sees the existing votes.
	snapshot.ID = " d-1 "
	snapshot.Status = entities.DecisionStatusApproved
	if err := store.SaveDecision(context.Background(), snapshot); err != nil {
		t.Fatalf("save decision failed: %v", err)
	}

	saved, err := store.GetDecision(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}
	if saved.Status != entities.DecisionStatusApproved {
		t.Fatalf("expected status update to stick, got %s", saved.Status)
	}
	if saved.TotalVotes() != 1 {
		t.Fatalf("padded-ID save dropped ballots: %+v", saved.Votes)
	}
}

func TestListDecisionsFilters(t *testing.T) {
	first := seedDecision("d-1")
	second := seedDecision("d-2")
	second.PlaceID = "place-2"
	second.Status = entities.DecisionStatusApproved
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	store := NewStore([]entities.Decision{first, second})

	all, err := store.ListDecisions(context.Background(), ports.DecisionFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "d-2" {
		t.Fatalf("expected newest-first listing, got %+v", all)
	}

	byPlace, err := store.ListDecisions(context.Background(), ports.DecisionFilter{PlaceID: "place-2"})
	if err != nil {
		t.Fatalf("list by place failed: %v", err)
	}
	if len(byPlace) != 1 || byPlace[0].ID != "d-2" {
		t.Fatalf("place filter mismatch: %+v", byPlace)
	}

	active, err := store.ListActiveDecisions(context.Background())
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "d-1" {
		t.Fatalf("active listing mismatch: %+v", active)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore(nil)
	envelope := ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "decision.created",
		PlaceID:   "place-1",
		EntityID:  "d-1",
	}
	if err := store.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "decision.created" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}

	publishedAt := time.Date(2099, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.MarkOutboxPublished(context.Background(), pending[0].OutboxID, publishedAt); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("expected drained outbox, %d rows pending", store.PendingOutboxCount())
	}
}
