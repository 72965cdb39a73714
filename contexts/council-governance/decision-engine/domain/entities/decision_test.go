package entities

import (
	"testing"
	"time"
)

func TestQuorumThreshold(t *testing.T) {
	cases := []struct {
		bodySize int
		quorum   int
		want     int
	}{
		{bodySize: 0, quorum: 50, want: 0},
		{bodySize: 1, quorum: 50, want: 1},
		{bodySize: 3, quorum: 50, want: 2},
		{bodySize: 5, quorum: 50, want: 3},
		{bodySize: 5, quorum: 60, want: 3},
		{bodySize: 7, quorum: 50, want: 4},
		{bodySize: 7, quorum: 100, want: 7},
		{bodySize: 10, quorum: 1, want: 1},
	}
	for _, tc := range cases {
		if got := QuorumThreshold(tc.bodySize, tc.quorum); got != tc.want {
			t.Fatalf("QuorumThreshold(%d, %d) = %d, want %d", tc.bodySize, tc.quorum, got, tc.want)
		}
	}
}

func TestIsVotingOpen(t *testing.T) {
	now := time.Date(2099, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)

	decision := Decision{Status: DecisionStatusProposed, VotingDeadline: &deadline}
	if !decision.IsVotingOpen(now) {
		t.Fatalf("expected voting open before the deadline")
	}
	if decision.IsVotingOpen(deadline) {
		t.Fatalf("voting must close exactly at the deadline")
	}

	decision.Status = DecisionStatusDraft
	if decision.IsVotingOpen(now) {
		t.Fatalf("drafts never accept ballots")
	}

	decision.Status = DecisionStatusProposed
	decision.VotingDeadline = nil
	if decision.IsVotingOpen(now) {
		t.Fatalf("a decision with no deadline never opens voting")
	}
}

func TestVoteCountsAndUserVote(t *testing.T) {
	decision := Decision{
		Votes: []Vote{
			{UserID: "u1", Choice: VoteYes},
			{UserID: "u2", Choice: VoteYes},
			{UserID: "u3", Choice: VoteNo},
			{UserID: "u4", Choice: VoteAbstain},
		},
	}
	counts := decision.VoteCounts()
	if counts.Yes != 2 || counts.No != 1 || counts.Abstain != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if decision.TotalVotes() != 4 {
		t.Fatalf("expected 4 votes, got %d", decision.TotalVotes())
	}

	vote, found := decision.UserVote("u3")
	if !found || vote.Choice != VoteNo {
		t.Fatalf("expected u3's no ballot, got found=%v choice=%s", found, vote.Choice)
	}
	if _, found := decision.UserVote("u9"); found {
		t.Fatalf("unexpected ballot for absent user")
	}
	if !decision.HasUserVoted("u1") || decision.HasUserVoted("u9") {
		t.Fatalf("HasUserVoted misreported")
	}
}

func TestHasReachedQuorumIsSelfReferential(t *testing.T) {
	decision := Decision{QuorumRequired: 50}
	if !decision.HasReachedQuorum() {
		t.Fatalf("zero ballots trivially satisfy the historical formula")
	}
	decision.Votes = []Vote{{UserID: "u1", Choice: VoteYes}}
	if !decision.HasReachedQuorum() {
		t.Fatalf("the historical formula derives the requirement from the cast ballots")
	}
}

func TestCanUserVote(t *testing.T) {
	now := time.Date(2099, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)
	decision := Decision{
		Status:         DecisionStatusProposed,
		VotingDeadline: &deadline,
		Votes:          []Vote{{UserID: "u1", Choice: VoteYes}},
	}
	if decision.CanUserVote("u1", now) {
		t.Fatalf("a user with a ballot cannot vote again")
	}
	if !decision.CanUserVote("u2", now) {
		t.Fatalf("expected fresh user to be eligible")
	}
	if decision.CanUserVote("u2", deadline.Add(time.Minute)) {
		t.Fatalf("no ballots after the deadline")
	}
}

func TestStatusTerminal(t *testing.T) {
	for status, want := range map[DecisionStatus]bool{
		DecisionStatusDraft:       false,
		DecisionStatusProposed:    false,
		DecisionStatusApproved:    false,
		DecisionStatusRejected:    true,
		DecisionStatusImplemented: true,
	} {
		if got := status.Terminal(); got != want {
			t.Fatalf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}
