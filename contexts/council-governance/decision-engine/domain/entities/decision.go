package entities

import (
	"math"
	"time"
)

type DecisionType string

const (
	DecisionTypeResolution DecisionType = "resolution"
	DecisionTypePolicy     DecisionType = "policy"
	DecisionTypeApproval   DecisionType = "approval"
	DecisionTypeRejection  DecisionType = "rejection"
)

type DecisionStatus string

const (
	DecisionStatusDraft       DecisionStatus = "draft"
	DecisionStatusProposed    DecisionStatus = "proposed"
	DecisionStatusApproved    DecisionStatus = "approved"
	DecisionStatusRejected    DecisionStatus = "rejected"
	DecisionStatusImplemented DecisionStatus = "implemented"
)

// Terminal reports whether no further lifecycle transitions are defined
// from the status.
func (s DecisionStatus) Terminal() bool {
	return s == DecisionStatusRejected || s == DecisionStatusImplemented
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryEducation      Category = "education"
	CategoryHealth         Category = "health"
	CategorySecurity       Category = "security"
	CategoryFinance        Category = "finance"
	CategoryOther          Category = "other"
)

type VoteChoice string

const (
	VoteYes     VoteChoice = "yes"
	VoteNo      VoteChoice = "no"
	VoteAbstain VoteChoice = "abstain"
)

// Vote is a single ballot on a decision. Repositories enforce at most one
// vote per user per decision.
type Vote struct {
	UserID    string
	Choice    VoteChoice
	Timestamp time.Time
	Reason    string
}

// Decision is a council resolution subject to voting and lifecycle
// tracking. Place, Shora and ID are immutable after creation; decisions are
// archived through status, never deleted.
type Decision struct {
	ID                 string
	PlaceID            string
	ShoraID            string
	Title              string
	TitlePersian       string
	Description        string
	DescriptionPersian string
	Type               DecisionType
	Status             DecisionStatus
	Priority           Priority
	Category           Category
	ProposedBy         string
	ApprovedBy         string
	ApprovedAt         *time.Time
	VotingDeadline     *time.Time
	QuorumRequired     int
	Votes              []Vote
	ImplementationDate *time.Time
	CreatedBy          string
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type VoteCounts struct {
	Yes     int
	No      int
	Abstain int
}

func (d Decision) TotalVotes() int {
	return len(d.Votes)
}

func (d Decision) VoteCounts() VoteCounts {
	var counts VoteCounts
	for _, vote := range d.Votes {
		switch vote.Choice {
		case VoteYes:
			counts.Yes++
		case VoteNo:
			counts.No++
		case VoteAbstain:
			counts.Abstain++
		}
	}
	return counts
}

// IsVotingOpen reports whether ballots are accepted at the given instant.
// A decision with no deadline never opens voting.
func (d Decision) IsVotingOpen(now time.Time) bool {
	if d.VotingDeadline == nil {
		return false
	}
	return now.Before(*d.VotingDeadline) && d.Status == DecisionStatusProposed
}

// HasReachedQuorum applies the platform's historical participation formula:
// the required count is derived from the ballots already cast, not from the
// council roster. Resolve-time checks prefer the roster when one is
// registered; this predicate is kept for API compatibility.
func (d Decision) HasReachedQuorum() bool {
	total := len(d.Votes)
	required := QuorumThreshold(total, d.QuorumRequired)
	return total >= required
}

// QuorumThreshold returns the minimum participating ballots for the given
// body size and quorum percentage.
func QuorumThreshold(bodySize int, quorumPercent int) int {
	return int(math.Ceil(float64(bodySize) * float64(quorumPercent) / 100))
}

func (d Decision) HasUserVoted(userID string) bool {
	for _, vote := range d.Votes {
		if vote.UserID == userID {
			return true
		}
	}
	return false
}

// UserVote returns the user's ballot, if any.
func (d Decision) UserVote(userID string) (Vote, bool) {
	for _, vote := range d.Votes {
		if vote.UserID == userID {
			return vote, true
		}
	}
	return Vote{}, false
}

func (d Decision) CanUserVote(userID string, now time.Time) bool {
	return d.IsVotingOpen(now) && !d.HasUserVoted(userID)
}

// Summary is the condensed decision view used by list endpoints and
// broadcast payloads.
type Summary struct {
	ID             string
	Title          string
	TitlePersian   string
	Type           DecisionType
	Status         DecisionStatus
	PlaceID        string
	ShoraID        string
	ProposedBy     string
	TotalVotes     int
	VoteCounts     VoteCounts
	IsVotingOpen   bool
	ReachedQuorum  bool
	VotingDeadline *time.Time
}

func (d Decision) Summarize(now time.Time) Summary {
	return Summary{
		ID:             d.ID,
		Title:          d.Title,
		TitlePersian:   d.TitlePersian,
		Type:           d.Type,
		Status:         d.Status,
		PlaceID:        d.PlaceID,
		ShoraID:        d.ShoraID,
		ProposedBy:     d.ProposedBy,
		TotalVotes:     d.TotalVotes(),
		VoteCounts:     d.VoteCounts(),
		IsVotingOpen:   d.IsVotingOpen(now),
		ReachedQuorum:  d.HasReachedQuorum(),
		VotingDeadline: d.VotingDeadline,
	}
}
