package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateDecisionRequest struct {
	PlaceID            string     `json:"place_id"`
	ShoraID            string     `json:"shora_id"`
	Title              string     `json:"title"`
	TitlePersian       string     `json:"title_persian"`
	Description        string     `json:"description,omitempty"`
	DescriptionPersian string     `json:"description_persian,omitempty"`
	Type               string     `json:"type,omitempty"`
	Priority           string     `json:"priority,omitempty"`
	Category           string     `json:"category,omitempty"`
	VotingDeadline     *time.Time `json:"voting_deadline,omitempty"`
	QuorumRequired     int        `json:"quorum_required,omitempty"`
}

type UpdateDecisionRequest struct {
	Title              string `json:"title,omitempty"`
	TitlePersian       string `json:"title_persian,omitempty"`
	Description        string `json:"description,omitempty"`
	DescriptionPersian string `json:"description_persian,omitempty"`
}

type ProposeDecisionRequest struct {
	VotingDeadline *time.Time `json:"voting_deadline,omitempty"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
	Reason string `json:"reason,omitempty"`
}

type ResolveDecisionRequest struct {
	Outcome string `json:"outcome"`
}

type ImplementDecisionRequest struct {
	ImplementationDate *time.Time `json:"implementation_date,omitempty"`
}

type VoteView struct {
	UserID    string    `json:"user_id"`
	Choice    string    `json:"choice"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

type VoteCountsView struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Abstain int `json:"abstain"`
}

type DecisionResponse struct {
	ID                 string         `json:"id"`
	PlaceID            string         `json:"place_id"`
	ShoraID            string         `json:"shora_id"`
	Title              string         `json:"title"`
	TitlePersian       string         `json:"title_persian"`
	Description        string         `json:"description,omitempty"`
	DescriptionPersian string         `json:"description_persian,omitempty"`
	Type               string         `json:"type"`
	Status             string         `json:"status"`
	Priority           string         `json:"priority"`
	Category           string         `json:"category"`
	ProposedBy         string         `json:"proposed_by,omitempty"`
	ApprovedBy         string         `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time     `json:"approved_at,omitempty"`
	VotingDeadline     *time.Time     `json:"voting_deadline,omitempty"`
	QuorumRequired     int            `json:"quorum_required"`
	Votes              []VoteView     `json:"votes"`
	TotalVotes         int            `json:"total_votes"`
	VoteCounts         VoteCountsView `json:"vote_counts"`
	IsVotingOpen       bool           `json:"is_voting_open"`
	HasReachedQuorum   bool           `json:"has_reached_quorum"`
	ImplementationDate *time.Time     `json:"implementation_date,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type DecisionSummaryView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	TitlePersian     string         `json:"title_persian"`
	Type             string         `json:"type"`
	Status           string         `json:"status"`
	PlaceID          string         `json:"place_id"`
	ShoraID          string         `json:"shora_id"`
	ProposedBy       string         `json:"proposed_by,omitempty"`
	TotalVotes       int            `json:"total_votes"`
	VoteCounts       VoteCountsView `json:"vote_counts"`
	IsVotingOpen     bool           `json:"is_voting_open"`
	HasReachedQuorum bool           `json:"has_reached_quorum"`
	VotingDeadline   *time.Time     `json:"voting_deadline,omitempty"`
}

type DecisionListResponse struct {
	Items []DecisionSummaryView `json:"items"`
}

type CastVoteResponse struct {
	DecisionID string         `json:"decision_id"`
	TotalVotes int            `json:"total_votes"`
	VoteCounts VoteCountsView `json:"vote_counts"`
}

type UserVoteResponse struct {
	DecisionID string    `json:"decision_id"`
	HasVoted   bool      `json:"has_voted"`
	CanVote    bool      `json:"can_vote"`
	Vote       *VoteView `json:"vote,omitempty"`
}
