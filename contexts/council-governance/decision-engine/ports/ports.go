package ports

import (
	"context"
	"encoding/json"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
)

// DecisionFilter narrows list queries. Zero-value fields are ignored.
type DecisionFilter struct {
	PlaceID string
	ShoraID string
	Status  entities.DecisionStatus
}

type DecisionRepository interface {
	SaveDecision(ctx context.Context, decision entities.Decision) error
	GetDecision(ctx context.Context, decisionID string) (entities.Decision, error)
	// AddVote appends the ballot iff the user has not voted on the decision.
	// Implementations must make the check-and-insert atomic and return
	// domain ErrAlreadyVoted on a duplicate.
	AddVote(ctx context.Context, decisionID string, vote entities.Vote) error
	// ListDecisions returns matches ordered newest-created-first.
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]entities.Decision, error)
	// ListActiveDecisions returns draft and proposed decisions.
	ListActiveDecisions(ctx context.Context) ([]entities.Decision, error)
}

// RosterEntry is a council seat as seen by the decision engine.
type RosterEntry struct {
	UserID      string
	Role        string
	Permissions []string
	IsActive    bool
}

func (e RosterEntry) HasPermission(permission string) bool {
	if !e.IsActive {
		return false
	}
	for _, granted := range e.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// CouncilRoster exposes the directory's membership data. VotingMemberCount
// of zero means no roster is registered for the shora.
type CouncilRoster interface {
	RosterEntry(ctx context.Context, shoraID string, userID string) (RosterEntry, bool, error)
	VotingMemberCount(ctx context.Context, shoraID string) (int, error)
}

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	PlaceID       string          `json:"place_id"`
	EntityID      string          `json:"entity_id"`
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID    string
	EventType   string
	Payload     []byte
	Status      string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	OutboxWriter
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
