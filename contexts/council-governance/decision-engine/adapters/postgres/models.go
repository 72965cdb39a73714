package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	"shora/contexts/council-governance/decision-engine/ports"
)

type decisionModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	PlaceID            string     `gorm:"column:place_id;index"`
	ShoraID            string     `gorm:"column:shora_id;index"`
	Title              string     `gorm:"column:title"`
	TitlePersian       string     `gorm:"column:title_persian"`
	Description        string     `gorm:"column:description"`
	DescriptionPersian string     `gorm:"column:description_persian"`
	Type               string     `gorm:"column:type"`
	Status             string     `gorm:"column:status;index"`
	Priority           string     `gorm:"column:priority"`
	Category           string     `gorm:"column:category"`
	ProposedBy         string     `gorm:"column:proposed_by"`
	ApprovedBy         string     `gorm:"column:approved_by"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	VotingDeadline     *time.Time `gorm:"column:voting_deadline"`
	QuorumRequired     int        `gorm:"column:quorum_required"`
	ImplementationDate *time.Time `gorm:"column:implementation_date"`
	CreatedBy          string     `gorm:"column:created_by"`
	UpdatedBy          string     `gorm:"column:updated_by"`
	CreatedAt          time.Time  `gorm:"column:created_at;index"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (decisionModel) TableName() string {
	return "decisions"
}

type decisionVoteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	DecisionID string    `gorm:"column:decision_id;uniqueIndex:ux_decision_votes_user"`
	UserID     string    `gorm:"column:user_id;uniqueIndex:ux_decision_votes_user"`
	Choice     string    `gorm:"column:choice"`
	Reason     string    `gorm:"column:reason"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (decisionVoteModel) TableName() string {
	return "decision_votes"
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (outboxModel) TableName() string {
	return "decision_outbox"
}

func decisionModelFromEntity(decision entities.Decision) decisionModel {
	row := decisionModel{
		ID:                 strings.TrimSpace(decision.ID),
		PlaceID:            strings.TrimSpace(decision.PlaceID),
		ShoraID:            strings.TrimSpace(decision.ShoraID),
		Title:              decision.Title,
		TitlePersian:       decision.TitlePersian,
		Description:        decision.Description,
		DescriptionPersian: decision.DescriptionPersian,
		Type:               string(decision.Type),
		Status:             string(decision.Status),
		Priority:           string(decision.Priority),
		Category:           string(decision.Category),
		ProposedBy:         strings.TrimSpace(decision.ProposedBy),
		ApprovedBy:         strings.TrimSpace(decision.ApprovedBy),
		ApprovedAt:         normalize(decision.ApprovedAt),
		VotingDeadline:     normalize(decision.VotingDeadline),
		QuorumRequired:     decision.QuorumRequired,
		ImplementationDate: normalize(decision.ImplementationDate),
		CreatedBy:          strings.TrimSpace(decision.CreatedBy),
		UpdatedBy:          strings.TrimSpace(decision.UpdatedBy),
		CreatedAt:          decision.CreatedAt.UTC(),
		UpdatedAt:          decision.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m decisionModel) toEntity(votes []entities.Vote) entities.Decision {
	return entities.Decision{
		ID:                 m.ID,
		PlaceID:            m.PlaceID,
		ShoraID:            m.ShoraID,
		Title:              m.Title,
		TitlePersian:       m.TitlePersian,
		Description:        m.Description,
		DescriptionPersian: m.DescriptionPersian,
		Type:               entities.DecisionType(m.Type),
		Status:             entities.DecisionStatus(m.Status),
		Priority:           entities.Priority(m.Priority),
		Category:           entities.Category(m.Category),
		ProposedBy:         m.ProposedBy,
		ApprovedBy:         m.ApprovedBy,
		ApprovedAt:         normalize(m.ApprovedAt),
		VotingDeadline:     normalize(m.VotingDeadline),
		QuorumRequired:     m.QuorumRequired,
		Votes:              votes,
		ImplementationDate: normalize(m.ImplementationDate),
		CreatedBy:          m.CreatedBy,
		UpdatedBy:          m.UpdatedBy,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

func normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
