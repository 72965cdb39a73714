package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	domainerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	"shora/contexts/council-governance/decision-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveDecision(ctx context.Context, decision entities.Decision) error {
	row := decisionModelFromEntity(decision)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":               row.Title,
			"title_persian":       row.TitlePersian,
			"description":         row.Description,
			"description_persian": row.DescriptionPersian,
			"type":                row.Type,
			"status":              row.Status,
			"priority":            row.Priority,
			"category":            row.Category,
			"proposed_by":         row.ProposedBy,
			"approved_by":         row.ApprovedBy,
			"approved_at":         row.ApprovedAt,
			"voting_deadline":     row.VotingDeadline,
			"quorum_required":     row.QuorumRequired,
			"implementation_date": row.ImplementationDate,
			"updated_by":          row.UpdatedBy,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("decision_repo_save_failed", create.Error,
			"decision_id", strings.TrimSpace(decision.ID),
		)
	}
	return nil
}

func (r *Repository) GetDecision(ctx context.Context, decisionID string) (entities.Decision, error) {
	var row decisionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(decisionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Decision{}, domainerrors.ErrDecisionNotFound
		}
		return entities.Decision{}, r.logError("decision_repo_get_failed", err,
			"decision_id", strings.TrimSpace(decisionID),
		)
	}

	votes, err := r.listVotes(ctx, row.ID)
	if err != nil {
		return entities.Decision{}, err
	}
	return row.toEntity(votes), nil
}

// AddVote relies on the unique (decision_id, user_id) index: the insert and
// the duplicate check are a single statement, so concurrent casts cannot
// both succeed.
func (r *Repository) AddVote(ctx context.Context, decisionID string, vote entities.Vote) error {
	decisionID = strings.TrimSpace(decisionID)
	var exists int64
	if err := r.db.WithContext(ctx).Model(&decisionModel{}).
		Where("id = ?", decisionID).
		Count(&exists).Error; err != nil {
		return r.logError("decision_repo_vote_lookup_failed", err, "decision_id", decisionID)
	}
	if exists == 0 {
		return domainerrors.ErrDecisionNotFound
	}

	row := decisionVoteModel{
		ID:         uuid.NewString(),
		DecisionID: decisionID,
		UserID:     strings.TrimSpace(vote.UserID),
		Choice:     string(vote.Choice),
		Reason:     strings.TrimSpace(vote.Reason),
		CastAt:     vote.Timestamp.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "decision_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("decision_repo_add_vote_failed", create.Error,
			"decision_id", decisionID,
			"user_id", strings.TrimSpace(vote.UserID),
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (r *Repository) ListDecisions(ctx context.Context, filter ports.DecisionFilter) ([]entities.Decision, error) {
	tx := r.db.WithContext(ctx).Model(&decisionModel{})
	if placeID := strings.TrimSpace(filter.PlaceID); placeID != "" {
		tx = tx.Where("place_id = ?", placeID)
	}
	if shoraID := strings.TrimSpace(filter.ShoraID); shoraID != "" {
		tx = tx.Where("shora_id = ?", shoraID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []decisionModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_failed", err,
			"place_id", strings.TrimSpace(filter.PlaceID),
			"shora_id", strings.TrimSpace(filter.ShoraID),
		)
	}
	return r.toDecisionEntities(ctx, rows)
}

func (r *Repository) ListActiveDecisions(ctx context.Context) ([]entities.Decision, error) {
	var rows []decisionModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.DecisionStatusDraft),
			string(entities.DecisionStatusProposed),
		}).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("decision_repo_list_active_failed", err)
	}
	return r.toDecisionEntities(ctx, rows)
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("decision_repo_outbox_append_failed", err,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("decision_repo_outbox_list_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:    row.ID,
			EventType:   row.EventType,
			Payload:     row.Payload,
			Status:      row.Status,
			PublishedAt: row.PublishedAt,
			CreatedAt:   row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if update.Error != nil {
		return r.logError("decision_repo_outbox_mark_failed", update.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) listVotes(ctx context.Context, decisionID string) ([]entities.Vote, error) {
	var rows []decisionVoteModel
	err := r.db.WithContext(ctx).
		Where("decision_id = ?", decisionID).
		Order("cast_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("decision_repo_list_votes_failed", err, "decision_id", decisionID)
	}
	votes := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, entities.Vote{
			UserID:    row.UserID,
			Choice:    entities.VoteChoice(row.Choice),
			Timestamp: row.CastAt.UTC(),
			Reason:    row.Reason,
		})
	}
	return votes, nil
}

func (r *Repository) toDecisionEntities(ctx context.Context, rows []decisionModel) ([]entities.Decision, error) {
	items := make([]entities.Decision, 0, len(rows))
	for _, row := range rows {
		votes, err := r.listVotes(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, row.toEntity(votes))
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "council-governance/decision-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("decision repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies the IDGenerator port.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
