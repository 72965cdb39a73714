package mongoadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shora/contexts/council-governance/decision-engine/domain/entities"
	domainerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	"shora/contexts/council-governance/decision-engine/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists decisions as single documents with an embedded votes
// array, matching the platform's original document layout. Vote uniqueness
// rides on Mongo's single-document atomicity.
type Repository struct {
	decisions *mongo.Collection
	outbox    *mongo.Collection
	logger    *slog.Logger
}

func NewRepository(db *mongo.Database, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		decisions: db.Collection("decisions"),
		outbox:    db.Collection("decision_outbox"),
		logger:    logger,
	}
}

func (r *Repository) SaveDecision(ctx context.Context, decision entities.Decision) error {
	doc := decisionDocFromEntity(decision)
	update := bson.M{"$set": bson.M{
		"place_id":            doc.PlaceID,
		"shora_id":            doc.ShoraID,
		"title":               doc.Title,
		"title_persian":       doc.TitlePersian,
		"description":         doc.Description,
		"description_persian": doc.DescriptionPersian,
		"type":                doc.Type,
		"status":              doc.Status,
		"priority":            doc.Priority,
		"category":            doc.Category,
		"proposed_by":         doc.ProposedBy,
		"approved_by":         doc.ApprovedBy,
		"approved_at":         doc.ApprovedAt,
		"voting_deadline":     doc.VotingDeadline,
		"quorum_required":     doc.QuorumRequired,
		"implementation_date": doc.ImplementationDate,
		"created_by":          doc.CreatedBy,
		"updated_by":          doc.UpdatedBy,
		"created_at":          doc.CreatedAt,
		"updated_at":          doc.UpdatedAt,
	}, "$setOnInsert": bson.M{
		"votes": []voteDoc{},
	}}

	_, err := r.decisions.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return r.logError("decision_repo_save_failed", err, "decision_id", doc.ID)
	}
	return nil
}

func (r *Repository) GetDecision(ctx context.Context, decisionID string) (entities.Decision, error) {
	var doc decisionDoc
	err := r.decisions.FindOne(ctx, bson.M{"_id": strings.TrimSpace(decisionID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entities.Decision{}, domainerrors.ErrDecisionNotFound
		}
		return entities.Decision{}, r.logError("decision_repo_get_failed", err,
			"decision_id", strings.TrimSpace(decisionID),
		)
	}
	return doc.toEntity(), nil
}

// AddVote pushes the ballot only when the user is absent from the votes
// array; filter and push execute as one atomic document update.
func (r *Repository) AddVote(ctx context.Context, decisionID string, vote entities.Vote) error {
	decisionID = strings.TrimSpace(decisionID)
	result, err := r.decisions.UpdateOne(ctx,
		bson.M{
			"_id":           decisionID,
			"votes.user_id": bson.M{"$ne": strings.TrimSpace(vote.UserID)},
		},
		bson.M{"$push": bson.M{"votes": voteDoc{
			UserID: strings.TrimSpace(vote.UserID),
			Choice: string(vote.Choice),
			CastAt: vote.Timestamp.UTC(),
			Reason: strings.TrimSpace(vote.Reason),
		}}},
	)
	if err != nil {
		return r.logError("decision_repo_add_vote_failed", err,
			"decision_id", decisionID,
			"user_id", strings.TrimSpace(vote.UserID),
		)
	}
	if result.ModifiedCount == 0 {
		count, err := r.decisions.CountDocuments(ctx, bson.M{"_id": decisionID})
		if err != nil {
			return r.logError("decision_repo_vote_lookup_failed", err, "decision_id", decisionID)
		}
		if count == 0 {
			return domainerrors.ErrDecisionNotFound
		}
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (r *Repository) ListDecisions(ctx context.Context, filter ports.DecisionFilter) ([]entities.Decision, error) {
	query := bson.M{}
	if placeID := strings.TrimSpace(filter.PlaceID); placeID != "" {
		query["place_id"] = placeID
	}
	if shoraID := strings.TrimSpace(filter.ShoraID); shoraID != "" {
		query["shora_id"] = shoraID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	return r.findDecisions(ctx, query)
}

func (r *Repository) ListActiveDecisions(ctx context.Context) ([]entities.Decision, error) {
	return r.findDecisions(ctx, bson.M{"status": bson.M{"$in": []string{
		string(entities.DecisionStatusDraft),
		string(entities.DecisionStatusProposed),
	}}})
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := bson.MarshalExtJSON(envelope, false, false)
	if err != nil {
		return err
	}
	_, err = r.outbox.InsertOne(ctx, outboxDoc{
		ID:        envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: envelope.OccurredAt.UTC(),
	})
	if err != nil {
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
	cursor, err := r.outbox.Find(ctx,
		bson.M{"status": "pending"},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, r.logError("decision_repo_outbox_list_failed", err)
	}
	defer cursor.Close(ctx)

	items := make([]ports.OutboxMessage, 0)
	for cursor.Next(ctx) {
		var doc outboxDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.logError("decision_repo_outbox_decode_failed", err)
		}
		items = append(items, ports.OutboxMessage{
			OutboxID:    doc.ID,
			EventType:   doc.EventType,
			Payload:     doc.Payload,
			Status:      doc.Status,
			PublishedAt: doc.PublishedAt,
			CreatedAt:   doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, r.logError("decision_repo_outbox_cursor_failed", err)
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	_, err := r.outbox.UpdateOne(ctx,
		bson.M{"_id": strings.TrimSpace(outboxID)},
		bson.M{"$set": bson.M{
			"status":       "published",
			"published_at": publishedAt.UTC(),
		}},
	)
	if err != nil {
		return r.logError("decision_repo_outbox_mark_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) findDecisions(ctx context.Context, query bson.M) ([]entities.Decision, error) {
	cursor, err := r.decisions.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, r.logError("decision_repo_list_failed", err)
	}
	defer cursor.Close(ctx)

	items := make([]entities.Decision, 0)
	for cursor.Next(ctx) {
		var doc decisionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.logError("decision_repo_decode_failed", err)
		}
		items = append(items, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, r.logError("decision_repo_cursor_failed", err)
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

type voteDoc struct {
	UserID string    `bson:"user_id"`
	Choice string    `bson:"choice"`
	CastAt time.Time `bson:"cast_at"`
	Reason string    `bson:"reason,omitempty"`
}

type decisionDoc struct {
	ID                 string     `bson:"_id"`
	PlaceID            string     `bson:"place_id"`
	ShoraID            string     `bson:"shora_id"`
	Title              string     `bson:"title"`
	TitlePersian       string     `bson:"title_persian"`
	Description        string     `bson:"description,omitempty"`
	DescriptionPersian string     `bson:"description_persian,omitempty"`
	Type               string     `bson:"type"`
	Status             string     `bson:"status"`
	Priority           string     `bson:"priority"`
	Category           string     `bson:"category"`
	ProposedBy         string     `bson:"proposed_by,omitempty"`
	ApprovedBy         string     `bson:"approved_by,omitempty"`
	ApprovedAt         *time.Time `bson:"approved_at,omitempty"`
	VotingDeadline     *time.Time `bson:"voting_deadline,omitempty"`
	QuorumRequired     int        `bson:"quorum_required"`
	Votes              []voteDoc  `bson:"votes"`
	ImplementationDate *time.Time `bson:"implementation_date,omitempty"`
	CreatedBy          string     `bson:"created_by,omitempty"`
	UpdatedBy          string     `bson:"updated_by,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

type outboxDoc struct {
	ID          string     `bson:"_id"`
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	Status      string     `bson:"status"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
}

func decisionDocFromEntity(decision entities.Decision) decisionDoc {
	votes := make([]voteDoc, 0, len(decision.Votes))
	for _, vote := range decision.Votes {
		votes = append(votes, voteDoc{
			UserID: vote.UserID,
			Choice: string(vote.Choice),
			CastAt: vote.Timestamp.UTC(),
			Reason: vote.Reason,
		})
	}
	return decisionDoc{
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
		ProposedBy:         decision.ProposedBy,
		ApprovedBy:         decision.ApprovedBy,
		ApprovedAt:         decision.ApprovedAt,
		VotingDeadline:     decision.VotingDeadline,
		QuorumRequired:     decision.QuorumRequired,
		Votes:              votes,
		ImplementationDate: decision.ImplementationDate,
		CreatedBy:          decision.CreatedBy,
		UpdatedBy:          decision.UpdatedBy,
		CreatedAt:          decision.CreatedAt.UTC(),
		UpdatedAt:          decision.UpdatedAt.UTC(),
	}
}

func (d decisionDoc) toEntity() entities.Decision {
	votes := make([]entities.Vote, 0, len(d.Votes))
	for _, vote := range d.Votes {
		votes = append(votes, entities.Vote{
			UserID:    vote.UserID,
			Choice:    entities.VoteChoice(vote.Choice),
			Timestamp: vote.CastAt.UTC(),
			Reason:    vote.Reason,
		})
	}
	return entities.Decision{
		ID:                 d.ID,
		PlaceID:            d.PlaceID,
		ShoraID:            d.ShoraID,
		Title:              d.Title,
		TitlePersian:       d.TitlePersian,
		Description:        d.Description,
		DescriptionPersian: d.DescriptionPersian,
		Type:               entities.DecisionType(d.Type),
		Status:             entities.DecisionStatus(d.Status),
		Priority:           entities.Priority(d.Priority),
		Category:           entities.Category(d.Category),
		ProposedBy:         d.ProposedBy,
		ApprovedBy:         d.ApprovedBy,
		ApprovedAt:         d.ApprovedAt,
		VotingDeadline:     d.VotingDeadline,
		QuorumRequired:     d.QuorumRequired,
		Votes:              votes,
		ImplementationDate: d.ImplementationDate,
		CreatedBy:          d.CreatedBy,
		UpdatedBy:          d.UpdatedBy,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}
