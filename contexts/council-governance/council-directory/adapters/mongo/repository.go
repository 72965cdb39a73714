package mongoadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shora/contexts/council-governance/council-directory/domain/entities"
	domainerrors "shora/contexts/council-governance/council-directory/domain/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores each shora as a single document with its embedded
// representatives array, matching the platform's original document
// layout.
type Repository struct {
	places *mongo.Collection
	shoras *mongo.Collection
	logger *slog.Logger
}

func NewRepository(db *mongo.Database, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		places: db.Collection("places"),
		shoras: db.Collection("shoras"),
		logger: logger,
	}
}

func (r *Repository) SavePlace(ctx context.Context, place entities.Place) error {
	doc := placeDocFromEntity(place)
	_, err := r.places.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"name":         doc.Name,
			"name_persian": doc.NamePersian,
			"province":     doc.Province,
			"county":       doc.County,
			"created_at":   doc.CreatedAt,
			"updated_at":   doc.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return r.logError("directory_repo_save_place_failed", err, "place_id", doc.ID)
	}
	return nil
}

func (r *Repository) GetPlace(ctx context.Context, placeID string) (entities.Place, error) {
	var doc placeDoc
	err := r.places.FindOne(ctx, bson.M{"_id": strings.TrimSpace(placeID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entities.Place{}, domainerrors.ErrPlaceNotFound
		}
		return entities.Place{}, r.logError("directory_repo_get_place_failed", err,
			"place_id", strings.TrimSpace(placeID),
		)
	}
	return doc.toEntity(), nil
}

func (r *Repository) ListPlaces(ctx context.Context) ([]entities.Place, error) {
	cursor, err := r.places.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, r.logError("directory_repo_list_places_failed", err)
	}
	defer cursor.Close(ctx)

	items := make([]entities.Place, 0)
	for cursor.Next(ctx) {
		var doc placeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.logError("directory_repo_decode_place_failed", err)
		}
		items = append(items, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, r.logError("directory_repo_places_cursor_failed", err)
	}
	return items, nil
}

func (r *Repository) SaveShora(ctx context.Context, shora entities.Shora) error {
	doc := shoraDocFromEntity(shora)
	_, err := r.shoras.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"place_id":        doc.PlaceID,
			"name":            doc.Name,
			"name_persian":    doc.NamePersian,
			"type":            doc.Type,
			"status":          doc.Status,
			"term":            doc.Term,
			"structure":       doc.Structure,
			"representatives": doc.Representatives,
			"policies":        doc.Policies,
			"created_at":      doc.CreatedAt,
			"updated_at":      doc.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainerrors.ErrShoraExists
		}
		return r.logError("directory_repo_save_shora_failed", err,
			"shora_id", doc.ID,
			"place_id", doc.PlaceID,
		)
	}
	return nil
}

func (r *Repository) GetShora(ctx context.Context, shoraID string) (entities.Shora, error) {
	var doc shoraDoc
	err := r.shoras.FindOne(ctx, bson.M{"_id": strings.TrimSpace(shoraID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entities.Shora{}, domainerrors.ErrShoraNotFound
		}
		return entities.Shora{}, r.logError("directory_repo_get_shora_failed", err,
			"shora_id", strings.TrimSpace(shoraID),
		)
	}
	return doc.toEntity(), nil
}

func (r *Repository) GetShoraByPlace(ctx context.Context, placeID string) (entities.Shora, bool, error) {
	var doc shoraDoc
	err := r.shoras.FindOne(ctx, bson.M{"place_id": strings.TrimSpace(placeID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entities.Shora{}, false, nil
		}
		return entities.Shora{}, false, r.logError("directory_repo_get_shora_by_place_failed", err,
			"place_id", strings.TrimSpace(placeID),
		)
	}
	return doc.toEntity(), true, nil
}

func (r *Repository) ListActiveShoras(ctx context.Context) ([]entities.Shora, error) {
	cursor, err := r.shoras.Find(ctx,
		bson.M{"status": string(entities.ShoraStatusActive)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, r.logError("directory_repo_list_shoras_failed", err)
	}
	defer cursor.Close(ctx)

	items := make([]entities.Shora, 0)
	for cursor.Next(ctx) {
		var doc shoraDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, r.logError("directory_repo_decode_shora_failed", err)
		}
		items = append(items, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, r.logError("directory_repo_shoras_cursor_failed", err)
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "council-governance/council-directory",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("directory repository operation failed", fields...)
	return err
}

type placeDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	NamePersian string    `bson:"name_persian"`
	Province    string    `bson:"province,omitempty"`
	County      string    `bson:"county,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type representativeDoc struct {
	UserID      string     `bson:"user_id"`
	Role        string     `bson:"role"`
	Position    string     `bson:"position"`
	Permissions []string   `bson:"permissions"`
	IsActive    bool       `bson:"is_active"`
	StartDate   time.Time  `bson:"start_date"`
	EndDate     *time.Time `bson:"end_date,omitempty"`
}

type termDoc struct {
	StartDate time.Time `bson:"start_date"`
	EndDate   time.Time `bson:"end_date"`
	Number    int       `bson:"number"`
}

type structureDoc struct {
	TotalSeats               int `bson:"total_seats"`
	MainRepresentatives      int `bson:"main_representatives"`
	AlternateRepresentatives int `bson:"alternate_representatives"`
}

type policiesDoc struct {
	Quorum       int    `bson:"quorum"`
	VotingMethod string `bson:"voting_method"`
}

type shoraDoc struct {
	ID              string              `bson:"_id"`
	PlaceID         string              `bson:"place_id"`
	Name            string              `bson:"name"`
	NamePersian     string              `bson:"name_persian"`
	Type            string              `bson:"type"`
	Status          string              `bson:"status"`
	Term            termDoc             `bson:"term"`
	Structure       structureDoc        `bson:"structure"`
	Representatives []representativeDoc `bson:"representatives"`
	Policies        policiesDoc         `bson:"policies"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

func placeDocFromEntity(place entities.Place) placeDoc {
	return placeDoc{
		ID:          strings.TrimSpace(place.ID),
		Name:        place.Name,
		NamePersian: place.NamePersian,
		Province:    place.Province,
		County:      place.County,
		CreatedAt:   place.CreatedAt.UTC(),
		UpdatedAt:   place.UpdatedAt.UTC(),
	}
}

func (d placeDoc) toEntity() entities.Place {
	return entities.Place{
		ID:          d.ID,
		Name:        d.Name,
		NamePersian: d.NamePersian,
		Province:    d.Province,
		County:      d.County,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func shoraDocFromEntity(shora entities.Shora) shoraDoc {
	reps := make([]representativeDoc, 0, len(shora.Representatives))
	for _, rep := range shora.Representatives {
		reps = append(reps, representativeDoc{
			UserID:      rep.UserID,
			Role:        string(rep.Role),
			Position:    string(rep.Position),
			Permissions: rep.Permissions,
			IsActive:    rep.IsActive,
			StartDate:   rep.StartDate.UTC(),
			EndDate:     rep.EndDate,
		})
	}
	return shoraDoc{
		ID:          strings.TrimSpace(shora.ID),
		PlaceID:     strings.TrimSpace(shora.PlaceID),
		Name:        shora.Name,
		NamePersian: shora.NamePersian,
		Type:        string(shora.Type),
		Status:      string(shora.Status),
		Term: termDoc{
			StartDate: shora.Term.StartDate.UTC(),
			EndDate:   shora.Term.EndDate.UTC(),
			Number:    shora.Term.Number,
		},
		Structure: structureDoc{
			TotalSeats:               shora.Structure.TotalSeats,
			MainRepresentatives:      shora.Structure.MainRepresentatives,
			AlternateRepresentatives: shora.Structure.AlternateRepresentatives,
		},
		Representatives: reps,
		Policies: policiesDoc{
			Quorum:       shora.Policies.Quorum,
			VotingMethod: string(shora.Policies.VotingMethod),
		},
		CreatedAt: shora.CreatedAt.UTC(),
		UpdatedAt: shora.UpdatedAt.UTC(),
	}
}

func (d shoraDoc) toEntity() entities.Shora {
	reps := make([]entities.Representative, 0, len(d.Representatives))
	for _, rep := range d.Representatives {
		reps = append(reps, entities.Representative{
			UserID:      rep.UserID,
			Role:        entities.RepresentativeRole(rep.Role),
			Position:    entities.RepresentativePosition(rep.Position),
			Permissions: rep.Permissions,
			IsActive:    rep.IsActive,
			StartDate:   rep.StartDate.UTC(),
			EndDate:     rep.EndDate,
		})
	}
	return entities.Shora{
		ID:          d.ID,
		PlaceID:     d.PlaceID,
		Name:        d.Name,
		NamePersian: d.NamePersian,
		Type:        entities.ShoraType(d.Type),
		Status:      entities.ShoraStatus(d.Status),
		Term: entities.Term{
			StartDate: d.Term.StartDate.UTC(),
			EndDate:   d.Term.EndDate.UTC(),
			Number:    d.Term.Number,
		},
		Structure: entities.Structure{
			TotalSeats:               d.Structure.TotalSeats,
			MainRepresentatives:      d.Structure.MainRepresentatives,
			AlternateRepresentatives: d.Structure.AlternateRepresentatives,
		},
		Representatives: reps,
		Policies: entities.Policies{
			Quorum:       d.Policies.Quorum,
			VotingMethod: entities.VotingMethod(d.Policies.VotingMethod),
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
