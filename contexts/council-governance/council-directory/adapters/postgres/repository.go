package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shora/contexts/council-governance/council-directory/domain/entities"
	domainerrors "shora/contexts/council-governance/council-directory/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) SavePlace(ctx context.Context, place entities.Place) error {
	row := placeModelFromEntity(place)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":         row.Name,
			"name_persian": row.NamePersian,
			"province":     row.Province,
			"county":       row.County,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("directory_repo_save_place_failed", create.Error,
			"place_id", strings.TrimSpace(place.ID),
		)
	}
	return nil
}

func (r *Repository) GetPlace(ctx context.Context, placeID string) (entities.Place, error) {
	var row placeModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(placeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Place{}, domainerrors.ErrPlaceNotFound
		}
		return entities.Place{}, r.logError("directory_repo_get_place_failed", err,
			"place_id", strings.TrimSpace(placeID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPlaces(ctx context.Context) ([]entities.Place, error) {
	var rows []placeModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("directory_repo_list_places_failed", err)
	}
	items := make([]entities.Place, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// SaveShora upserts the whole aggregate. The unique index on place_id
// keeps the one-shora-per-place rule enforced at the storage layer as
// well, so concurrent establish calls cannot both create a body.
func (r *Repository) SaveShora(ctx context.Context, shora entities.Shora) error {
	row, err := shoraModelFromEntity(shora)
	if err != nil {
		return r.logError("directory_repo_encode_shora_failed", err,
			"shora_id", strings.TrimSpace(shora.ID),
		)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":            row.Name,
			"name_persian":    row.NamePersian,
			"type":            row.Type,
			"status":          row.Status,
			"term_start":      row.TermStart,
			"term_end":        row.TermEnd,
			"term_number":     row.TermNumber,
			"total_seats":     row.TotalSeats,
			"main_seats":      row.MainSeats,
			"alternate_seats": row.AlternateSeats,
			"representatives": row.Representatives,
			"quorum":          row.Quorum,
			"voting_method":   row.VotingMethod,
			"updated_at":      row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrShoraExists
		}
		return r.logError("directory_repo_save_shora_failed", create.Error,
			"shora_id", strings.TrimSpace(shora.ID),
			"place_id", strings.TrimSpace(shora.PlaceID),
		)
	}
	return nil
}

func (r *Repository) GetShora(ctx context.Context, shoraID string) (entities.Shora, error) {
	var row shoraModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(shoraID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Shora{}, domainerrors.ErrShoraNotFound
		}
		return entities.Shora{}, r.logError("directory_repo_get_shora_failed", err,
			"shora_id", strings.TrimSpace(shoraID),
		)
	}
	shora, err := row.toEntity()
	if err != nil {
		return entities.Shora{}, r.logError("directory_repo_decode_shora_failed", err,
			"shora_id", row.ID,
		)
	}
	return shora, nil
}

func (r *Repository) GetShoraByPlace(ctx context.Context, placeID string) (entities.Shora, bool, error) {
	var row shoraModel
	err := r.db.WithContext(ctx).
		Where("place_id = ?", strings.TrimSpace(placeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Shora{}, false, nil
		}
		return entities.Shora{}, false, r.logError("directory_repo_get_shora_by_place_failed", err,
			"place_id", strings.TrimSpace(placeID),
		)
	}
	shora, err := row.toEntity()
	if err != nil {
		return entities.Shora{}, false, r.logError("directory_repo_decode_shora_failed", err,
			"shora_id", row.ID,
		)
	}
	return shora, true, nil
}

func (r *Repository) ListActiveShoras(ctx context.Context) ([]entities.Shora, error) {
	var rows []shoraModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.ShoraStatusActive)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("directory_repo_list_shoras_failed", err)
	}
	items := make([]entities.Shora, 0, len(rows))
	for _, row := range rows {
		shora, err := row.toEntity()
		if err != nil {
			return nil, r.logError("directory_repo_decode_shora_failed", err, "shora_id", row.ID)
		}
		items = append(items, shora)
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
