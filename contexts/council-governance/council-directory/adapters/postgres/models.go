package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"shora/contexts/council-governance/council-directory/domain/entities"
)

type placeModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	NamePersian string    `gorm:"column:name_persian"`
	Province    string    `gorm:"column:province"`
	County      string    `gorm:"column:county"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (placeModel) TableName() string {
	return "places"
}

// shoraModel keeps representatives as a JSON document. Seats are always
// read and written through the whole shora aggregate, so a child table
// would only add joins.
type shoraModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	PlaceID         string    `gorm:"column:place_id;uniqueIndex:ux_shoras_place"`
	Name            string    `gorm:"column:name"`
	NamePersian     string    `gorm:"column:name_persian"`
	Type            string    `gorm:"column:type"`
	Status          string    `gorm:"column:status;index"`
	TermStart       time.Time `gorm:"column:term_start"`
	TermEnd         time.Time `gorm:"column:term_end"`
	TermNumber      int       `gorm:"column:term_number"`
	TotalSeats      int       `gorm:"column:total_seats"`
	MainSeats       int       `gorm:"column:main_seats"`
	AlternateSeats  int       `gorm:"column:alternate_seats"`
	Representatives []byte    `gorm:"column:representatives;type:jsonb"`
	Quorum          int       `gorm:"column:quorum"`
	VotingMethod    string    `gorm:"column:voting_method"`
	CreatedAt       time.Time `gorm:"column:created_at;index"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (shoraModel) TableName() string {
	return "shoras"
}

type representativeDoc struct {
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	Position    string     `json:"position"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

func placeModelFromEntity(place entities.Place) placeModel {
	row := placeModel{
		ID:          strings.TrimSpace(place.ID),
		Name:        place.Name,
		NamePersian: place.NamePersian,
		Province:    place.Province,
		County:      place.County,
		CreatedAt:   place.CreatedAt.UTC(),
		UpdatedAt:   place.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m placeModel) toEntity() entities.Place {
	return entities.Place{
		ID:          m.ID,
		Name:        m.Name,
		NamePersian: m.NamePersian,
		Province:    m.Province,
		County:      m.County,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func shoraModelFromEntity(shora entities.Shora) (shoraModel, error) {
	docs := make([]representativeDoc, 0, len(shora.Representatives))
	for _, rep := range shora.Representatives {
		docs = append(docs, representativeDoc{
			UserID:      strings.TrimSpace(rep.UserID),
			Role:        string(rep.Role),
			Position:    string(rep.Position),
			Permissions: rep.Permissions,
			IsActive:    rep.IsActive,
			StartDate:   rep.StartDate.UTC(),
			EndDate:     normalize(rep.EndDate),
		})
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return shoraModel{}, err
	}

	row := shoraModel{
		ID:              strings.TrimSpace(shora.ID),
		PlaceID:         strings.TrimSpace(shora.PlaceID),
		Name:            shora.Name,
		NamePersian:     shora.NamePersian,
		Type:            string(shora.Type),
		Status:          string(shora.Status),
		TermStart:       shora.Term.StartDate.UTC(),
		TermEnd:         shora.Term.EndDate.UTC(),
		TermNumber:      shora.Term.Number,
		TotalSeats:      shora.Structure.TotalSeats,
		MainSeats:       shora.Structure.MainRepresentatives,
		AlternateSeats:  shora.Structure.AlternateRepresentatives,
		Representatives: payload,
		Quorum:          shora.Policies.Quorum,
		VotingMethod:    string(shora.Policies.VotingMethod),
		CreatedAt:       shora.CreatedAt.UTC(),
		UpdatedAt:       shora.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m shoraModel) toEntity() (entities.Shora, error) {
	var docs []representativeDoc
	if len(m.Representatives) > 0 {
		if err := json.Unmarshal(m.Representatives, &docs); err != nil {
			return entities.Shora{}, err
		}
	}
	reps := make([]entities.Representative, 0, len(docs))
	for _, doc := range docs {
		reps = append(reps, entities.Representative{
			UserID:      doc.UserID,
			Role:        entities.RepresentativeRole(doc.Role),
			Position:    entities.RepresentativePosition(doc.Position),
			Permissions: doc.Permissions,
			IsActive:    doc.IsActive,
			StartDate:   doc.StartDate.UTC(),
			EndDate:     normalize(doc.EndDate),
		})
	}

	return entities.Shora{
		ID:          m.ID,
		PlaceID:     m.PlaceID,
		Name:        m.Name,
		NamePersian: m.NamePersian,
		Type:        entities.ShoraType(m.Type),
		Status:      entities.ShoraStatus(m.Status),
		Term: entities.Term{
			StartDate: m.TermStart.UTC(),
			EndDate:   m.TermEnd.UTC(),
			Number:    m.TermNumber,
		},
		Structure: entities.Structure{
			TotalSeats:               m.TotalSeats,
			MainRepresentatives:      m.MainSeats,
			AlternateRepresentatives: m.AlternateSeats,
		},
		Representatives: reps,
		Policies: entities.Policies{
			Quorum:       m.Quorum,
			VotingMethod: entities.VotingMethod(m.VotingMethod),
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

func normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
