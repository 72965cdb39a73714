package ports

import (
	"context"
	"time"

	"shora/contexts/council-governance/council-directory/domain/entities"
)

type DirectoryRepository interface {
	SavePlace(ctx context.Context, place entities.Place) error
	GetPlace(ctx context.Context, placeID string) (entities.Place, error)
	ListPlaces(ctx context.Context) ([]entities.Place, error)

	SaveShora(ctx context.Context, shora entities.Shora) error
	GetShora(ctx context.Context, shoraID string) (entities.Shora, error)
	GetShoraByPlace(ctx context.Context, placeID string) (entities.Shora, bool, error)
	ListActiveShoras(ctx context.Context) ([]entities.Shora, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
