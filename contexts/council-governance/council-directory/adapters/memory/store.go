package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shora/contexts/council-governance/council-directory/domain/entities"
	domainerrors "shora/contexts/council-governance/council-directory/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and single-process wiring.
// It implements the directory ports behind one RWMutex.
type Store struct {
	mu sync.RWMutex

	places       map[string]entities.Place
	shoras       map[string]entities.Shora
	shoraByPlace map[string]string

	nowOverride *time.Time
}

func NewStore(places []entities.Place, shoras []entities.Shora) *Store {
	store := &Store{
		places:       make(map[string]entities.Place, len(places)),
		shoras:       make(map[string]entities.Shora, len(shoras)),
		shoraByPlace: make(map[string]string, len(shoras)),
	}
	for _, place := range places {
		store.places[place.ID] = place
	}
	for _, shora := range shoras {
		store.shoras[shora.ID] = cloneShora(shora)
		store.shoraByPlace[shora.PlaceID] = shora.ID
	}
	return store
}

// SetNow pins the clock for term-sensitive tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc := now.UTC()
	s.nowOverride = &utc
}

func (s *Store) SavePlace(_ context.Context, place entities.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[strings.TrimSpace(place.ID)] = place
	return nil
}

func (s *Store) GetPlace(_ context.Context, placeID string) (entities.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	place, ok := s.places[strings.TrimSpace(placeID)]
	if !ok {
		return entities.Place{}, domainerrors.ErrPlaceNotFound
	}
	return place, nil
}

func (s *Store) ListPlaces(_ context.Context) ([]entities.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Place, 0, len(s.places))
	for _, place := range s.places {
		items = append(items, place)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) SaveShora(_ context.Context, shora entities.Shora) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shoras[strings.TrimSpace(shora.ID)] = cloneShora(shora)
	s.shoraByPlace[strings.TrimSpace(shora.PlaceID)] = shora.ID
	return nil
}

func (s *Store) GetShora(_ context.Context, shoraID string) (entities.Shora, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shora, ok := s.shoras[strings.TrimSpace(shoraID)]
	if !ok {
		return entities.Shora{}, domainerrors.ErrShoraNotFound
	}
	return cloneShora(shora), nil
}

func (s *Store) GetShoraByPlace(_ context.Context, placeID string) (entities.Shora, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shoraID, ok := s.shoraByPlace[strings.TrimSpace(placeID)]
	if !ok {
		return entities.Shora{}, false, nil
	}
	shora, ok := s.shoras[shoraID]
	if !ok {
		return entities.Shora{}, false, nil
	}
	return cloneShora(shora), true, nil
}

func (s *Store) ListActiveShoras(_ context.Context) ([]entities.Shora, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Shora, 0)
	for _, shora := range s.shoras {
		if shora.Status == entities.ShoraStatusActive {
			items = append(items, cloneShora(shora))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nowOverride != nil {
		return *s.nowOverride
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneShora(shora entities.Shora) entities.Shora {
	clone := shora
	clone.Representatives = make([]entities.Representative, len(shora.Representatives))
	for i, rep := range shora.Representatives {
		cloned := rep
		cloned.Permissions = append([]string(nil), rep.Permissions...)
		clone.Representatives[i] = cloned
	}
	return clone
}
