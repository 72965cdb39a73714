package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "shora/contexts/council-governance/council-directory/application"
	"shora/contexts/council-governance/council-directory/domain/entities"
	domainerrors "shora/contexts/council-governance/council-directory/domain/errors"
	"shora/contexts/council-governance/council-directory/ports"
)

type RegisterPlaceCommand struct {
	Name        string
	NamePersian string
	Province    string
	County      string
}

type EstablishShoraCommand struct {
	PlaceID     string
	Name        string
	NamePersian string
	Type        entities.ShoraType
	TermStart   time.Time
	TermEnd     time.Time
	TermNumber  int
	TotalSeats  int
	Quorum      int
}

// SeatRepresentativeCommand seats a user on a shora, replacing any seat the
// user already holds.
type SeatRepresentativeCommand struct {
	ShoraID     string
	UserID      string
	Role        entities.RepresentativeRole
	Position    entities.RepresentativePosition
	Permissions []string
	StartDate   time.Time
}

type RetireRepresentativeCommand struct {
	ShoraID string
	UserID  string
}

// DirectoryUseCase maintains places, shoras and seats.
type DirectoryUseCase struct {
	Directory ports.DirectoryRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc DirectoryUseCase) RegisterPlace(ctx context.Context, cmd RegisterPlaceCommand) (entities.Place, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	namePersian := strings.TrimSpace(cmd.NamePersian)
	if name == "" || namePersian == "" {
		return entities.Place{}, domainerrors.ErrInvalidDirectoryInput
	}

	now := uc.now()
	placeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Place{}, err
	}
	place := entities.Place{
		ID:          placeID,
		Name:        name,
		NamePersian: namePersian,
		Province:    strings.TrimSpace(cmd.Province),
		County:      strings.TrimSpace(cmd.County),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Directory.SavePlace(ctx, place); err != nil {
		return entities.Place{}, err
	}

	logger.Info("place registered",
		"event", "directory_place_registered",
		"module", "council-governance/council-directory",
		"layer", "application",
		"place_id", place.ID,
	)
	return place, nil
}

// EstablishShora creates the council body for a place. A place holds at
// most one shora.
func (uc DirectoryUseCase) EstablishShora(ctx context.Context, cmd EstablishShoraCommand) (entities.Shora, error) {
	logger := application.ResolveLogger(uc.Logger)
	placeID := strings.TrimSpace(cmd.PlaceID)
	name := strings.TrimSpace(cmd.Name)
	namePersian := strings.TrimSpace(cmd.NamePersian)
	if placeID == "" || name == "" || namePersian == "" {
		return entities.Shora{}, domainerrors.ErrInvalidDirectoryInput
	}

	quorum := cmd.Quorum
	if quorum == 0 {
		quorum = 50
	}
	if quorum < 1 || quorum > 100 {
		return entities.Shora{}, domainerrors.ErrInvalidQuorumPolicy
	}

	if _, err := uc.Directory.GetPlace(ctx, placeID); err != nil {
		return entities.Shora{}, err
	}
	if _, found, err := uc.Directory.GetShoraByPlace(ctx, placeID); err != nil {
		return entities.Shora{}, err
	} else if found {
		return entities.Shora{}, domainerrors.ErrShoraExists
	}

	totalSeats := cmd.TotalSeats
	if totalSeats == 0 {
		totalSeats = 7
	}

	now := uc.now()
	shoraID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Shora{}, err
	}
	shora := entities.Shora{
		ID:          shoraID,
		PlaceID:     placeID,
		Name:        name,
		NamePersian: namePersian,
		Type:        resolveShoraType(cmd.Type),
		Status:      entities.ShoraStatusActive,
		Term: entities.Term{
			StartDate: cmd.TermStart.UTC(),
			EndDate:   cmd.TermEnd.UTC(),
			Number:    cmd.TermNumber,
		},
		Structure: entities.Structure{
			TotalSeats:               totalSeats,
			MainRepresentatives:      totalSeats - 2,
			AlternateRepresentatives: 2,
		},
		Policies: entities.Policies{
			Quorum:       quorum,
			VotingMethod: entities.VotingMajority,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.Directory.SaveShora(ctx, shora); err != nil {
		return entities.Shora{}, err
	}

	logger.Info("shora established",
		"event", "directory_shora_established",
		"module", "council-governance/council-directory",
		"layer", "application",
		"shora_id", shora.ID,
		"place_id", shora.PlaceID,
	)
	return shora, nil
}

func (uc DirectoryUseCase) SeatRepresentative(ctx context.Context, cmd SeatRepresentativeCommand) (entities.Shora, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.Shora{}, domainerrors.ErrInvalidDirectoryInput
	}

	shora, err := uc.Directory.GetShora(ctx, strings.TrimSpace(cmd.ShoraID))
	if err != nil {
		return entities.Shora{}, err
	}

	now := uc.now()
	startDate := cmd.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	seat := entities.Representative{
		UserID:      userID,
		Role:        resolveRole(cmd.Role),
		Position:    resolvePosition(cmd.Position),
		Permissions: normalizePermissions(cmd.Permissions),
		IsActive:    true,
		StartDate:   startDate.UTC(),
	}

	replaced := false
	for i, rep := range shora.Representatives {
		if rep.UserID == userID {
			shora.Representatives[i] = seat
			replaced = true
			break
		}
	}
	if !replaced {
		if shora.ActiveRepresentativeCount() >= shora.Structure.TotalSeats {
			return entities.Shora{}, domainerrors.ErrSeatLimitReached
		}
		shora.Representatives = append(shora.Representatives, seat)
	}

	shora.UpdatedAt = now
	if err := uc.Directory.SaveShora(ctx, shora); err != nil {
		return entities.Shora{}, err
	}

	logger.Info("representative seated",
		"event", "directory_representative_seated",
		"module", "council-governance/council-directory",
		"layer", "application",
		"shora_id", shora.ID,
		"user_id", userID,
		"role", string(seat.Role),
	)
	return shora, nil
}

func (uc DirectoryUseCase) RetireRepresentative(ctx context.Context, cmd RetireRepresentativeCommand) (entities.Shora, error) {
	logger := application.ResolveLogger(uc.Logger)
	shora, err := uc.Directory.GetShora(ctx, strings.TrimSpace(cmd.ShoraID))
	if err != nil {
		return entities.Shora{}, err
	}

	userID := strings.TrimSpace(cmd.UserID)
	now := uc.now()
	found := false
	for i, rep := range shora.Representatives {
		if rep.UserID == userID && rep.IsActive {
			endDate := now
			shora.Representatives[i].IsActive = false
			shora.Representatives[i].EndDate = &endDate
			found = true
			break
		}
	}
	if !found {
		return entities.Shora{}, domainerrors.ErrRepresentativeNotSeated
	}

	shora.UpdatedAt = now
	if err := uc.Directory.SaveShora(ctx, shora); err != nil {
		return entities.Shora{}, err
	}

	logger.Info("representative retired",
		"event", "directory_representative_retired",
		"module", "council-governance/council-directory",
		"layer", "application",
		"shora_id", shora.ID,
		"user_id", userID,
	)
	return shora, nil
}

func (uc DirectoryUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveShoraType(t entities.ShoraType) entities.ShoraType {
	switch t {
	case entities.ShoraTypeMain, entities.ShoraTypeBranch, entities.ShoraTypeSpecial:
		return t
	default:
		return entities.ShoraTypeMain
	}
}

func resolveRole(role entities.RepresentativeRole) entities.RepresentativeRole {
	switch role {
	case entities.RoleChairman, entities.RoleViceChairman, entities.RoleSecretary,
		entities.RoleMember, entities.RoleAlternate:
		return role
	default:
		return entities.RoleMember
	}
}

func resolvePosition(position entities.RepresentativePosition) entities.RepresentativePosition {
	switch position {
	case entities.PositionMain, entities.PositionAlternate:
		return position
	default:
		return entities.PositionMain
	}
}

func normalizePermissions(permissions []string) []string {
	allowed := map[string]bool{
		entities.PermissionRead:    true,
		entities.PermissionWrite:   true,
		entities.PermissionDelete:  true,
		entities.PermissionApprove: true,
		entities.PermissionVote:    true,
		entities.PermissionManage:  true,
	}
	normalized := make([]string, 0, len(permissions))
	seen := make(map[string]bool, len(permissions))
	for _, permission := range permissions {
		permission = strings.ToLower(strings.TrimSpace(permission))
		if allowed[permission] && !seen[permission] {
			normalized = append(normalized, permission)
			seen[permission] = true
		}
	}
	if len(normalized) == 0 {
		normalized = []string{entities.PermissionRead}
	}
	return normalized
}
