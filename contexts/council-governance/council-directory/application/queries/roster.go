package queries

import (
	"context"
	"errors"
	"strings"

	"shora/contexts/council-governance/council-directory/domain/entities"
	domainerrors "shora/contexts/council-governance/council-directory/domain/errors"
	"shora/contexts/council-governance/council-directory/ports"
	decisionports "shora/contexts/council-governance/decision-engine/ports"
)

// DirectoryQueryUseCase serves directory reads and implements the decision
// engine's CouncilRoster port.
type DirectoryQueryUseCase struct {
	Directory ports.DirectoryRepository
}

func (uc DirectoryQueryUseCase) GetPlace(ctx context.Context, placeID string) (entities.Place, error) {
	return uc.Directory.GetPlace(ctx, strings.TrimSpace(placeID))
}

func (uc DirectoryQueryUseCase) ListPlaces(ctx context.Context) ([]entities.Place, error) {
	return uc.Directory.ListPlaces(ctx)
}

func (uc DirectoryQueryUseCase) GetShora(ctx context.Context, shoraID string) (entities.Shora, error) {
	return uc.Directory.GetShora(ctx, strings.TrimSpace(shoraID))
}

func (uc DirectoryQueryUseCase) GetShoraByPlace(ctx context.Context, placeID string) (entities.Shora, bool, error) {
	return uc.Directory.GetShoraByPlace(ctx, strings.TrimSpace(placeID))
}

func (uc DirectoryQueryUseCase) ListActiveShoras(ctx context.Context) ([]entities.Shora, error) {
	return uc.Directory.ListActiveShoras(ctx)
}

// RosterEntry satisfies the decision engine's CouncilRoster port. An unknown
// shora is reported as "not on the roster" rather than surfacing a directory
// sentinel the decision engine cannot classify.
func (uc DirectoryQueryUseCase) RosterEntry(ctx context.Context, shoraID string, userID string) (decisionports.RosterEntry, bool, error) {
	shora, err := uc.Directory.GetShora(ctx, strings.TrimSpace(shoraID))
	if errors.Is(err, domainerrors.ErrShoraNotFound) {
		return decisionports.RosterEntry{}, false, nil
	}
	if err != nil {
		return decisionports.RosterEntry{}, false, err
	}
	rep, found := shora.Representative(strings.TrimSpace(userID))
	if !found {
		return decisionports.RosterEntry{}, false, nil
	}
	return decisionports.RosterEntry{
		UserID:      rep.UserID,
		Role:        string(rep.Role),
		Permissions: append([]string(nil), rep.Permissions...),
		IsActive:    rep.IsActive,
	}, true, nil
}

// VotingMemberCount satisfies the decision engine's CouncilRoster port.
func (uc DirectoryQueryUseCase) VotingMemberCount(ctx context.Context, shoraID string) (int, error) {
	shora, err := uc.Directory.GetShora(ctx, strings.TrimSpace(shoraID))
	if errors.Is(err, domainerrors.ErrShoraNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return shora.VotingMemberCount(), nil
}
