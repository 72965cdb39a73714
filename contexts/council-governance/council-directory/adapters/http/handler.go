package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"shora/contexts/council-governance/council-directory/application/commands"
	"shora/contexts/council-governance/council-directory/application/queries"
	"shora/contexts/council-governance/council-directory/domain/entities"
	httptransport "shora/contexts/council-governance/council-directory/transport/http"
)

type Handler struct {
	Directory commands.DirectoryUseCase
	Queries   queries.DirectoryQueryUseCase
	Logger    *slog.Logger
}

func (h Handler) RegisterPlaceHandler(
	ctx context.Context,
	req httptransport.RegisterPlaceRequest,
) (httptransport.PlaceResponse, error) {
	place, err := h.Directory.RegisterPlace(ctx, commands.RegisterPlaceCommand{
		Name:        req.Name,
		NamePersian: req.NamePersian,
		Province:    req.Province,
		County:      req.County,
	})
	if err != nil {
		return httptransport.PlaceResponse{}, err
	}
	return mapPlace(place), nil
}

func (h Handler) GetPlaceHandler(ctx context.Context, placeID string) (httptransport.PlaceResponse, error) {
	place, err := h.Queries.GetPlace(ctx, placeID)
	if err != nil {
		return httptransport.PlaceResponse{}, err
	}
	return mapPlace(place), nil
}

func (h Handler) ListPlacesHandler(ctx context.Context) (httptransport.PlaceListResponse, error) {
	places, err := h.Queries.ListPlaces(ctx)
	if err != nil {
		return httptransport.PlaceListResponse{}, err
	}
	items := make([]httptransport.PlaceResponse, 0, len(places))
	for _, place := range places {
		items = append(items, mapPlace(place))
	}
	return httptransport.PlaceListResponse{Items: items}, nil
}

func (h Handler) EstablishShoraHandler(
	ctx context.Context,
	req httptransport.EstablishShoraRequest,
) (httptransport.ShoraResponse, error) {
	shora, err := h.Directory.EstablishShora(ctx, commands.EstablishShoraCommand{
		PlaceID:     req.PlaceID,
		Name:        req.Name,
		NamePersian: req.NamePersian,
		Type:        entities.ShoraType(req.Type),
		TermStart:   req.TermStart,
		TermEnd:     req.TermEnd,
		TermNumber:  req.TermNumber,
		TotalSeats:  req.TotalSeats,
		Quorum:      req.Quorum,
	})
	if err != nil {
		return httptransport.ShoraResponse{}, err
	}
	return mapShora(shora), nil
}

func (h Handler) GetShoraHandler(ctx context.Context, shoraID string) (httptransport.ShoraResponse, error) {
	shora, err := h.Queries.GetShora(ctx, shoraID)
	if err != nil {
		return httptransport.ShoraResponse{}, err
	}
	return mapShora(shora), nil
}

func (h Handler) GetShoraByPlaceHandler(ctx context.Context, placeID string) (httptransport.ShoraResponse, bool, error) {
	shora, found, err := h.Queries.GetShoraByPlace(ctx, placeID)
	if err != nil || !found {
		return httptransport.ShoraResponse{}, found, err
	}
	return mapShora(shora), true, nil
}

func (h Handler) ListActiveShorasHandler(ctx context.Context) (httptransport.ShoraListResponse, error) {
	shoras, err := h.Queries.ListActiveShoras(ctx)
	if err != nil {
		return httptransport.ShoraListResponse{}, err
	}
	items := make([]httptransport.ShoraResponse, 0, len(shoras))
	for _, shora := range shoras {
		items = append(items, mapShora(shora))
	}
	return httptransport.ShoraListResponse{Items: items}, nil
}

func (h Handler) SeatRepresentativeHandler(
	ctx context.Context,
	shoraID string,
	req httptransport.SeatRepresentativeRequest,
) (httptransport.ShoraResponse, error) {
	var startDate time.Time
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	shora, err := h.Directory.SeatRepresentative(ctx, commands.SeatRepresentativeCommand{
		ShoraID:     shoraID,
		UserID:      req.UserID,
		Role:        entities.RepresentativeRole(req.Role),
		Position:    entities.RepresentativePosition(req.Position),
		Permissions: req.Permissions,
		StartDate:   startDate,
	})
	if err != nil {
		return httptransport.ShoraResponse{}, err
	}
	return mapShora(shora), nil
}

func (h Handler) RetireRepresentativeHandler(
	ctx context.Context,
	shoraID string,
	userID string,
) (httptransport.ShoraResponse, error) {
	shora, err := h.Directory.RetireRepresentative(ctx, commands.RetireRepresentativeCommand{
		ShoraID: shoraID,
		UserID:  userID,
	})
	if err != nil {
		return httptransport.ShoraResponse{}, err
	}
	return mapShora(shora), nil
}

func mapPlace(place entities.Place) httptransport.PlaceResponse {
	return httptransport.PlaceResponse{
		ID:          place.ID,
		Name:        place.Name,
		NamePersian: place.NamePersian,
		Province:    place.Province,
		County:      place.County,
		CreatedAt:   place.CreatedAt,
		UpdatedAt:   place.UpdatedAt,
	}
}

func mapShora(shora entities.Shora) httptransport.ShoraResponse {
	reps := make([]httptransport.RepresentativeView, 0, len(shora.Representatives))
	for _, rep := range shora.Representatives {
		reps = append(reps, httptransport.RepresentativeView{
			UserID:      rep.UserID,
			Role:        string(rep.Role),
			Position:    string(rep.Position),
			Permissions: rep.Permissions,
			IsActive:    rep.IsActive,
			StartDate:   rep.StartDate,
			EndDate:     rep.EndDate,
		})
	}
	return httptransport.ShoraResponse{
		ID:          shora.ID,
		PlaceID:     shora.PlaceID,
		Name:        shora.Name,
		NamePersian: shora.NamePersian,
		Type:        string(shora.Type),
		Status:      string(shora.Status),
		Term: httptransport.TermView{
			StartDate: shora.Term.StartDate,
			EndDate:   shora.Term.EndDate,
			Number:    shora.Term.Number,
		},
		Structure: httptransport.StructureView{
			TotalSeats:               shora.Structure.TotalSeats,
			MainRepresentatives:      shora.Structure.MainRepresentatives,
			AlternateRepresentatives: shora.Structure.AlternateRepresentatives,
		},
		Representatives: reps,
		Policies: httptransport.PoliciesView{
			Quorum:       shora.Policies.Quorum,
			VotingMethod: string(shora.Policies.VotingMethod),
		},
		VotingMemberCount: shora.VotingMemberCount(),
		CreatedAt:         shora.CreatedAt,
		UpdatedAt:         shora.UpdatedAt,
	}
}
