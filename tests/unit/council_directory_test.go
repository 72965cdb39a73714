package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	councildirectory "shora/contexts/council-governance/council-directory"
	directoryerrors "shora/contexts/council-governance/council-directory/domain/errors"
	directorytransport "shora/contexts/council-governance/council-directory/transport/http"
	decisionengine "shora/contexts/council-governance/decision-engine"
	decisionmemory "shora/contexts/council-governance/decision-engine/adapters/memory"
	"shora/contexts/council-governance/decision-engine/application/commands"
	decisionerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	decisiontransport "shora/contexts/council-governance/decision-engine/transport/http"
)

func establishVillageShora(t *testing.T, module councildirectory.Module) (string, string) {
	t.Helper()
	place, err := module.Handler.RegisterPlaceHandler(context.Background(), directorytransport.RegisterPlaceRequest{
		Name:        "Kandovan",
		NamePersian: "کندوان",
		Province:    "East Azerbaijan",
		County:      "Osku",
	})
	if err != nil {
		t.Fatalf("register place failed: %v", err)
	}
	shora, err := module.Handler.EstablishShoraHandler(context.Background(), directorytransport.EstablishShoraRequest{
		PlaceID:     place.ID,
		Name:        "Kandovan Village Council",
		NamePersian: "شورای روستای کندوان",
		Type:        "main",
		TermStart:   time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		TermEnd:     time.Date(2103, 1, 1, 0, 0, 0, 0, time.UTC),
		TermNumber:  7,
		TotalSeats:  5,
	})
	if err != nil {
		t.Fatalf("establish shora failed: %v", err)
	}
	return place.ID, shora.ID
}

func TestEstablishShoraDefaultsAndUniqueness(t *testing.T) {
	module := councildirectory.NewInMemoryModule(nil, nil, nil)
	placeID, shoraID := establishVillageShora(t, module)

	shora, err := module.Handler.GetShoraHandler(context.Background(), shoraID)
	if err != nil {
		t.Fatalf("get shora failed: %v", err)
	}
	if shora.Policies.Quorum != 50 {
		t.Fatalf("expected default quorum 50, got %d", shora.Policies.Quorum)
	}
	if shora.Structure.TotalSeats != 5 || shora.Structure.AlternateRepresentatives != 2 {
		t.Fatalf("unexpected seat structure: %+v", shora.Structure)
	}
	if shora.Status != "active" {
		t.Fatalf("expected active shora, got %s", shora.Status)
	}

	_, err = module.Handler.EstablishShoraHandler(context.Background(), directorytransport.EstablishShoraRequest{
		PlaceID:     placeID,
		Name:        "Second Council",
		NamePersian: "شورای دوم",
	})
	if !errors.Is(err, directoryerrors.ErrShoraExists) {
		t.Fatalf("expected one shora per place, got %v", err)
	}

	_, err = module.Handler.EstablishShoraHandler(context.Background(), directorytransport.EstablishShoraRequest{
		PlaceID:     "missing-place",
		Name:        "Orphan Council",
		NamePersian: "شورای بی‌جا",
	})
	if !errors.Is(err, directoryerrors.ErrPlaceNotFound) {
		t.Fatalf("expected place not found, got %v", err)
	}

	byPlace, found, err := module.Handler.GetShoraByPlaceHandler(context.Background(), placeID)
	if err != nil || !found {
		t.Fatalf("lookup by place failed: found=%v err=%v", found, err)
	}
	if byPlace.ID != shoraID {
		t.Fatalf("lookup by place returned %s, want %s", byPlace.ID, shoraID)
	}
}

func TestEstablishShoraRejectsBadQuorum(t *testing.T) {
	module := councildirectory.NewInMemoryModule(nil, nil, nil)
	place, err := module.Handler.RegisterPlaceHandler(context.Background(), directorytransport.RegisterPlaceRequest{
		Name:        "Masuleh",
		NamePersian: "ماسوله",
	})
	if err != nil {
		t.Fatalf("register place failed: %v", err)
	}

	_, err = module.Handler.EstablishShoraHandler(context.Background(), directorytransport.EstablishShoraRequest{
		PlaceID:     place.ID,
		Name:        "Masuleh Council",
		NamePersian: "شورای ماسوله",
		Quorum:      140,
	})
	if !errors.Is(err, directoryerrors.ErrInvalidQuorumPolicy) {
		t.Fatalf("expected invalid quorum policy, got %v", err)
	}
}

func TestSeatAndRetireRepresentatives(t *testing.T) {
	module := councildirectory.NewInMemoryModule(nil, nil, nil)
	_, shoraID := establishVillageShora(t, module)

	seats := []directorytransport.SeatRepresentativeRequest{
		{UserID: "chairman-1", Role: "chairman", Position: "main", Permissions: []string{"read", "write", "vote", "approve", "manage"}},
		{UserID: "member-2", Role: "member", Position: "main", Permissions: []string{"read", "vote"}},
		{UserID: "member-3", Role: "member", Position: "main", Permissions: []string{"read", "vote"}},
	}
	var shora directorytransport.ShoraResponse
	for _, seat := range seats {
		var err error
		shora, err = module.Handler.SeatRepresentativeHandler(context.Background(), shoraID, seat)
		if err != nil {
			t.Fatalf("seat representative %s failed: %v", seat.UserID, err)
		}
	}
	if shora.VotingMemberCount != 3 {
		t.Fatalf("expected 3 voting members, got %d", shora.VotingMemberCount)
	}

	// Default permissions are read only, so an observer seat never votes.
	shora, err := module.Handler.SeatRepresentativeHandler(context.Background(), shoraID, directorytransport.SeatRepresentativeRequest{
		UserID: "alternate-4",
		Role:   "alternate",
	})
	if err != nil {
		t.Fatalf("seat alternate failed: %v", err)
	}
	if shora.VotingMemberCount != 3 {
		t.Fatalf("read-only seat must not raise the voting count, got %d", shora.VotingMemberCount)
	}

	// Reseating replaces the existing record rather than consuming a seat.
	shora, err = module.Handler.SeatRepresentativeHandler(context.Background(), shoraID, directorytransport.SeatRepresentativeRequest{
		UserID:      "member-3",
		Role:        "vice-chairman",
		Position:    "main",
		Permissions: []string{"read", "write", "vote"},
	})
	if err != nil {
		t.Fatalf("reseat representative failed: %v", err)
	}
	if len(shora.Representatives) != 4 {
		t.Fatalf("reseat must not add a row, got %d representatives", len(shora.Representatives))
	}

	shora, err = module.Handler.RetireRepresentativeHandler(context.Background(), shoraID, "member-2")
	if err != nil {
		t.Fatalf("retire representative failed: %v", err)
	}
	if shora.VotingMemberCount != 2 {
		t.Fatalf("expected 2 voting members after retirement, got %d", shora.VotingMemberCount)
	}

	_, err = module.Handler.RetireRepresentativeHandler(context.Background(), shoraID, "member-2")
	if !errors.Is(err, directoryerrors.ErrRepresentativeNotSeated) {
		t.Fatalf("expected retire of inactive seat to fail, got %v", err)
	}
}

func TestSeatRepresentativeHonorsSeatLimit(t *testing.T) {
	module := councildirectory.NewInMemoryModule(nil, nil, nil)
	place, err := module.Handler.RegisterPlaceHandler(context.Background(), directorytransport.RegisterPlaceRequest{
		Name:        "Abyaneh",
		NamePersian: "ابیانه",
	})
	if err != nil {
		t.Fatalf("register place failed: %v", err)
	}
	shora, err := module.Handler.EstablishShoraHandler(context.Background(), directorytransport.EstablishShoraRequest{
		PlaceID:     place.ID,
		Name:        "Abyaneh Council",
		NamePersian: "شورای ابیانه",
		TotalSeats:  3,
	})
	if err != nil {
		t.Fatalf("establish shora failed: %v", err)
	}

	for _, userID := range []string{"rep-1", "rep-2", "rep-3"} {
		if _, err := module.Handler.SeatRepresentativeHandler(context.Background(), shora.ID, directorytransport.SeatRepresentativeRequest{
			UserID:      userID,
			Role:        "member",
			Permissions: []string{"read", "vote"},
		}); err != nil {
			t.Fatalf("seat %s failed: %v", userID, err)
		}
	}

	_, err = module.Handler.SeatRepresentativeHandler(context.Background(), shora.ID, directorytransport.SeatRepresentativeRequest{
		UserID: "rep-4",
		Role:   "member",
	})
	if !errors.Is(err, directoryerrors.ErrSeatLimitReached) {
		t.Fatalf("expected seat limit reached, got %v", err)
	}
}

func TestDirectoryServesDecisionRoster(t *testing.T) {
	directory := councildirectory.NewInMemoryModule(nil, nil, nil)
	_, shoraID := establishVillageShora(t, directory)

	seats := []directorytransport.SeatRepresentativeRequest{
		{UserID: "chairman-1", Role: "chairman", Position: "main", Permissions: []string{"read", "write", "vote", "approve", "manage"}},
		{UserID: "member-2", Role: "member", Position: "main", Permissions: []string{"read", "vote"}},
		{UserID: "member-3", Role: "member", Position: "main", Permissions: []string{"read", "vote"}},
	}
	for _, seat := range seats {
		if _, err := directory.Handler.SeatRepresentativeHandler(context.Background(), shoraID, seat); err != nil {
			t.Fatalf("seat representative %s failed: %v", seat.UserID, err)
		}
	}

	store := decisionmemory.NewStore(nil)
	now := time.Date(2099, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetNow(now)
	decisions := decisionengine.NewModule(decisionengine.Dependencies{
		Decisions: store,
		Roster:    directory.Queries,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
	})

	chairman := commands.Actor{UserID: "chairman-1"}
	created, err := decisions.Handler.CreateDecisionHandler(context.Background(), chairman, decisiontransport.CreateDecisionRequest{
		PlaceID:      "place-1",
		ShoraID:      shoraID,
		Title:        "Spring irrigation schedule",
		TitlePersian: "برنامه آبیاری بهاره",
	})
	if err != nil {
		t.Fatalf("create decision failed: %v", err)
	}
	deadline := now.Add(24 * time.Hour)
	if _, err := decisions.Handler.ProposeDecisionHandler(context.Background(), chairman, created.ID, decisiontransport.ProposeDecisionRequest{
		VotingDeadline: &deadline,
	}); err != nil {
		t.Fatalf("propose decision failed: %v", err)
	}

	_, err = decisions.Handler.CastVoteHandler(context.Background(), commands.Actor{UserID: "outsider-1"}, created.ID, decisiontransport.CastVoteRequest{Choice: "yes"})
	if !errors.Is(err, decisionerrors.ErrPermissionDenied) {
		t.Fatalf("expected seated-roster enforcement for outsiders, got %v", err)
	}

	if _, err := decisions.Handler.CastVoteHandler(context.Background(), commands.Actor{UserID: "member-2"}, created.ID, decisiontransport.CastVoteRequest{Choice: "yes"}); err != nil {
		t.Fatalf("seated member vote failed: %v", err)
	}

	// Three voting seats at 50 percent need two ballots; one is not enough.
	_, err = decisions.Handler.ResolveDecisionHandler(context.Background(), chairman, created.ID, decisiontransport.ResolveDecisionRequest{Outcome: "approve"})
	if !errors.Is(err, decisionerrors.ErrQuorumNotReached) {
		t.Fatalf("expected quorum not reached with one ballot, got %v", err)
	}

	if _, err := decisions.Handler.CastVoteHandler(context.Background(), chairman, created.ID, decisiontransport.CastVoteRequest{Choice: "yes"}); err != nil {
		t.Fatalf("chairman vote failed: %v", err)
	}
	approved, err := decisions.Handler.ResolveDecisionHandler(context.Background(), chairman, created.ID, decisiontransport.ResolveDecisionRequest{Outcome: "approve"})
	if err != nil {
		t.Fatalf("resolve decision failed: %v", err)
	}
	if approved.Status != "approved" {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
}

func TestDirectoryRosterTreatsUnknownShoraAsUnseated(t *testing.T) {
	directory := councildirectory.NewInMemoryModule(nil, nil, nil)

	store := decisionmemory.NewStore(nil)
	store.SetNow(time.Date(2099, 3, 1, 9, 0, 0, 0, time.UTC))
	decisions := decisionengine.NewModule(decisionengine.Dependencies{
		Decisions: store,
		Roster:    directory.Queries,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
	})

	// A shora the directory has never heard of must read as "not seated",
	// the same answer the in-memory roster gives, instead of leaking the
	// directory's own not-found sentinel through the decision engine.
	_, err := decisions.Handler.CreateDecisionHandler(context.Background(), commands.Actor{UserID: "chairman-1"}, decisiontransport.CreateDecisionRequest{
		PlaceID:      "place-1",
		ShoraID:      "shora-ghost",
		Title:        "Footbridge repair",
		TitlePersian: "تعمیر پل عابر",
	})
	if errors.Is(err, directoryerrors.ErrShoraNotFound) {
		t.Fatalf("directory sentinel leaked through the roster port: %v", err)
	}
	if !errors.Is(err, decisionerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for an unknown shora, got %v", err)
	}

	entry, seated, err := directory.Queries.RosterEntry(context.Background(), "shora-ghost", "chairman-1")
	if err != nil || seated {
		t.Fatalf("expected a clean unseated answer, got entry=%+v seated=%v err=%v", entry, seated, err)
	}
	count, err := directory.Queries.VotingMemberCount(context.Background(), "shora-ghost")
	if err != nil || count != 0 {
		t.Fatalf("expected zero voting members for an unknown shora, got count=%d err=%v", count, err)
	}
}
