package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	councildirectory "shora/contexts/council-governance/council-directory"
	decisionengine "shora/contexts/council-governance/decision-engine"
	"shora/contexts/council-governance/decision-engine/ports"
	decisionhttp "shora/contexts/council-governance/decision-engine/transport/http"
	"shora/internal/platform/identity"
)

func newTestServer() (*Server, decisionengine.Module) {
	decisions := decisionengine.NewInMemoryModule(nil, nil)
	directory := councildirectory.NewInMemoryModule(nil, nil, nil)
	server := New(decisions, directory, nil, "test-secret", nil, ":0")
	return server, decisions
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer()
	rec := doJSON(t, server.Handler(), "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateDecisionRequiresAuthentication(t *testing.T) {
	server, _ := newTestServer()
	body := `{"place_id":"place-1","shora_id":"shora-1","title":"t","title_persian":"عنوان"}`

	rec := doJSON(t, server.Handler(), "POST", "/api/decisions", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}

	rec = doJSON(t, server.Handler(), "POST", "/api/decisions", body, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad bearer token, got %d", rec.Code)
	}
}

func TestCreateDecisionWithHeaderIdentity(t *testing.T) {
	server, decisions := newTestServer()
	decisions.Store.SetRoster("shora-1", []ports.RosterEntry{
		{UserID: "chairman-1", Role: "chairman", Permissions: []string{"write", "vote", "approve", "manage"}, IsActive: true},
	})

	body := `{"place_id":"place-1","shora_id":"shora-1","title":"Bridge repair","title_persian":"تعمیر پل"}`
	rec := doJSON(t, server.Handler(), "POST", "/api/decisions", body, map[string]string{
		"X-User-Id": "chairman-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp decisionhttp.DecisionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.ID == "" || resp.Status != "draft" {
		t.Fatalf("unexpected decision response: %+v", resp)
	}

	got := doJSON(t, server.Handler(), "GET", "/api/decisions/"+resp.ID, "", nil)
	if got.Code != http.StatusOK {
		t.Fatalf("expected 200 reading back the decision, got %d", got.Code)
	}
}

func TestCreateDecisionWithBearerToken(t *testing.T) {
	server, decisions := newTestServer()
	decisions.Store.SetRoster("shora-1", []ports.RosterEntry{
		{UserID: "chairman-1", Role: "chairman", Permissions: []string{"write"}, IsActive: true},
	})
	token, err := identity.NewToken(identity.Principal{UserID: "chairman-1"}, "test-secret")
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}

	body := `{"place_id":"place-1","shora_id":"shora-1","title":"Road paving","title_persian":"آسفالت"}`
	rec := doJSON(t, server.Handler(), "POST", "/api/decisions", body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with bearer token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDomainErrorsMapToStatusCodes(t *testing.T) {
	server, decisions := newTestServer()
	decisions.Store.SetRoster("shora-1", []ports.RosterEntry{
		{UserID: "chairman-1", Role: "chairman", Permissions: []string{"write", "vote", "approve", "manage"}, IsActive: true},
	})
	auth := map[string]string{"X-User-Id": "chairman-1"}

	rec := doJSON(t, server.Handler(), "GET", "/api/decisions/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing decision, got %d", rec.Code)
	}

	rec = doJSON(t, server.Handler(), "POST", "/api/decisions", `{"shora_id":"shora-1"}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", rec.Code)
	}

	body := `{"place_id":"place-1","shora_id":"shora-1","title":"t","title_persian":"عنوان"}`
	created := doJSON(t, server.Handler(), "POST", "/api/decisions", body, auth)
	if created.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", created.Code, created.Body.String())
	}
	var resp decisionhttp.DecisionResponse
	if err := json.Unmarshal(created.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}

	// Implementing a draft skips two lifecycle states.
	rec = doJSON(t, server.Handler(), "POST", "/api/decisions/"+resp.ID+"/implement", "", auth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for invalid transition, got %d: %s", rec.Code, rec.Body.String())
	}

	// A draft without a deadline never opens voting.
	rec = doJSON(t, server.Handler(), "POST", "/api/decisions/"+resp.ID+"/vote", `{"choice":"yes"}`, auth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 voting a draft, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPlaceAndShoraEndpoints(t *testing.T) {
	server, _ := newTestServer()

	rec := doJSON(t, server.Handler(), "POST", "/api/places", `{"name":"Kandovan","name_persian":"کندوان"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering place, got %d: %s", rec.Code, rec.Body.String())
	}
	var place struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &place); err != nil {
		t.Fatalf("decode place failed: %v", err)
	}

	rec = doJSON(t, server.Handler(), "GET", "/api/places/"+place.ID+"/shora", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the shora is established, got %d", rec.Code)
	}

	rec = doJSON(t, server.Handler(), "POST", "/api/shoras",
		`{"place_id":"`+place.ID+`","name":"Kandovan Council","name_persian":"شورا"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 establishing shora, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, server.Handler(), "GET", "/api/places/"+place.ID+"/shora", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after establishment, got %d", rec.Code)
	}

	rec = doJSON(t, server.Handler(), "POST", "/api/shoras",
		`{"place_id":"`+place.ID+`","name":"Second","name_persian":"دوم"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate shora, got %d", rec.Code)
	}

	rec = doJSON(t, server.Handler(), "GET", "/api/shoras", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing shoras, got %d", rec.Code)
	}
}
