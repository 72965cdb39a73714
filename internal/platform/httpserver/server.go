package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	councildirectory "shora/contexts/council-governance/council-directory"
	directoryerrors "shora/contexts/council-governance/council-directory/domain/errors"
	directoryhttp "shora/contexts/council-governance/council-directory/transport/http"
	decisionengine "shora/contexts/council-governance/decision-engine"
	"shora/contexts/council-governance/decision-engine/application/commands"
	decisionerrors "shora/contexts/council-governance/decision-engine/domain/errors"
	decisionhttp "shora/contexts/council-governance/decision-engine/transport/http"
	"shora/internal/platform/identity"
	"shora/internal/platform/ws"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "shora/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	decisions decisionengine.Module
	directory councildirectory.Module
	hub       *ws.Hub
	jwtSecret string
}

func New(
	decisions decisionengine.Module,
	directory councildirectory.Module,
	hub *ws.Hub,
	jwtSecret string,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		decisions: decisions,
		directory: directory,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/decisions", s.handleCreateDecision)
	s.mux.HandleFunc("GET /api/decisions", s.handleListDecisions)
	s.mux.HandleFunc("GET /api/decisions/active", s.handleListActiveDecisions)
	s.mux.HandleFunc("GET /api/decisions/{decision_id}", s.handleGetDecision)
	s.mux.HandleFunc("PUT /api/decisions/{decision_id}", s.handleUpdateDecision)
	s.mux.HandleFunc("POST /api/decisions/{decision_id}/propose", s.handleProposeDecision)
	s.mux.HandleFunc("POST /api/decisions/{decision_id}/vote", s.handleCastVote)
	s.mux.HandleFunc("POST /api/decisions/{decision_id}/resolve", s.handleResolveDecision)
	s.mux.HandleFunc("POST /api/decisions/{decision_id}/implement", s.handleImplementDecision)
	s.mux.HandleFunc("GET /api/decisions/{decision_id}/votes/{user_id}", s.handleGetUserVote)

	s.mux.HandleFunc("POST /api/places", s.handleRegisterPlace)
	s.mux.HandleFunc("GET /api/places", s.handleListPlaces)
	s.mux.HandleFunc("GET /api/places/{place_id}", s.handleGetPlace)
	s.mux.HandleFunc("GET /api/places/{place_id}/shora", s.handleGetShoraByPlace)

	s.mux.HandleFunc("POST /api/shoras", s.handleEstablishShora)
	s.mux.HandleFunc("GET /api/shoras", s.handleListActiveShoras)
	s.mux.HandleFunc("GET /api/shoras/{shora_id}", s.handleGetShora)
	s.mux.HandleFunc("POST /api/shoras/{shora_id}/representatives", s.handleSeatRepresentative)
	s.mux.HandleFunc("DELETE /api/shoras/{shora_id}/representatives/{user_id}", s.handleRetireRepresentative)

	if s.hub != nil {
		s.mux.HandleFunc("GET /ws/places/{place_id}", s.handlePlaceSocket)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	var req decisionhttp.CreateDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.decisions.Handler.CreateDecisionHandler(r.Context(), actor, req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	var req decisionhttp.UpdateDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.decisions.Handler.UpdateDecisionHandler(r.Context(), actor, r.PathValue("decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposeDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	req := decisionhttp.ProposeDecisionRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.decisions.Handler.ProposeDecisionHandler(r.Context(), actor, r.PathValue("decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	var req decisionhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.decisions.Handler.CastVoteHandler(r.Context(), actor, r.PathValue("decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	var req decisionhttp.ResolveDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.decisions.Handler.ResolveDecisionHandler(r.Context(), actor, r.PathValue("decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImplementDecision(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveActor(w, r)
	if !ok {
		return
	}
	req := decisionhttp.ImplementDecisionRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.decisions.Handler.ImplementDecisionHandler(r.Context(), actor, r.PathValue("decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	resp, err := s.decisions.Handler.GetDecisionHandler(r.Context(), r.PathValue("decision_id"))
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.decisions.Handler.ListDecisionsHandler(
		r.Context(),
		query.Get("place_id"),
		query.Get("shora_id"),
		query.Get("status"),
	)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListActiveDecisions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.decisions.Handler.ListActiveDecisionsHandler(r.Context())
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.decisions.Handler.UserVoteHandler(r.Context(), r.PathValue("decision_id"), r.PathValue("user_id"))
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterPlace(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.RegisterPlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.RegisterPlaceHandler(r.Context(), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPlaces(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.ListPlacesHandler(r.Context())
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.GetPlaceHandler(r.Context(), r.PathValue("place_id"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShoraByPlace(w http.ResponseWriter, r *http.Request) {
	resp, found, err := s.directory.Handler.GetShoraByPlaceHandler(r.Context(), r.PathValue("place_id"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	if !found {
		writeDirectoryError(w, http.StatusNotFound, "shora_not_found", "no shora established for place")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEstablishShora(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.EstablishShoraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.EstablishShoraHandler(r.Context(), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListActiveShoras(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.ListActiveShorasHandler(r.Context())
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShora(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.GetShoraHandler(r.Context(), r.PathValue("shora_id"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeatRepresentative(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.SeatRepresentativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.SeatRepresentativeHandler(r.Context(), r.PathValue("shora_id"), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetireRepresentative(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.RetireRepresentativeHandler(
		r.Context(),
		r.PathValue("shora_id"),
		r.PathValue("user_id"),
	)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlaceSocket(w http.ResponseWriter, r *http.Request) {
	principal, err := identity.ResolvePrincipal(r, s.jwtSecret)
	if err != nil {
		writeDecisionError(w, http.StatusUnauthorized, "invalid_token", "bearer token is invalid")
		return
	}
	placeID := r.PathValue("place_id")
	if strings.TrimSpace(placeID) == "" {
		writeDecisionError(w, http.StatusBadRequest, "invalid_place", "place id is required")
		return
	}
	if err := s.hub.ServeWS(w, r, placeID, principal.UserID); err != nil {
		s.logger.Warn("websocket upgrade failed",
			"event", "ws_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"place_id", placeID,
			"error", err.Error(),
		)
	}
}

// resolveActor authenticates the request and writes the error response
// itself when authentication fails.
func (s *Server) resolveActor(w http.ResponseWriter, r *http.Request) (commands.Actor, bool) {
	principal, err := identity.ResolvePrincipal(r, s.jwtSecret)
	if err != nil {
		writeDecisionError(w, http.StatusUnauthorized, "invalid_token", "bearer token is invalid")
		return commands.Actor{}, false
	}
	if principal.UserID == "" {
		writeDecisionError(w, http.StatusUnauthorized, "missing_user", "authentication is required")
		return commands.Actor{}, false
	}
	return commands.Actor{
		UserID: principal.UserID,
		Roles:  principal.Roles,
	}, true
}

func writeDecisionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decisionerrors.ErrDecisionNotFound):
		writeDecisionError(w, http.StatusNotFound, "decision_not_found", err.Error())
	case errors.Is(err, decisionerrors.ErrInvalidTransition):
		writeDecisionError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, decisionerrors.ErrVotingClosed):
		writeDecisionError(w, http.StatusConflict, "voting_closed", err.Error())
	case errors.Is(err, decisionerrors.ErrAlreadyVoted):
		writeDecisionError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, decisionerrors.ErrQuorumNotReached):
		writeDecisionError(w, http.StatusConflict, "quorum_not_reached", err.Error())
	case errors.Is(err, decisionerrors.ErrConflict):
		writeDecisionError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, decisionerrors.ErrPermissionDenied):
		writeDecisionError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, decisionerrors.ErrInvalidDecisionInput),
		errors.Is(err, decisionerrors.ErrQuorumOutOfRange):
		writeDecisionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeDecisionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDirectoryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directoryerrors.ErrPlaceNotFound):
		writeDirectoryError(w, http.StatusNotFound, "place_not_found", err.Error())
	case errors.Is(err, directoryerrors.ErrShoraNotFound):
		writeDirectoryError(w, http.StatusNotFound, "shora_not_found", err.Error())
	case errors.Is(err, directoryerrors.ErrRepresentativeNotFound),
		errors.Is(err, directoryerrors.ErrRepresentativeNotSeated):
		writeDirectoryError(w, http.StatusNotFound, "representative_not_found", err.Error())
	case errors.Is(err, directoryerrors.ErrShoraExists):
		writeDirectoryError(w, http.StatusConflict, "shora_exists", err.Error())
	case errors.Is(err, directoryerrors.ErrSeatLimitReached):
		writeDirectoryError(w, http.StatusConflict, "seat_limit_reached", err.Error())
	case errors.Is(err, directoryerrors.ErrInvalidDirectoryInput),
		errors.Is(err, directoryerrors.ErrInvalidQuorumPolicy):
		writeDirectoryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeDirectoryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDecisionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, decisionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeDirectoryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, directoryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
