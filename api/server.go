package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/service"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
	"github.com/wricardo/mcp-training/pairmatch/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Lifecycle
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/resume", s.handleResume).Methods("POST")
	api.HandleFunc("/sessions/{id}/end", s.handleEnd).Methods("POST")

	// Game operations
	api.HandleFunc("/sessions/{id}/turn", s.handleTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-turns", s.handleBulkTurns).Methods("POST")
	api.HandleFunc("/sessions/{id}/flip", s.handleFlip).Methods("POST")
	api.HandleFunc("/sessions/{id}/hint", s.handleHint).Methods("POST")

	// Configuration
	api.HandleFunc("/difficulties", s.handleListDifficulties).Methods("GET")
	api.HandleFunc("/difficulties", s.handleSaveDifficulty).Methods("POST")
	api.HandleFunc("/modes", s.handleListModes).Methods("GET")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles", s.handleCreateProfile).Methods("POST")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleUpdatePreferences).Methods("PATCH")
	api.HandleFunc("/profiles/{name}/session", s.handleProfileSession).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleDeleteProfile).Methods("DELETE")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error onto its HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConfiguration),
		errors.Is(err, engine.ErrSizeMismatch),
		errors.Is(err, engine.ErrInvalidPosition),
		errors.Is(err, session.ErrSameToken),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, profile.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInactiveSession),
		errors.Is(err, session.ErrNoHints),
		errors.Is(err, session.ErrSessionAlreadyExists),
		errors.Is(err, profile.ErrProfileExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrProfilesDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body into v
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	profileName := query.Get("profile")
	limitStr := query.Get("limit")

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if profileName != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if strings.EqualFold(info.Profile, profileName) {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Lifecycle Handlers

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.StartSession(r.Context(), mux.Vars(r)["id"])
	s.respondSession(w, info, err)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.PauseSession(r.Context(), mux.Vars(r)["id"])
	s.respondSession(w, info, err)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.ResumeSession(r.Context(), mux.Vars(r)["id"])
	s.respondSession(w, info, err)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.EndSession(r.Context(), mux.Vars(r)["id"])
	s.respondSession(w, info, err)
}

func (s *Server) respondSession(w http.ResponseWriter, info *service.SessionInfo, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Game Operation Handlers

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req service.TurnRequest
	if r.Body == nil || r.ContentLength == 0 {
		respondError(w, http.StatusBadRequest, "request body with first and second positions is required")
		return
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.ProcessTurn(r.Context(), mux.Vars(r)["id"], req.First, req.Second)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkTurns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Turns []service.TurnRequest `json:"turns"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Turns) == 0 {
		respondError(w, http.StatusBadRequest, "turns array is required")
		return
	}

	result, err := s.service.BulkTurns(r.Context(), mux.Vars(r)["id"], req.Turns)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var pos engine.Position
	if err := decodeBody(r, &pos); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.FlipToken(r.Context(), mux.Vars(r)["id"], pos)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.UseHint(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Configuration Handlers

func (s *Server) handleListDifficulties(w http.ResponseWriter, r *http.Request) {
	difficulties, err := s.service.ListDifficulties(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"difficulties": difficulties,
		"count":        len(difficulties),
	})
}

func (s *Server) handleSaveDifficulty(w http.ResponseWriter, r *http.Request) {
	var tier engine.Tier
	if err := decodeBody(r, &tier); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tier.Name == "" {
		respondError(w, http.StatusBadRequest, "Difficulty name is required")
		return
	}

	info, err := s.service.SaveDifficulty(r.Context(), tier)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	modes, err := s.service.ListModes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"modes": modes,
		"count": len(modes),
	})
}

// Profile Handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListProfiles(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"profiles": names,
		"count":    len(names),
	})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Profile name is required")
		return
	}

	p, err := s.service.CreateProfile(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetProfile(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"profile":            p,
		"average_moves":      p.Stats.AverageMoves(),
		"average_time_ms":    p.Stats.AverageTime().Milliseconds(),
		"best_time_ms":       p.Stats.BestTimeMillis,
		"best_score":         p.Stats.BestScore,
		"games_played":       p.Stats.GamesPlayed,
		"timed_games_played": p.Stats.TimedGamesPlayed,
	})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs service.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if prefs.Difficulty == nil && prefs.Mode == nil {
		respondError(w, http.StatusBadRequest, "Nothing to update: set preferred_difficulty or preferred_mode")
		return
	}

	p, err := s.service.UpdatePreferences(r.Context(), mux.Vars(r)["name"], prefs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.ProfileSession(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.service.DeleteProfile(r.Context(), name); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Profile %s deleted", name),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusNotImplemented)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID, info)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
