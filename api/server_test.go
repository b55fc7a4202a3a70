package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/service"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
	"github.com/wricardo/mcp-training/pairmatch/game/stats"
	"github.com/wricardo/mcp-training/pairmatch/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Lifecycle
	LifecycleFunc func(ctx context.Context, action, sessionID string) (*service.SessionInfo, error)

	// Game Operations
	ProcessTurnFunc func(ctx context.Context, sessionID string, first, second engine.Position) (*service.TurnResult, error)
	BulkTurnsFunc   func(ctx context.Context, sessionID string, turns []service.TurnRequest) (*service.BulkTurnResult, error)
	FlipTokenFunc   func(ctx context.Context, sessionID string, pos engine.Position) (*service.FlipResult, error)
	UseHintFunc     func(ctx context.Context, sessionID string) (*service.HintResult, error)

	// Configuration
	ListDifficultiesFunc func(ctx context.Context) ([]*service.DifficultyInfo, error)
	SaveDifficultyFunc   func(ctx context.Context, tier engine.Tier) (*service.DifficultyInfo, error)
	ListModesFunc        func(ctx context.Context) ([]*service.ModeInfo, error)

	// Profiles
	CreateProfileFunc     func(ctx context.Context, name string) (*profile.Profile, error)
	GetProfileFunc        func(ctx context.Context, name string) (*profile.Profile, error)
	UpdatePreferencesFunc func(ctx context.Context, name string, prefs service.Preferences) (*profile.Profile, error)
	ProfileSessionFunc    func(ctx context.Context, name string) (*service.SessionInfo, error)
	ListProfilesFunc      func(ctx context.Context) ([]string, error)
	DeleteProfileFunc     func(ctx context.Context, name string) error
}

func testInfo(id string) *service.SessionInfo {
	return &service.SessionInfo{
		State: session.State{
			ID:         id,
			Difficulty: "easy",
			Mode:       engine.ModeEndless,
			Rows:       4,
			Cols:       4,
			TotalPairs: 8,
			CreatedAt:  time.Now(),
		},
		LastAccessedAt: time.Now(),
	}
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return testInfo("test-session"), nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return testInfo(sessionID), nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Lifecycle
func (m *MockGameService) lifecycle(ctx context.Context, action, sessionID string, status session.Status) (*service.SessionInfo, error) {
	if m.LifecycleFunc != nil {
		return m.LifecycleFunc(ctx, action, sessionID)
	}
	info := testInfo(sessionID)
	info.Status = status
	return info, nil
}

func (m *MockGameService) StartSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return m.lifecycle(ctx, "start", sessionID, session.StatusActive)
}

func (m *MockGameService) PauseSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return m.lifecycle(ctx, "pause", sessionID, session.StatusPaused)
}

func (m *MockGameService) ResumeSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return m.lifecycle(ctx, "resume", sessionID, session.StatusActive)
}

func (m *MockGameService) EndSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return m.lifecycle(ctx, "end", sessionID, session.StatusEnded)
}

// Game Operations
func (m *MockGameService) ProcessTurn(ctx context.Context, sessionID string, first, second engine.Position) (*service.TurnResult, error) {
	if m.ProcessTurnFunc != nil {
		return m.ProcessTurnFunc(ctx, sessionID, first, second)
	}
	return &service.TurnResult{Session: testInfo(sessionID)}, nil
}

func (m *MockGameService) BulkTurns(ctx context.Context, sessionID string, turns []service.TurnRequest) (*service.BulkTurnResult, error) {
	if m.BulkTurnsFunc != nil {
		return m.BulkTurnsFunc(ctx, sessionID, turns)
	}
	return &service.BulkTurnResult{RequestedTurns: len(turns), Session: testInfo(sessionID)}, nil
}

func (m *MockGameService) FlipToken(ctx context.Context, sessionID string, pos engine.Position) (*service.FlipResult, error) {
	if m.FlipTokenFunc != nil {
		return m.FlipTokenFunc(ctx, sessionID, pos)
	}
	return &service.FlipResult{Position: pos, Session: testInfo(sessionID)}, nil
}

func (m *MockGameService) UseHint(ctx context.Context, sessionID string) (*service.HintResult, error) {
	if m.UseHintFunc != nil {
		return m.UseHintFunc(ctx, sessionID)
	}
	return &service.HintResult{}, nil
}

// Configuration
func (m *MockGameService) ListDifficulties(ctx context.Context) ([]*service.DifficultyInfo, error) {
	if m.ListDifficultiesFunc != nil {
		return m.ListDifficultiesFunc(ctx)
	}
	return []*service.DifficultyInfo{}, nil
}

func (m *MockGameService) SaveDifficulty(ctx context.Context, tier engine.Tier) (*service.DifficultyInfo, error) {
	if m.SaveDifficultyFunc != nil {
		return m.SaveDifficultyFunc(ctx, tier)
	}
	return &service.DifficultyInfo{Name: tier.Name, Rows: tier.Rows, Cols: tier.Cols, Pairs: tier.TotalPairs()}, nil
}

func (m *MockGameService) ListModes(ctx context.Context) ([]*service.ModeInfo, error) {
	if m.ListModesFunc != nil {
		return m.ListModesFunc(ctx)
	}
	return []*service.ModeInfo{}, nil
}

// Profiles
func (m *MockGameService) CreateProfile(ctx context.Context, name string) (*profile.Profile, error) {
	if m.CreateProfileFunc != nil {
		return m.CreateProfileFunc(ctx, name)
	}
	return profile.New(name, time.Now())
}

func (m *MockGameService) GetProfile(ctx context.Context, name string) (*profile.Profile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, name)
	}
	return profile.New(name, time.Now())
}

func (m *MockGameService) UpdatePreferences(ctx context.Context, name string, prefs service.Preferences) (*profile.Profile, error) {
	if m.UpdatePreferencesFunc != nil {
		return m.UpdatePreferencesFunc(ctx, name, prefs)
	}
	return profile.New(name, time.Now())
}

func (m *MockGameService) ProfileSession(ctx context.Context, name string) (*service.SessionInfo, error) {
	if m.ProfileSessionFunc != nil {
		return m.ProfileSessionFunc(ctx, name)
	}
	info := testInfo("live")
	info.Profile = name
	return info, nil
}

func (m *MockGameService) ListProfiles(ctx context.Context) ([]string, error) {
	if m.ListProfilesFunc != nil {
		return m.ListProfilesFunc(ctx)
	}
	return nil, nil
}

func (m *MockGameService) DeleteProfile(ctx context.Context, name string) error {
	if m.DeleteProfileFunc != nil {
		return m.DeleteProfileFunc(ctx, name)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with defaults",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					if req.Difficulty != "" || req.Mode != "" {
						t.Errorf("Expected empty request, got %+v", req)
					}
					return testInfo("a1b2"), nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "a1b2" {
					t.Errorf("Expected session ID a1b2, got %s", resp.ID)
				}
				if resp.Status != session.StatusIdle {
					t.Errorf("Expected idle status, got %s", resp.Status)
				}
			},
		},
		{
			name: "Create session with profile, difficulty and mode",
			requestBody: map[string]any{
				"profile":    "ada",
				"difficulty": "hard",
				"mode":       "timed",
				"auto_start": true,
			},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					want := service.CreateSessionRequest{Profile: "ada", Difficulty: "hard", Mode: "timed", AutoStart: true}
					if req != want {
						t.Errorf("Expected %+v, got %+v", want, req)
					}
					return testInfo("c3d4"), nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed body",
			requestBody:    "not-an-object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Unknown difficulty",
			requestBody: map[string]string{"difficulty": "impossible"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: unknown difficulty %q", engine.ErrConfiguration, req.Difficulty)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid profile name",
			requestBody: map[string]string{"profile": "no spaces"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, profile.ErrInvalidName
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := serve(server, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		a, b, c := testInfo("aaaa"), testInfo("bbbb"), testInfo("cccc")
		a.CreatedAt, a.LastAccessedAt = now.Add(-3*time.Minute), now.Add(-1*time.Minute)
		b.CreatedAt, b.LastAccessedAt = now.Add(-2*time.Minute), now.Add(-3*time.Minute)
		c.CreatedAt, c.LastAccessedAt = now.Add(-1*time.Minute), now.Add(-2*time.Minute)
		a.Profile, b.Profile = "ada", "grace"
		return []*service.SessionInfo{a, b, c}
	}

	tests := []struct {
		name     string
		query    string
		expected []string
		total    int
	}{
		{"default sorts by last access, newest first", "", []string{"aaaa", "cccc", "bbbb"}, 3},
		{"sort by creation ascending", "?sort=created&order=asc", []string{"aaaa", "bbbb", "cccc"}, 3},
		{"limit", "?sort=created&limit=2", []string{"cccc", "bbbb"}, 3},
		{"filter by profile", "?profile=GRACE", []string{"bbbb"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			server := setupTestServer(t, mockService)
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.total {
				t.Errorf("Expected total %d, got %d", tt.total, resp.Total)
			}
			if resp.Count != len(tt.expected) {
				t.Fatalf("Expected count %d, got %d", len(tt.expected), resp.Count)
			}
			for i, id := range tt.expected {
				if resp.Sessions[i].ID != id {
					t.Errorf("Expected session %d to be %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}

	t.Run("Handle service error", func(t *testing.T) {
		mockService := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		w := serve(setupTestServer(t, mockService), makeRequest("GET", "/api/sessions", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "a1b2" {
				return nil, fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
			}
			return testInfo(sessionID), nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("existing session", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/sessions/a1b2", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp service.SessionInfo
		parseResponse(t, w, &resp)
		if resp.ID != "a1b2" || resp.TotalPairs != 8 {
			t.Errorf("Unexpected session: %+v", resp.State)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/sessions/zzzz", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
		var resp map[string]string
		parseResponse(t, w, &resp)
		if !strings.Contains(resp["error"], "session not found") {
			t.Errorf("Expected not-found error, got %q", resp["error"])
		}
	})
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "gone" {
				return session.ErrSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(server, makeRequest("DELETE", "/api/sessions/a1b2", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "a1b2" {
		t.Errorf("Expected a1b2 to be deleted, got %q", deleted)
	}

	w = serve(server, makeRequest("DELETE", "/api/sessions/gone", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Lifecycle Tests

func TestLifecycle(t *testing.T) {
	tests := []struct {
		action         string
		err            error
		expectedStatus int
		expectedState  session.Status
	}{
		{"start", nil, http.StatusOK, session.StatusActive},
		{"pause", nil, http.StatusOK, session.StatusPaused},
		{"resume", nil, http.StatusOK, session.StatusActive},
		{"end", nil, http.StatusOK, session.StatusEnded},
		{"start", session.ErrInactiveSession, http.StatusConflict, 0},
		{"pause", session.ErrSessionNotFound, http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.action, tt.err), func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.err != nil {
				mockService.LifecycleFunc = func(ctx context.Context, action, sessionID string) (*service.SessionInfo, error) {
					if action != tt.action {
						t.Errorf("Expected action %s, got %s", tt.action, action)
					}
					return nil, tt.err
				}
			}
			server := setupTestServer(t, mockService)

			w := serve(server, makeRequest("POST", "/api/sessions/a1b2/"+tt.action, nil))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.err != nil {
				return
			}

			var resp service.SessionInfo
			parseResponse(t, w, &resp)
			if resp.Status != tt.expectedState {
				t.Errorf("Expected status %s, got %s", tt.expectedState, resp.Status)
			}
		})
	}
}

// Game Operation Tests

func TestTurn(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "matching turn",
			body:           map[string]any{"first": map[string]int{"row": 0, "col": 0}, "second": map[string]int{"row": 0, "col": 1}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing body",
			body:           nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "same token twice",
			body:           service.TurnRequest{},
			serviceErr:     session.ErrSameToken,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "out of range",
			body:           service.TurnRequest{Second: engine.Position{Row: 9, Col: 9}},
			serviceErr:     fmt.Errorf("%w: (9,9)", engine.ErrInvalidPosition),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "paused session",
			body:           service.TurnRequest{Second: engine.Position{Col: 1}},
			serviceErr:     session.ErrSessionPaused,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "ended session",
			body:           service.TurnRequest{Second: engine.Position{Col: 1}},
			serviceErr:     session.ErrInactiveSession,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ProcessTurnFunc: func(ctx context.Context, sessionID string, first, second engine.Position) (*service.TurnResult, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					if first != (engine.Position{Row: 0, Col: 0}) || second != (engine.Position{Row: 0, Col: 1}) {
						t.Errorf("Unexpected positions %v %v", first, second)
					}
					return &service.TurnResult{
						Matched: true,
						First:   engine.Token{ID: 0, Key: "k0", Matched: true},
						Second:  engine.Token{ID: 1, Key: "k0", Matched: true},
						Award:   10,
						Message: "Match!",
						Session: testInfo(sessionID),
					}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := serve(server, makeRequest("POST", "/api/sessions/a1b2/turn", tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp service.TurnResult
			parseResponse(t, w, &resp)
			if !resp.Matched || resp.Award != 10 {
				t.Errorf("Unexpected turn result: %+v", resp)
			}
		})
	}
}

func TestBulkTurns(t *testing.T) {
	mockService := &MockGameService{
		BulkTurnsFunc: func(ctx context.Context, sessionID string, turns []service.TurnRequest) (*service.BulkTurnResult, error) {
			return &service.BulkTurnResult{
				RequestedTurns: len(turns),
				TurnsExecuted:  len(turns),
				Matches:        1,
				Session:        testInfo(sessionID),
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("plays the turns", func(t *testing.T) {
		body := map[string]any{"turns": []service.TurnRequest{
			{First: engine.Position{Col: 0}, Second: engine.Position{Col: 1}},
			{First: engine.Position{Col: 2}, Second: engine.Position{Col: 3}},
		}}
		w := serve(server, makeRequest("POST", "/api/sessions/a1b2/bulk-turns", body))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp service.BulkTurnResult
		parseResponse(t, w, &resp)
		if resp.RequestedTurns != 2 || resp.TurnsExecuted != 2 {
			t.Errorf("Unexpected bulk result: %+v", resp)
		}
	})

	t.Run("empty turns", func(t *testing.T) {
		w := serve(server, makeRequest("POST", "/api/sessions/a1b2/bulk-turns", map[string]any{"turns": []any{}}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestFlipAndHint(t *testing.T) {
	mockService := &MockGameService{
		FlipTokenFunc: func(ctx context.Context, sessionID string, pos engine.Position) (*service.FlipResult, error) {
			return &service.FlipResult{
				Position: pos,
				Token:    engine.Token{ID: pos.Row*4 + pos.Col, Key: "k3", FaceUp: true},
				Session:  testInfo(sessionID),
			}, nil
		},
		UseHintFunc: func(ctx context.Context, sessionID string) (*service.HintResult, error) {
			if sessionID == "spent" {
				return nil, session.ErrNoHints
			}
			return &service.HintResult{
				First:     engine.Position{Row: 1, Col: 1},
				Second:    engine.Position{Row: 2, Col: 3},
				HintsLeft: 2,
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(server, makeRequest("POST", "/api/sessions/a1b2/flip", engine.Position{Row: 1, Col: 2}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var flip service.FlipResult
	parseResponse(t, w, &flip)
	if flip.Token.ID != 6 || flip.Token.Key != "k3" {
		t.Errorf("Unexpected flip result: %+v", flip)
	}

	w = serve(server, makeRequest("POST", "/api/sessions/a1b2/hint", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var hint service.HintResult
	parseResponse(t, w, &hint)
	if hint.HintsLeft != 2 {
		t.Errorf("Expected 2 hints left, got %d", hint.HintsLeft)
	}

	w = serve(server, makeRequest("POST", "/api/sessions/spent/hint", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

// Configuration Tests

func TestListDifficultiesAndModes(t *testing.T) {
	mockService := &MockGameService{
		ListDifficultiesFunc: func(ctx context.Context) ([]*service.DifficultyInfo, error) {
			return []*service.DifficultyInfo{
				{Name: "easy", Rows: 4, Cols: 4, Pairs: 8, Source: "builtin"},
				{Name: "hard", Rows: 6, Cols: 6, Pairs: 18, Source: "builtin"},
			}, nil
		},
		ListModesFunc: func(ctx context.Context) ([]*service.ModeInfo, error) {
			return []*service.ModeInfo{
				{Name: engine.ModeEndless},
				{Name: engine.ModeTimed, Timed: true},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(server, makeRequest("GET", "/api/difficulties", nil))
	var difficulties struct {
		Count        int                       `json:"count"`
		Difficulties []*service.DifficultyInfo `json:"difficulties"`
	}
	parseResponse(t, w, &difficulties)
	if difficulties.Count != 2 || difficulties.Difficulties[1].Pairs != 18 {
		t.Errorf("Unexpected difficulties: %+v", difficulties)
	}

	w = serve(server, makeRequest("GET", "/api/modes", nil))
	var modes struct {
		Count int                 `json:"count"`
		Modes []*service.ModeInfo `json:"modes"`
	}
	parseResponse(t, w, &modes)
	if modes.Count != 2 || !modes.Modes[1].Timed {
		t.Errorf("Unexpected modes: %+v", modes)
	}
}

func TestSaveDifficulty(t *testing.T) {
	var saved engine.Tier
	mockService := &MockGameService{
		SaveDifficultyFunc: func(ctx context.Context, tier engine.Tier) (*service.DifficultyInfo, error) {
			if tier.Rows*tier.Cols%2 != 0 {
				return nil, fmt.Errorf("%w: odd board", engine.ErrConfiguration)
			}
			saved = tier
			return &service.DifficultyInfo{Name: tier.Name, Rows: tier.Rows, Cols: tier.Cols, Pairs: tier.TotalPairs()}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tier, _ := engine.DefaultTier(engine.DifficultyEasy)
	tier.Name = "tiny"
	tier.Rows, tier.Cols = 2, 2

	w := serve(server, makeRequest("POST", "/api/difficulties", tier))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var info service.DifficultyInfo
	parseResponse(t, w, &info)
	if info.Name != "tiny" || info.Pairs != 2 || saved.Scoring != tier.Scoring {
		t.Errorf("Unexpected saved tier %+v / %+v", info, saved)
	}

	tier.Rows = 3
	tier.Cols = 3
	if w := serve(server, makeRequest("POST", "/api/difficulties", tier)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an invalid tier, got %d", w.Code)
	}
	if w := serve(server, makeRequest("POST", "/api/difficulties", map[string]any{"rows": 2})); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a name, got %d", w.Code)
	}
}

// Profile Tests

func TestProfiles(t *testing.T) {
	existing, _ := profile.New("ada", time.Now())
	existing.Stats.Record(stats.Report{Matches: 8, Moves: 10, DurationMillis: 30000, Score: 95})

	mockService := &MockGameService{
		CreateProfileFunc: func(ctx context.Context, name string) (*profile.Profile, error) {
			if strings.EqualFold(name, "ada") {
				return nil, profile.ErrProfileExists
			}
			return profile.New(name, time.Now())
		},
		GetProfileFunc: func(ctx context.Context, name string) (*profile.Profile, error) {
			if !strings.EqualFold(name, "ada") {
				return nil, profile.ErrProfileNotFound
			}
			return existing, nil
		},
		ListProfilesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"ada"}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"create", "POST", "/api/profiles", map[string]string{"name": "grace"}, http.StatusCreated},
		{"create duplicate", "POST", "/api/profiles", map[string]string{"name": "Ada"}, http.StatusConflict},
		{"create without name", "POST", "/api/profiles", map[string]string{}, http.StatusBadRequest},
		{"get", "GET", "/api/profiles/ada", nil, http.StatusOK},
		{"get missing", "GET", "/api/profiles/nobody", nil, http.StatusNotFound},
		{"list", "GET", "/api/profiles", nil, http.StatusOK},
		{"delete", "DELETE", "/api/profiles/ada", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest(tt.method, tt.path, tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	t.Run("get reports aggregates", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/profiles/ada", nil))
		var resp map[string]any
		parseResponse(t, w, &resp)
		if resp["games_played"].(float64) != 1 {
			t.Errorf("Expected 1 game played, got %v", resp["games_played"])
		}
		if resp["average_moves"].(float64) != 10 {
			t.Errorf("Expected average moves 10, got %v", resp["average_moves"])
		}
		if resp["best_score"].(float64) != 95 {
			t.Errorf("Expected best score 95, got %v", resp["best_score"])
		}
	})

	t.Run("update preferences", func(t *testing.T) {
		var got service.Preferences
		prefs := setupTestServer(t, &MockGameService{
			UpdatePreferencesFunc: func(ctx context.Context, name string, p service.Preferences) (*profile.Profile, error) {
				got = p
				updated, _ := profile.New(name, time.Now())
				if p.Difficulty != nil {
					updated.PreferredDifficulty = *p.Difficulty
				}
				return updated, nil
			},
		})

		w := serve(prefs, makeRequest("PATCH", "/api/profiles/ada", map[string]string{"preferred_difficulty": "hard"}))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var p profile.Profile
		parseResponse(t, w, &p)
		if p.PreferredDifficulty != "hard" || got.Mode != nil {
			t.Errorf("Expected only the difficulty set, got %+v", got)
		}

		w = serve(prefs, makeRequest("PATCH", "/api/profiles/ada", map[string]string{}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for an empty update, got %d", w.Code)
		}
	})

	t.Run("profile session", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/profiles/ada/session", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var info service.SessionInfo
		parseResponse(t, w, &info)
		if info.ID != "live" || info.Profile != "ada" {
			t.Errorf("Unexpected session %+v", info.State)
		}

		none := setupTestServer(t, &MockGameService{
			ProfileSessionFunc: func(ctx context.Context, name string) (*service.SessionInfo, error) {
				return nil, fmt.Errorf("profile %s: %w", name, session.ErrSessionNotFound)
			},
		})
		if w := serve(none, makeRequest("GET", "/api/profiles/ada/session", nil)); w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("profiles disabled", func(t *testing.T) {
		disabled := setupTestServer(t, &MockGameService{
			ListProfilesFunc: func(ctx context.Context) ([]string, error) {
				return nil, service.ErrProfilesDisabled
			},
		})
		w := serve(disabled, makeRequest("GET", "/api/profiles", nil))
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Expected status 501, got %d", w.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session x: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{profile.ErrProfileNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: tier", engine.ErrConfiguration), http.StatusBadRequest},
		{session.ErrInvalidSessionID, http.StatusBadRequest},
		{session.ErrSessionAlreadyExists, http.StatusConflict},
		{session.ErrNoHints, http.StatusConflict},
		{session.ErrSessionPaused, http.StatusConflict},
		{fmt.Errorf("%w: disk full", profile.ErrPersistence), http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	w := serve(setupTestServer(t, &MockGameService{}), makeRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "a1b2" {
				return nil, session.ErrSessionNotFound
			}
			return testInfo(sessionID), nil
		},
	}
	server := setupTestServer(t, mockService)
	ts := httptest.NewServer(server)
	defer ts.Close()

	t.Run("missing session parameter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws?session=zzzz")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", resp.StatusCode)
		}
	})

	t.Run("receives initial state", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=a1b2"
		conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Failed to dial: %v", err)
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			SessionID string              `json:"session_id"`
			Event     string              `json:"event"`
			Data      service.SessionInfo `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		if msg.Event != websocket.EventStateUpdate || msg.Data.ID != "a1b2" {
			t.Errorf("Unexpected initial message: %+v", msg)
		}
	})
}
