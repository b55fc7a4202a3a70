package service

import (
	"context"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/event"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Lifecycle
	StartSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	PauseSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ResumeSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	EndSession(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game Operations
	ProcessTurn(ctx context.Context, sessionID string, first, second engine.Position) (*TurnResult, error)
	BulkTurns(ctx context.Context, sessionID string, turns []TurnRequest) (*BulkTurnResult, error)
	FlipToken(ctx context.Context, sessionID string, pos engine.Position) (*FlipResult, error)
	UseHint(ctx context.Context, sessionID string) (*HintResult, error)

	// Configuration
	ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error)
	SaveDifficulty(ctx context.Context, tier engine.Tier) (*DifficultyInfo, error)
	ListModes(ctx context.Context) ([]*ModeInfo, error)

	// Profiles
	CreateProfile(ctx context.Context, name string) (*profile.Profile, error)
	GetProfile(ctx context.Context, name string) (*profile.Profile, error)
	UpdatePreferences(ctx context.Context, name string, prefs Preferences) (*profile.Profile, error)
	ProfileSession(ctx context.Context, name string) (*SessionInfo, error)
	ListProfiles(ctx context.Context) ([]string, error)
	DeleteProfile(ctx context.Context, name string) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(opts session.Options) (*session.Session, error)
	Get(id string) (*session.Session, error)
	ForProfile(profile string) (*session.Session, error)
	List() []*session.Session
	Delete(id string) error
}

// ConfigManager resolves difficulty and mode names
type ConfigManager interface {
	Difficulty(name string) (engine.Tier, error)
	Mode(name string) (engine.Mode, error)
	SaveTier(tier engine.Tier) error
	ListDifficulties() []*DifficultyInfo
	ListModes() []*ModeInfo
}

// EventPublisher receives every event of every session the service creates,
// and a state snapshot after each operation that changes a session
type EventPublisher interface {
	Publish(ev event.Event)
	BroadcastState(sessionID string, state any)
}
