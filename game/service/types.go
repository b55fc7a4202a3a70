package service

import (
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
)

// CreateSessionRequest selects the profile, difficulty and mode of a new session.
// Empty fields fall back to the service defaults.
type CreateSessionRequest struct {
	Profile    string `json:"profile,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Mode       string `json:"mode,omitempty"`
	AutoStart  bool   `json:"auto_start,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	session.State
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// TurnRequest names the two positions of one turn
type TurnRequest struct {
	First  engine.Position `json:"first"`
	Second engine.Position `json:"second"`
}

// TurnResult contains the result of a turn
type TurnResult struct {
	Matched bool         `json:"matched"`
	First   engine.Token `json:"first"`
	Second  engine.Token `json:"second"`
	Award   int          `json:"award"`
	Message string       `json:"message"`
	Session *SessionInfo `json:"session"`
}

// BulkTurnResult contains the result of several turns played in order
type BulkTurnResult struct {
	RequestedTurns int           `json:"requested_turns"`
	TurnsExecuted  int           `json:"turns_executed"`
	Matches        int           `json:"matches"`
	ScoreDelta     int           `json:"score_delta"`
	Turns          []TurnOutcome `json:"turns"`
	StoppedReason  string        `json:"stopped_reason,omitempty"`
	StoppedOnTurn  int           `json:"stopped_on_turn,omitempty"` // 1-based
	Truncated      bool          `json:"truncated,omitempty"`
	Limit          int           `json:"limit,omitempty"`
	Session        *SessionInfo  `json:"session"`
}

// TurnOutcome is a compact record of one turn in a bulk call
type TurnOutcome struct {
	Idx     int             `json:"idx"`
	First   engine.Position `json:"first"`
	Second  engine.Position `json:"second"`
	Keys    [2]string       `json:"keys"`
	Matched bool            `json:"matched"`
	Award   int             `json:"award,omitempty"`
}

// FlipResult contains a revealed token. Turn is set when the flip was the
// second of a turn and the pair was evaluated.
type FlipResult struct {
	Position engine.Position `json:"position"`
	Token    engine.Token    `json:"token"`
	Turn     *TurnOutcome    `json:"turn,omitempty"`
	Message  string          `json:"message"`
	Session  *SessionInfo    `json:"session"`
}

// Preferences updates a profile's defaults for new sessions. Nil fields are
// left alone; an empty string clears the preference.
type Preferences struct {
	Difficulty *string `json:"preferred_difficulty,omitempty"`
	Mode       *string `json:"preferred_mode,omitempty"`
}

// HintResult points at an unmatched pair
type HintResult struct {
	First     engine.Position `json:"first"`
	Second    engine.Position `json:"second"`
	HintsLeft int             `json:"hints_left"`
}

// DifficultyInfo describes an available difficulty
type DifficultyInfo struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Rows              int    `json:"rows"`
	Cols              int    `json:"cols"`
	Pairs             int    `json:"pairs"`
	TimeBudgetSeconds int    `json:"time_budget_seconds"`
	Hints             int    `json:"hints"`
	Source            string `json:"source"` // "builtin" or the file it was loaded from
}

// ModeInfo describes an available mode
type ModeInfo struct {
	Name        engine.Mode `json:"name"`
	Description string      `json:"description"`
	Timed       bool        `json:"timed"`
}
