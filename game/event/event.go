// Package event defines the notifications a game session emits and the
// ordered bus that delivers them.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/stats"
)

// Type identifies a kind of event
type Type string

const (
	SessionStarted Type = "session_started"
	SessionPaused  Type = "session_paused"
	SessionResumed Type = "session_resumed"
	SessionEnded   Type = "session_ended"
	MatchFound     Type = "match_found"
	TokenFlipped   Type = "token_flipped"
	HintUsed       Type = "hint_used"
)

// Event is a single notification from a session
type Event struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	TokenID   *int              `json:"token_id,omitempty"`
	Positions []engine.Position `json:"positions,omitempty"`
	Score     int               `json:"score"`
	Report    *stats.Report     `json:"report,omitempty"` // SessionEnded only
	Abandoned bool              `json:"abandoned,omitempty"`
}

// New creates an event stamped with a fresh ID and the given time
func New(typ Type, sessionID string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		SessionID: sessionID,
		Timestamp: at,
	}
}

// WithToken sets the token the event refers to
func (e Event) WithToken(id int) Event {
	e.TokenID = &id
	return e
}

// WithPositions sets the board positions the event refers to
func (e Event) WithPositions(positions ...engine.Position) Event {
	e.Positions = positions
	return e
}
