package engine

import (
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/timer"
)

// Mode is the closed set of session variants. It decides the timer kind, the
// end condition and the scoring adjustment layered on the tier formula.
type Mode string

const (
	// ModeEndless ends only when the board is complete or the player stops
	ModeEndless Mode = "endless"
	// ModeTimed also ends when the countdown expires
	ModeTimed Mode = "timed"
)

// Modes returns every supported mode
func Modes() []Mode {
	return []Mode{ModeEndless, ModeTimed}
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeEndless, ModeTimed:
		return true
	default:
		return false
	}
}

// Timed reports whether sessions in this mode run against a countdown
func (m Mode) Timed() bool {
	return m == ModeTimed
}

// Description is a short human-readable summary
func (m Mode) Description() string {
	switch m {
	case ModeTimed:
		return "Find every pair before the countdown runs out; time left is a bonus"
	case ModeEndless:
		return "No time limit; the game ends when every pair is found"
	default:
		return ""
	}
}

// TimerMode returns the timer kind a session of this mode uses
func (m Mode) TimerMode() timer.Mode {
	if m == ModeTimed {
		return timer.Countdown
	}
	return timer.Elapsed
}

// NewTimer builds the timer for a session of this mode and tier
func (m Mode) NewTimer(tier Tier, opts ...timer.Option) *timer.Timer {
	var budget time.Duration
	if m == ModeTimed {
		budget = tier.TimeBudget()
	}
	return timer.New(m.TimerMode(), budget, opts...)
}

// IsOver is the end condition of the mode
func (m Mode) IsOver(board *Board, t *timer.Timer) bool {
	switch m {
	case ModeTimed:
		return board.IsComplete() || t.IsExpired()
	default:
		return board.IsComplete()
	}
}

// CompletionBonus is the mode's adjustment on top of the tier formula. Timed
// sessions earn TimeBonusPerSecond for every whole second left when the last
// pair is found.
func (m Mode) CompletionBonus(tier Tier, board *Board, t *timer.Timer) int {
	if m != ModeTimed || !board.IsComplete() {
		return 0
	}
	remaining, err := t.Remaining()
	if err != nil {
		return 0
	}
	return int(remaining/time.Second) * tier.Scoring.TimeBonusPerSecond
}
