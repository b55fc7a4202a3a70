package engine

import "fmt"

// Player holds the per-session counters. Both only ever grow while a session
// is active; a new session starts with a new Player.
type Player struct {
	Score int `json:"score"`
	Moves int `json:"moves"`
}

// IncrementMoves counts one turn
func (p *Player) IncrementMoves() {
	p.Moves++
}

// IncrementScore adds delta to the score. A negative delta is a caller bug and panics.
func (p *Player) IncrementScore(delta int) {
	if delta < 0 {
		panic(fmt.Sprintf("engine: negative score delta %d", delta))
	}
	p.Score += delta
}
