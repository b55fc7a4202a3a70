package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/event"
	"github.com/wricardo/mcp-training/pairmatch/game/stats"
	"github.com/wricardo/mcp-training/pairmatch/game/timer"
)

var (
	ErrInactiveSession = errors.New("session is not active")
	ErrSameToken       = errors.New("a turn needs two different tokens")
	ErrNoHints         = errors.New("no hints left")

	// ErrSessionPaused is an ErrInactiveSession: paused sessions reject play
	ErrSessionPaused = fmt.Errorf("%w: paused", ErrInactiveSession)
)

const (
	// DefaultTickInterval is how often a running session polls its timer for expiry
	DefaultTickInterval = 250 * time.Millisecond

	// Time allowed for a statistics sink to record a finished session
	reportTimeout = 5 * time.Second
)

// Status is the session lifecycle state
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusPaused
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusActive, StatusPaused, StatusEnded} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", text)
}

// Options configures a new Session
type Options struct {
	ID      string
	Profile string
	Tier    engine.Tier
	Mode    engine.Mode

	// Keys is the token set; when nil one is dealt from Rand
	Keys []string
	Rand *rand.Rand

	// Clock replaces wall time, mainly for tests
	Clock timer.Clock

	// TickInterval is the expiry poll period; zero means DefaultTickInterval
	// and a negative value disables background polling.
	TickInterval time.Duration

	// Sink receives the report of a finished session
	Sink stats.Sink
}

// Session is one play-through. Every mutation, including the background expiry
// check, runs under the session lock; events are published after it is released.
type Session struct {
	ID        string
	Profile   string
	CreatedAt time.Time

	tier engine.Tier
	mode engine.Mode
	now  timer.Clock

	mu           sync.Mutex
	board        *engine.Board
	player       engine.Player
	timer        *timer.Timer
	status       Status
	hintsLeft    int
	pending      *engine.Position // token turned up by Flip, waiting for its partner
	tickInterval time.Duration
	startedAt    time.Time
	endedAt      time.Time
	report       *stats.Report
	lastAccessed time.Time

	// publishMu keeps events in emission order across concurrent callers
	publishMu sync.Mutex
	bus       *event.Bus
}

// New builds a session in the Idle state. Nothing is returned on error.
func New(opts Options) (*Session, error) {
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", engine.ErrConfiguration, opts.Mode)
	}
	if err := engine.ValidateTier(&opts.Tier); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrConfiguration, err)
	}

	keys := opts.Keys
	if keys == nil {
		keys = engine.Deal(opts.Tier, opts.Rand)
	}
	board, err := engine.NewBoard(opts.Tier, keys)
	if err != nil {
		return nil, err
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	tick := opts.TickInterval
	if tick == 0 {
		tick = DefaultTickInterval
	}

	s := &Session{
		ID:           opts.ID,
		Profile:      opts.Profile,
		CreatedAt:    now(),
		tier:         opts.Tier,
		mode:         opts.Mode,
		now:          now,
		board:        board,
		timer:        opts.Mode.NewTimer(opts.Tier, timer.WithClock(now)),
		status:       StatusIdle,
		hintsLeft:    opts.Tier.Hints,
		tickInterval: tick,
		lastAccessed: now(),
		bus:          event.NewBus(),
	}

	if opts.Sink != nil {
		s.bus.Subscribe(reportTo(opts.Sink))
	}

	return s, nil
}

// Tier returns the session's difficulty tier
func (s *Session) Tier() engine.Tier {
	return s.tier
}

// Mode returns the session's mode
func (s *Session) Mode() engine.Mode {
	return s.mode
}

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Player returns a copy of the player counters
func (s *Session) Player() engine.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Report returns the final report once the session has ended normally
func (s *Session) Report() (stats.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return stats.Report{}, false
	}
	return *s.report, true
}

// State is a point-in-time view of a session, safe to hand to clients
type State struct {
	ID              string              `json:"id"`
	Profile         string              `json:"profile,omitempty"`
	Difficulty      string              `json:"difficulty"`
	Mode            engine.Mode         `json:"mode"`
	Status          Status              `json:"status"`
	Rows            int                 `json:"rows"`
	Cols            int                 `json:"cols"`
	Board           [][]engine.CellView `json:"board"`
	Score           int                 `json:"score"`
	Moves           int                 `json:"moves"`
	MatchedPairs    int                 `json:"matched_pairs"`
	TotalPairs      int                 `json:"total_pairs"`
	HintsLeft       int                 `json:"hints_left"`
	ElapsedMillis   int64               `json:"elapsed_millis"`
	RemainingMillis int64               `json:"remaining_millis,omitempty"` // Timed mode only
	GameOver        bool                `json:"game_over"`
	CreatedAt       time.Time           `json:"created_at"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	EndedAt         *time.Time          `json:"ended_at,omitempty"`
	Report          *stats.Report       `json:"report,omitempty"`
}

// Snapshot returns the current state with face-down keys hidden
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:            s.ID,
		Profile:       s.Profile,
		Difficulty:    s.tier.Name,
		Mode:          s.mode,
		Status:        s.status,
		Rows:          s.board.Rows(),
		Cols:          s.board.Cols(),
		Board:         s.board.View(),
		Score:         s.player.Score,
		Moves:         s.player.Moves,
		MatchedPairs:  s.board.MatchedPairs(),
		TotalPairs:    s.board.TotalPairs(),
		HintsLeft:     s.hintsLeft,
		ElapsedMillis: s.durationLocked().Milliseconds(),
		GameOver:      s.status == StatusEnded || s.mode.IsOver(s.board, s.timer),
		CreatedAt:     s.CreatedAt,
	}
	if remaining, err := s.timer.Remaining(); err == nil {
		state.RemainingMillis = remaining.Milliseconds()
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		state.StartedAt = &startedAt
	}
	if !s.endedAt.IsZero() {
		endedAt := s.endedAt
		state.EndedAt = &endedAt
	}
	if s.report != nil {
		report := *s.report
		state.Report = &report
	}
	return state
}

// Subscribe registers fn for this session's events; the returned func unsubscribes
func (s *Session) Subscribe(fn event.Subscriber) func() {
	return s.bus.Subscribe(fn)
}

// Touch records an access for expiry bookkeeping
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessed = s.now()
	s.mu.Unlock()
}

// LastAccessed returns the time of the last Touch
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Start begins play from Idle. Starting an active or paused session does
// nothing; an ended session cannot be restarted.
func (s *Session) Start() error {
	s.mu.Lock()

	switch s.status {
	case StatusActive, StatusPaused:
		s.mu.Unlock()
		return nil
	case StatusEnded:
		s.mu.Unlock()
		return ErrInactiveSession
	}

	s.report = nil
	s.startedAt = s.now()
	s.timer.Start()
	if s.tickInterval > 0 {
		s.timer.Watch(s.tickInterval, s.Tick)
	}
	s.status = StatusActive

	s.unlockAndPublish(s.newEvent(event.SessionStarted))
	return nil
}

// Pause freezes an active session. Anything else is ignored.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}

	s.status = StatusPaused
	s.timer.Pause()

	s.unlockAndPublish(s.newEvent(event.SessionPaused))
}

// Resume continues a paused session. Anything else is ignored.
func (s *Session) Resume() {
	s.mu.Lock()
	if s.status != StatusPaused {
		s.mu.Unlock()
		return
	}

	s.status = StatusActive
	s.timer.Resume()

	s.unlockAndPublish(s.newEvent(event.SessionResumed))
}

// Turn is the outcome of one turn
type Turn struct {
	Positions [2]engine.Position `json:"positions"`
	Matched   bool               `json:"matched"`
	First     engine.Token       `json:"first"`
	Second    engine.Token       `json:"second"`
	Award     int                `json:"award"`
	Ended     bool               `json:"ended"`
}

// ProcessTurn reveals the tokens at a and b and evaluates them as a pair.
// It reports whether they matched.
func (s *Session) ProcessTurn(a, b engine.Position) (bool, error) {
	turn, err := s.PlayTurn(a, b)
	return turn.Matched, err
}

// PlayTurn is ProcessTurn with the revealed tokens and the points earned.
// A rejected turn leaves the board and the player untouched.
func (s *Session) PlayTurn(a, b engine.Position) (Turn, error) {
	s.mu.Lock()

	if err := s.checkPlayableLocked(); err != nil {
		s.mu.Unlock()
		return Turn{}, err
	}
	if !s.board.InBounds(a) || !s.board.InBounds(b) {
		s.mu.Unlock()
		return Turn{}, fmt.Errorf("%w: (%d,%d) or (%d,%d)", engine.ErrInvalidPosition, a.Row, a.Col, b.Row, b.Col)
	}
	if a == b {
		s.mu.Unlock()
		return Turn{}, ErrSameToken
	}

	turn, events := s.playTurnLocked(a, b)
	s.unlockAndPublish(events...)
	return turn, nil
}

// Flip turns a single token face up as the first half of a turn. Flipping a
// second token plays the turn with both and returns it; until then at most one
// unmatched token is up. Flipping the waiting token again, or a matched one,
// changes nothing.
func (s *Session) Flip(pos engine.Position) (engine.Token, *Turn, error) {
	s.mu.Lock()

	if err := s.checkPlayableLocked(); err != nil {
		s.mu.Unlock()
		return engine.Token{}, nil, err
	}
	tok, ok := s.board.TokenAt(pos)
	if !ok {
		s.mu.Unlock()
		return engine.Token{}, nil, fmt.Errorf("%w: (%d,%d)", engine.ErrInvalidPosition, pos.Row, pos.Col)
	}
	if tok.Matched || (s.pending != nil && *s.pending == pos) {
		s.mu.Unlock()
		return tok, nil, nil
	}

	if s.pending == nil {
		tok, _ = s.board.Flip(pos)
		s.pending = &pos
		s.unlockAndPublish(s.newEvent(event.TokenFlipped).WithToken(tok.ID).WithPositions(pos))
		return tok, nil, nil
	}

	turn, events := s.playTurnLocked(*s.pending, pos)
	s.unlockAndPublish(events...)
	return turn.Second, &turn, nil
}

// playTurnLocked plays a validated turn. Any token left up by Flip that is
// not part of the turn goes back down first.
func (s *Session) playTurnLocked(a, b engine.Position) (Turn, []event.Event) {
	if s.pending != nil && *s.pending != a && *s.pending != b {
		s.board.Hide(*s.pending)
	}
	s.pending = nil

	var events []event.Event
	s.player.IncrementMoves()

	for _, pos := range []engine.Position{a, b} {
		if tok, _ := s.board.TokenAt(pos); !tok.FaceUp {
			flipped, _ := s.board.Flip(pos)
			events = append(events, s.newEvent(event.TokenFlipped).WithToken(flipped.ID).WithPositions(pos))
		}
	}

	turn := Turn{Positions: [2]engine.Position{a, b}}
	turn.First, _ = s.board.TokenAt(a)
	turn.Second, _ = s.board.TokenAt(b)

	before := s.board.MatchedPairs()
	turn.Matched = s.board.EvaluateMatch(a, b)

	switch {
	case turn.Matched && s.board.MatchedPairs() > before:
		turn.Award = s.tier.Scoring.Award(s.board.MatchedPairs(), s.player.Moves, s.durationLocked())
		turn.Award += s.mode.CompletionBonus(s.tier, s.board, s.timer)
		s.player.IncrementScore(turn.Award)
		turn.First.Matched, turn.Second.Matched = true, true
		events = append(events, s.newEvent(event.MatchFound).WithPositions(a, b))
	case !turn.Matched:
		s.board.Hide(a)
		s.board.Hide(b)
	}

	if s.mode.IsOver(s.board, s.timer) {
		events = append(events, s.endLocked()...)
		turn.Ended = true
	}
	return turn, events
}

// Hint spends one of the tier's hints to reveal where an unmatched pair is
func (s *Session) Hint() (engine.Position, engine.Position, error) {
	s.mu.Lock()

	if err := s.checkPlayableLocked(); err != nil {
		s.mu.Unlock()
		return engine.Position{}, engine.Position{}, err
	}
	if s.hintsLeft <= 0 {
		s.mu.Unlock()
		return engine.Position{}, engine.Position{}, ErrNoHints
	}

	a, b, ok := s.board.FindUnmatchedPair()
	if !ok {
		s.mu.Unlock()
		return engine.Position{}, engine.Position{}, ErrNoHints
	}
	s.hintsLeft--

	s.unlockAndPublish(s.newEvent(event.HintUsed).WithPositions(a, b))
	return a, b, nil
}

// End finishes the session and reports it. Calling End again does nothing.
func (s *Session) End() {
	s.mu.Lock()
	events := s.endLocked()
	s.unlockAndPublish(events...)
}

// Tick is the periodic expiry check. It shares the session lock with every
// other mutation, so it can never race a turn, a pause or End.
func (s *Session) Tick() {
	s.mu.Lock()

	var events []event.Event
	if s.status == StatusActive && s.mode.IsOver(s.board, s.timer) {
		events = s.endLocked()
	}

	s.unlockAndPublish(events...)
}

// IsGameOver applies the mode's end condition. An ended session is always over.
func (s *Session) IsGameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusEnded || s.mode.IsOver(s.board, s.timer)
}

// Abandon ends the session without reporting it, for restarts and exits
func (s *Session) Abandon() {
	s.mu.Lock()
	if s.status == StatusEnded {
		s.mu.Unlock()
		return
	}

	s.timer.Stop()
	s.timer.Reset()
	s.status = StatusEnded
	s.endedAt = s.now()

	ev := s.newEvent(event.SessionEnded)
	ev.Abandoned = true
	s.unlockAndPublish(ev)
}

// Close abandons the session if it is still live and waits for pending events
// to be delivered. It must not be called from an event subscriber.
func (s *Session) Close() {
	s.Abandon()
	s.publishMu.Lock()
	s.bus.Close()
	s.publishMu.Unlock()
}

// endLocked moves the session to Ended and returns the SessionEnded event.
// A session that never started ends without a report.
func (s *Session) endLocked() []event.Event {
	if s.status == StatusEnded {
		return nil
	}

	if s.status == StatusIdle {
		s.status = StatusEnded
		s.endedAt = s.now()
		ev := s.newEvent(event.SessionEnded)
		ev.Abandoned = true
		return []event.Event{ev}
	}

	s.timer.Stop()
	s.status = StatusEnded
	s.endedAt = s.now()

	report := stats.Report{
		Matches:        s.board.MatchedPairs(),
		Moves:          s.player.Moves,
		DurationMillis: s.durationLocked().Milliseconds(),
		Score:          s.player.Score,
		Timed:          s.mode.Timed(),
	}
	s.report = &report

	ev := s.newEvent(event.SessionEnded)
	ev.Report = &report
	return []event.Event{ev}
}

// durationLocked is the active play time: budget minus remaining for a
// countdown, elapsed time otherwise.
func (s *Session) durationLocked() time.Duration {
	if s.timer.Mode() == timer.Countdown {
		remaining, _ := s.timer.Remaining()
		return s.timer.Budget() - remaining
	}
	elapsed, _ := s.timer.Elapsed()
	return elapsed
}

func (s *Session) checkPlayableLocked() error {
	switch s.status {
	case StatusActive:
		return nil
	case StatusPaused:
		return ErrSessionPaused
	default:
		return ErrInactiveSession
	}
}

// newEvent stamps an event with the current score. Callers hold s.mu.
func (s *Session) newEvent(typ event.Type) event.Event {
	ev := event.New(typ, s.ID, s.now())
	ev.Score = s.player.Score
	return ev
}

// unlockAndPublish releases s.mu and hands events to the bus in order
func (s *Session) unlockAndPublish(events ...event.Event) {
	if len(events) == 0 {
		s.mu.Unlock()
		return
	}
	s.publishMu.Lock()
	s.mu.Unlock()
	s.bus.Publish(events...)
	s.publishMu.Unlock()
}

// reportTo forwards end-of-session reports to sink. Failures are logged and
// never affect the session.
func reportTo(sink stats.Sink) event.Subscriber {
	return func(ev event.Event) {
		if ev.Type != event.SessionEnded || ev.Report == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		if err := sink.RecordSession(ctx, *ev.Report); err != nil {
			log.Printf("Warning: Failed to record statistics for session %s: %v", ev.SessionID, err)
		}
	}
}
