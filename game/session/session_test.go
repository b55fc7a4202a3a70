package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/event"
	"github.com/wricardo/mcp-training/pairmatch/game/stats"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingSink captures every report it receives
type recordingSink struct {
	mu      sync.Mutex
	reports []stats.Report
	err     error
}

func (s *recordingSink) RecordSession(ctx context.Context, report stats.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

func (s *recordingSink) Reports() []stats.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stats.Report(nil), s.reports...)
}

// recordEvents collects a session's events; read them after Close
func recordEvents(sess *Session) *[]event.Event {
	var events []event.Event
	sess.Subscribe(func(ev event.Event) {
		events = append(events, ev)
	})
	return &events
}

func eventTypes(events []event.Event) []event.Type {
	types := make([]event.Type, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func easyTier(t *testing.T) engine.Tier {
	t.Helper()
	tier, ok := engine.DefaultTier(engine.DifficultyEasy)
	if !ok {
		t.Fatal("Expected built-in easy tier")
	}
	return tier
}

// orderedKeys lays pairs out side by side, row-major
func orderedKeys(tier engine.Tier) []string {
	keys := make([]string, 0, tier.Size())
	for i := 0; i < tier.TotalPairs(); i++ {
		key := fmt.Sprintf("k%d", i)
		keys = append(keys, key, key)
	}
	return keys
}

func pairPositions(tier engine.Tier, i int) (engine.Position, engine.Position) {
	a, b := 2*i, 2*i+1
	return engine.Position{Row: a / tier.Cols, Col: a % tier.Cols},
		engine.Position{Row: b / tier.Cols, Col: b % tier.Cols}
}

func newTestSession(t *testing.T, tier engine.Tier, mode engine.Mode, clock *fakeClock, sink stats.Sink) *Session {
	t.Helper()
	sess, err := New(Options{
		ID:           "test",
		Profile:      "ada",
		Tier:         tier,
		Mode:         mode,
		Keys:         orderedKeys(tier),
		Clock:        clock.Now,
		TickInterval: -1,
		Sink:         sink,
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return sess
}

func TestNew(t *testing.T) {
	tier := easyTier(t)

	t.Run("starts idle", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()

		if sess.Status() != StatusIdle {
			t.Errorf("Expected idle session, got %s", sess.Status())
		}
		state := sess.Snapshot()
		if state.HintsLeft != tier.Hints {
			t.Errorf("Expected %d hints, got %d", tier.Hints, state.HintsLeft)
		}
		if state.TotalPairs != 8 {
			t.Errorf("Expected 8 pairs, got %d", state.TotalPairs)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(Options{Tier: tier, Mode: "sudden-death"})
		if !errors.Is(err, engine.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("invalid tier", func(t *testing.T) {
		bad := tier
		bad.Rows = 3
		bad.Cols = 3
		_, err := New(Options{Tier: bad, Mode: engine.ModeEndless})
		if !errors.Is(err, engine.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("token set size mismatch", func(t *testing.T) {
		_, err := New(Options{Tier: tier, Mode: engine.ModeEndless, Keys: []string{"a", "a"}})
		if !errors.Is(err, engine.ErrSizeMismatch) {
			t.Errorf("Expected ErrSizeMismatch, got %v", err)
		}
	})

	t.Run("deals keys when none are given", func(t *testing.T) {
		sess, err := New(Options{Tier: tier, Mode: engine.ModeEndless, TickInterval: -1})
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		defer sess.Close()
		if sess.Snapshot().TotalPairs != tier.TotalPairs() {
			t.Error("Expected a full board to be dealt")
		}
	})
}

func TestSession_EndlessCompletion(t *testing.T) {
	tier := easyTier(t)
	clock := newFakeClock()
	sink := &recordingSink{}
	sess := newTestSession(t, tier, engine.ModeEndless, clock, sink)
	events := recordEvents(sess)

	if err := sess.Start(); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}

	for i := 0; i < tier.TotalPairs(); i++ {
		clock.Advance(time.Second)
		a, b := pairPositions(tier, i)
		matched, err := sess.ProcessTurn(a, b)
		if err != nil {
			t.Fatalf("Turn %d failed: %v", i, err)
		}
		if !matched {
			t.Fatalf("Turn %d: expected a match", i)
		}
	}

	if sess.Status() != StatusEnded {
		t.Fatalf("Expected session to end on completion, got %s", sess.Status())
	}
	if !sess.IsGameOver() {
		t.Error("Expected game over")
	}

	player := sess.Player()
	if player.Moves != 8 {
		t.Errorf("Expected 8 moves, got %d", player.Moves)
	}

	sess.Close()

	reports := sink.Reports()
	if len(reports) != 1 {
		t.Fatalf("Expected exactly one report, got %d", len(reports))
	}
	report := reports[0]
	if report.Matches != 8 || report.Moves != 8 {
		t.Errorf("Expected 8 matches in 8 moves, got %+v", report)
	}
	if report.Timed {
		t.Error("Endless session reported as timed")
	}
	if report.Duration() != 8*time.Second {
		t.Errorf("Expected 8s duration, got %v", report.Duration())
	}
	if report.Score != player.Score || report.Score <= 0 {
		t.Errorf("Expected report score %d to equal positive player score", report.Score)
	}

	matches := 0
	for _, ev := range *events {
		if ev.Type == event.MatchFound {
			matches++
		}
	}
	if matches != 8 {
		t.Errorf("Expected 8 match events, got %d", matches)
	}
	last := (*events)[len(*events)-1]
	if last.Type != event.SessionEnded || last.Report == nil || last.Abandoned {
		t.Errorf("Expected a reported session_ended event last, got %+v", last)
	}
}

func TestSession_TimedExpiry(t *testing.T) {
	tier := easyTier(t)
	tier.TimeBudgetSeconds = 60
	clock := newFakeClock()
	sink := &recordingSink{}
	sess := newTestSession(t, tier, engine.ModeTimed, clock, sink)

	sess.Start()

	clock.Advance(30 * time.Second)
	sess.Tick()
	if sess.Status() != StatusActive {
		t.Fatalf("Expected session still active at 30s, got %s", sess.Status())
	}
	if got := sess.Snapshot().RemainingMillis; got != 30000 {
		t.Errorf("Expected 30000ms remaining, got %d", got)
	}

	clock.Advance(31 * time.Second)
	sess.Tick()
	sess.Tick()

	if sess.Status() != StatusEnded {
		t.Fatalf("Expected session to end on expiry, got %s", sess.Status())
	}

	sess.Close()

	reports := sink.Reports()
	if len(reports) != 1 {
		t.Fatalf("Expected exactly one report, got %d", len(reports))
	}
	if !reports[0].Timed {
		t.Error("Expected timed report")
	}
	if reports[0].Duration() != 60*time.Second {
		t.Errorf("Expected duration equal to the budget, got %v", reports[0].Duration())
	}
}

func TestSession_TimedCompletionBonus(t *testing.T) {
	tier := easyTier(t)
	clock := newFakeClock()
	sess := newTestSession(t, tier, engine.ModeTimed, clock, nil)
	defer sess.Close()

	endless := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
	defer endless.Close()

	sess.Start()
	endless.Start()
	for i := 0; i < tier.TotalPairs(); i++ {
		a, b := pairPositions(tier, i)
		sess.ProcessTurn(a, b)
		endless.ProcessTurn(a, b)
	}

	// The full budget is left, worth TimeBonusPerSecond per second
	bonus := tier.TimeBudgetSeconds * tier.Scoring.TimeBonusPerSecond
	if got, want := sess.Player().Score, endless.Player().Score+bonus; got != want {
		t.Errorf("Expected timed score %d, got %d", want, got)
	}
}

func TestSession_TurnBeforeStart(t *testing.T) {
	tier := easyTier(t)
	sink := &recordingSink{}
	sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), sink)
	events := recordEvents(sess)

	a, b := pairPositions(tier, 0)
	matched, err := sess.ProcessTurn(a, b)
	if !errors.Is(err, ErrInactiveSession) {
		t.Fatalf("Expected ErrInactiveSession, got %v", err)
	}
	if matched {
		t.Error("Rejected turn reported a match")
	}

	state := sess.Snapshot()
	if state.Moves != 0 || state.Score != 0 || state.MatchedPairs != 0 {
		t.Errorf("Rejected turn changed the session: %+v", state)
	}
	for _, row := range state.Board {
		for _, cell := range row {
			if cell.FaceUp || cell.Matched {
				t.Fatalf("Rejected turn revealed a token: %+v", cell)
			}
		}
	}

	sess.Close()
	if len(*events) != 1 || (*events)[0].Type != event.SessionEnded || !(*events)[0].Abandoned {
		t.Errorf("Expected only the abandon event, got %v", eventTypes(*events))
	}
	if len(sink.Reports()) != 0 {
		t.Error("Session that never started must not be reported")
	}
}

func TestSession_ProcessTurn(t *testing.T) {
	tier := easyTier(t)

	t.Run("mismatch hides both tokens", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		a, _ := pairPositions(tier, 0)
		b, _ := pairPositions(tier, 1)
		matched, err := sess.ProcessTurn(a, b)
		if err != nil || matched {
			t.Fatalf("Expected a miss, got matched=%v err=%v", matched, err)
		}

		state := sess.Snapshot()
		if state.Moves != 1 || state.Score != 0 {
			t.Errorf("Expected one move and no score, got %+v", state)
		}
		if state.Board[a.Row][a.Col].FaceUp || state.Board[b.Row][b.Col].FaceUp {
			t.Error("Expected missed tokens to be hidden again")
		}
	})

	t.Run("same position is rejected", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		a, _ := pairPositions(tier, 0)
		if _, err := sess.ProcessTurn(a, a); !errors.Is(err, ErrSameToken) {
			t.Errorf("Expected ErrSameToken, got %v", err)
		}
		if sess.Player().Moves != 0 {
			t.Error("Rejected turn counted a move")
		}
	})

	t.Run("out of range is rejected", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		a, _ := pairPositions(tier, 0)
		_, err := sess.ProcessTurn(a, engine.Position{Row: 9, Col: 0})
		if !errors.Is(err, engine.ErrInvalidPosition) {
			t.Errorf("Expected ErrInvalidPosition, got %v", err)
		}
		if sess.Player().Moves != 0 {
			t.Error("Rejected turn counted a move")
		}
	})

	t.Run("matched pair again earns nothing", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		events := recordEvents(sess)
		sess.Start()

		a, b := pairPositions(tier, 0)
		sess.ProcessTurn(a, b)
		score := sess.Player().Score

		matched, err := sess.ProcessTurn(a, b)
		if err != nil || !matched {
			t.Fatalf("Expected matched pair to still match, got matched=%v err=%v", matched, err)
		}
		if sess.Player().Score != score {
			t.Errorf("Expected score to stay %d, got %d", score, sess.Player().Score)
		}
		if sess.Player().Moves != 2 {
			t.Errorf("Expected 2 moves, got %d", sess.Player().Moves)
		}

		sess.Close()
		matches := 0
		for _, ev := range *events {
			if ev.Type == event.MatchFound {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("Expected one match event, got %d", matches)
		}
	})
}

func TestSession_PauseResume(t *testing.T) {
	tier := easyTier(t)
	tier.TimeBudgetSeconds = 60
	clock := newFakeClock()
	sess := newTestSession(t, tier, engine.ModeTimed, clock, nil)
	events := recordEvents(sess)

	sess.Start()
	clock.Advance(10 * time.Second)
	sess.Pause()
	sess.Pause()

	if sess.Status() != StatusPaused {
		t.Fatalf("Expected paused, got %s", sess.Status())
	}

	a, b := pairPositions(tier, 0)
	_, err := sess.ProcessTurn(a, b)
	if !errors.Is(err, ErrSessionPaused) {
		t.Errorf("Expected ErrSessionPaused, got %v", err)
	}
	if !errors.Is(err, ErrInactiveSession) {
		t.Errorf("Expected a paused session to count as inactive, got %v", err)
	}

	clock.Advance(5 * time.Minute)
	sess.Tick()
	if sess.Status() != StatusPaused {
		t.Fatal("Paused session must not expire")
	}

	sess.Resume()
	if got := sess.Snapshot().RemainingMillis; got != 50000 {
		t.Errorf("Expected 50000ms remaining after resume, got %d", got)
	}

	sess.Close()
	want := []event.Type{event.SessionStarted, event.SessionPaused, event.SessionResumed, event.SessionEnded}
	got := eventTypes(*events)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected events %v, got %v", want, got)
	}
}

func TestSession_Lifecycle(t *testing.T) {
	tier := easyTier(t)

	t.Run("start is idempotent", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		events := recordEvents(sess)
		sess.Start()
		sess.Start()
		sess.Pause()
		sess.Start()
		if sess.Status() != StatusPaused {
			t.Errorf("Expected start to leave a paused session alone, got %s", sess.Status())
		}
		sess.Close()

		started := 0
		for _, ev := range *events {
			if ev.Type == event.SessionStarted {
				started++
			}
		}
		if started != 1 {
			t.Errorf("Expected one start event, got %d", started)
		}
	})

	t.Run("ended session cannot restart", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()
		sess.End()
		if err := sess.Start(); !errors.Is(err, ErrInactiveSession) {
			t.Errorf("Expected ErrInactiveSession, got %v", err)
		}
	})

	t.Run("end twice reports once", func(t *testing.T) {
		sink := &recordingSink{}
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), sink)
		sess.Start()
		sess.End()
		sess.End()
		sess.Close()

		if len(sink.Reports()) != 1 {
			t.Errorf("Expected one report, got %d", len(sink.Reports()))
		}
		if _, ok := sess.Report(); !ok {
			t.Error("Expected report to be kept on the session")
		}
	})

	t.Run("end from paused reports", func(t *testing.T) {
		sink := &recordingSink{}
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), sink)
		sess.Start()
		sess.Pause()
		sess.End()
		sess.Close()

		if len(sink.Reports()) != 1 {
			t.Errorf("Expected one report, got %d", len(sink.Reports()))
		}
	})

	t.Run("abandon does not report", func(t *testing.T) {
		sink := &recordingSink{}
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), sink)
		sess.Start()
		sess.Abandon()
		sess.End()
		sess.Close()

		if len(sink.Reports()) != 0 {
			t.Errorf("Expected no report, got %d", len(sink.Reports()))
		}
		if sess.Status() != StatusEnded {
			t.Errorf("Expected ended, got %s", sess.Status())
		}
	})

	t.Run("sink failure does not affect session", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("disk full")}
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), sink)
		sess.Start()
		sess.End()
		sess.Close()

		if sess.Status() != StatusEnded {
			t.Errorf("Expected ended, got %s", sess.Status())
		}
		if len(sink.Reports()) != 1 {
			t.Error("Expected sink to be called")
		}
	})
}

func TestSession_Flip(t *testing.T) {
	tier := easyTier(t)

	faceUp := func(sess *Session) int {
		n := 0
		for _, row := range sess.Snapshot().Board {
			for _, cell := range row {
				if cell.FaceUp && !cell.Matched {
					n++
				}
			}
		}
		return n
	}

	t.Run("before start", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		if _, _, err := sess.Flip(engine.Position{}); !errors.Is(err, ErrInactiveSession) {
			t.Errorf("Expected ErrInactiveSession before start, got %v", err)
		}
	})

	t.Run("second flip plays the turn", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		a, b := pairPositions(tier, 0)
		tok, turn, err := sess.Flip(a)
		if err != nil {
			t.Fatalf("Failed to flip: %v", err)
		}
		if turn != nil || !tok.FaceUp || tok.Key != "k0" {
			t.Errorf("Expected a lone face-up k0, got %+v, %+v", tok, turn)
		}
		if sess.Player().Moves != 0 {
			t.Error("Expected the first flip not to count a move yet")
		}

		if _, turn, _ := sess.Flip(a); turn != nil || sess.Player().Moves != 0 {
			t.Error("Expected flipping the waiting token again to change nothing")
		}

		_, turn, err = sess.Flip(b)
		if err != nil {
			t.Fatalf("Failed to flip: %v", err)
		}
		if turn == nil || !turn.Matched || turn.Award <= 0 {
			t.Fatalf("Expected the second flip to score a match, got %+v", turn)
		}
		if sess.Player().Moves != 1 {
			t.Errorf("Expected 1 move, got %d", sess.Player().Moves)
		}

		if _, turn, _ := sess.Flip(a); turn != nil {
			t.Error("Expected a matched token flip to change nothing")
		}
	})

	t.Run("cannot reveal the board for free", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		for r := 0; r < tier.Rows; r++ {
			for c := 0; c < tier.Cols; c++ {
				if _, _, err := sess.Flip(engine.Position{Row: r, Col: c}); err != nil {
					t.Fatalf("Failed to flip (%d,%d): %v", r, c, err)
				}
				if n := faceUp(sess); n > 1 {
					t.Fatalf("Expected at most one unmatched token up, got %d", n)
				}
			}
		}
		if moves := sess.Player().Moves; moves != tier.Size()/2 {
			t.Errorf("Expected every second flip to count a move, got %d moves", moves)
		}
	})

	t.Run("turn hides a waiting token", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()

		a, _ := pairPositions(tier, 0)
		c, d := pairPositions(tier, 1)
		sess.Flip(a)
		if _, err := sess.ProcessTurn(c, d); err != nil {
			t.Fatalf("Turn failed: %v", err)
		}
		if sess.Snapshot().Board[a.Row][a.Col].FaceUp {
			t.Error("Expected the flipped token to go back down")
		}

		// The next flip starts a fresh turn
		if _, turn, _ := sess.Flip(a); turn != nil {
			t.Error("Expected a new first flip after the turn")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
		defer sess.Close()
		sess.Start()
		if _, _, err := sess.Flip(engine.Position{Row: 9, Col: 9}); !errors.Is(err, engine.ErrInvalidPosition) {
			t.Errorf("Expected ErrInvalidPosition, got %v", err)
		}
	})
}

func TestSession_Hint(t *testing.T) {
	tier := easyTier(t)
	sess := newTestSession(t, tier, engine.ModeEndless, newFakeClock(), nil)
	defer sess.Close()
	sess.Start()

	for i := 0; i < tier.Hints; i++ {
		a, b, err := sess.Hint()
		if err != nil {
			t.Fatalf("Hint %d failed: %v", i, err)
		}
		if a == b {
			t.Errorf("Hint %d returned the same position twice", i)
		}
	}
	if _, _, err := sess.Hint(); !errors.Is(err, ErrNoHints) {
		t.Errorf("Expected ErrNoHints, got %v", err)
	}
	if sess.Snapshot().HintsLeft != 0 {
		t.Error("Expected hints to be used up")
	}
}

func TestSession_BackgroundExpiry(t *testing.T) {
	tier := easyTier(t)
	tier.TimeBudgetSeconds = 60
	clock := newFakeClock()
	sink := &recordingSink{}

	sess, err := New(Options{
		Tier:         tier,
		Mode:         engine.ModeTimed,
		Clock:        clock.Now,
		TickInterval: time.Millisecond,
		Sink:         sink,
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	ended := make(chan struct{})
	sess.Subscribe(func(ev event.Event) {
		if ev.Type == event.SessionEnded {
			close(ended)
		}
	})

	sess.Start()
	clock.Advance(2 * time.Minute)

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected background tick to end the session")
	}
	sess.Close()

	if len(sink.Reports()) != 1 {
		t.Errorf("Expected one report, got %d", len(sink.Reports()))
	}
}

func TestSession_ConcurrentEnd(t *testing.T) {
	tier := easyTier(t)
	tier.TimeBudgetSeconds = 60
	clock := newFakeClock()
	sink := &recordingSink{}
	sess := newTestSession(t, tier, engine.ModeTimed, clock, sink)
	sess.Start()
	clock.Advance(61 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.Tick()
		}()
		go func() {
			defer wg.Done()
			sess.End()
		}()
	}
	wg.Wait()
	sess.Close()

	if len(sink.Reports()) != 1 {
		t.Errorf("Expected exactly one report, got %d", len(sink.Reports()))
	}
}

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusIdle:   "idle",
		StatusActive: "active",
		StatusPaused: "paused",
		StatusEnded:  "ended",
		Status(42):   "unknown",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestStatus_UnmarshalText(t *testing.T) {
	var s Status
	if err := s.UnmarshalText([]byte("paused")); err != nil || s != StatusPaused {
		t.Errorf("Expected paused, got %v (%v)", s, err)
	}
	if err := s.UnmarshalText([]byte("sleeping")); err == nil {
		t.Error("Expected error for unknown status")
	}
}
