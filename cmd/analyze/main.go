// Command analyze plays simulated games against every difficulty tier and
// prints how a perfect-memory player and a forgetful random player fare:
// completion rate, average moves, average score and average time. It helps
// tune tier files before they ship.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/pairmatch/game/config"
	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
)

// Safety cap for strategies that never converge
const maxTurnsPerGame = 5000

// Strategy picks the next turn from what the player has seen so far
type Strategy interface {
	Name() string
	Next(state session.State) (engine.Position, engine.Position)
	Observe(turn session.Turn, a, b engine.Position)
}

// memoryStrategy remembers every revealed key and plays a pair as soon as
// both halves have been seen.
type memoryStrategy struct {
	seen map[string][]engine.Position
}

func newMemoryStrategy() *memoryStrategy {
	return &memoryStrategy{seen: make(map[string][]engine.Position)}
}

func (m *memoryStrategy) Name() string { return "memory" }

func (m *memoryStrategy) Next(state session.State) (engine.Position, engine.Position) {
	for _, positions := range m.seen {
		if len(positions) == 2 {
			return positions[0], positions[1]
		}
	}

	known := make(map[engine.Position]bool)
	for _, positions := range m.seen {
		for _, pos := range positions {
			known[pos] = true
		}
	}

	var unknown []engine.Position
	for _, pos := range unmatched(state) {
		if !known[pos] {
			unknown = append(unknown, pos)
			if len(unknown) == 2 {
				return unknown[0], unknown[1]
			}
		}
	}

	// One unknown left: its partner is already known
	all := unmatched(state)
	if len(unknown) == 1 {
		for _, pos := range all {
			if pos != unknown[0] {
				return unknown[0], pos
			}
		}
	}
	return all[0], all[1]
}

func (m *memoryStrategy) Observe(turn session.Turn, a, b engine.Position) {
	if turn.Matched {
		delete(m.seen, turn.First.Key)
		return
	}
	m.remember(turn.First.Key, a)
	m.remember(turn.Second.Key, b)
}

func (m *memoryStrategy) remember(key string, pos engine.Position) {
	for _, known := range m.seen[key] {
		if known == pos {
			return
		}
	}
	m.seen[key] = append(m.seen[key], pos)
}

// randomStrategy forgets everything and picks two unmatched tokens at random
type randomStrategy struct {
	rng *rand.Rand
}

func (r *randomStrategy) Name() string { return "random" }

func (r *randomStrategy) Next(state session.State) (engine.Position, engine.Position) {
	open := unmatched(state)
	i := r.rng.IntN(len(open))
	j := r.rng.IntN(len(open) - 1)
	if j >= i {
		j++
	}
	return open[i], open[j]
}

func (r *randomStrategy) Observe(session.Turn, engine.Position, engine.Position) {}

// unmatched lists positions still in play in row-major order
func unmatched(state session.State) []engine.Position {
	var open []engine.Position
	for r, row := range state.Board {
		for c, cell := range row {
			if !cell.Matched {
				open = append(open, engine.Position{Row: r, Col: c})
			}
		}
	}
	return open
}

// simClock advances only when told to
type simClock struct {
	now time.Time
}

func (c *simClock) Now() time.Time { return c.now }

// GameResult is the outcome of one simulated game
type GameResult struct {
	Completed bool
	Moves     int
	Score     int
	Duration  time.Duration
}

// playGame runs one game to its end
func playGame(tier engine.Tier, mode engine.Mode, strategy Strategy, rng *rand.Rand, turnTime time.Duration) (GameResult, error) {
	clock := &simClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sess, err := session.New(session.Options{
		ID:           "sim",
		Tier:         tier,
		Mode:         mode,
		Rand:         rng,
		Clock:        clock.Now,
		TickInterval: -1,
	})
	if err != nil {
		return GameResult{}, err
	}
	defer sess.Close()

	if err := sess.Start(); err != nil {
		return GameResult{}, err
	}

	for turns := 0; turns < maxTurnsPerGame; turns++ {
		clock.now = clock.now.Add(turnTime)
		sess.Tick()

		state := sess.Snapshot()
		if state.GameOver {
			break
		}

		a, b := strategy.Next(state)
		turn, err := sess.PlayTurn(a, b)
		if err != nil {
			return GameResult{}, fmt.Errorf("turn %d: %w", turns+1, err)
		}
		strategy.Observe(turn, a, b)
		if turn.Ended {
			break
		}
	}

	sess.End()
	final := sess.Snapshot()
	result := GameResult{
		Completed: final.MatchedPairs == final.TotalPairs,
		Moves:     final.Moves,
		Score:     final.Score,
	}
	if report, ok := sess.Report(); ok {
		result.Duration = report.Duration()
	}
	return result, nil
}

// Summary aggregates the games of one tier, mode and strategy
type Summary struct {
	Tier      string
	Mode      engine.Mode
	Strategy  string
	Games     int
	Completed int
	Moves     int
	Score     int
	Duration  time.Duration
}

func (s *Summary) add(r GameResult) {
	s.Games++
	if r.Completed {
		s.Completed++
	}
	s.Moves += r.Moves
	s.Score += r.Score
	s.Duration += r.Duration
}

func (s Summary) String() string {
	if s.Games == 0 {
		return fmt.Sprintf("%-8s %-8s %-7s no games", s.Tier, s.Mode, s.Strategy)
	}
	n := s.Games
	return fmt.Sprintf("%-8s %-8s %-7s %5.0f%% %8.1f %8.1f %8s",
		s.Tier, s.Mode, s.Strategy,
		100*float64(s.Completed)/float64(n),
		float64(s.Moves)/float64(n),
		float64(s.Score)/float64(n),
		(s.Duration / time.Duration(n)).Round(time.Second))
}

// analyze simulates games for every tier, mode and strategy
func analyze(tiers []engine.Tier, games int, seed uint64, turnTime time.Duration) ([]Summary, error) {
	var summaries []Summary
	for _, tier := range tiers {
		for _, mode := range []engine.Mode{engine.ModeEndless, engine.ModeTimed} {
			for _, strategyName := range []string{"memory", "random"} {
				summary := Summary{Tier: tier.Name, Mode: mode, Strategy: strategyName}
				for g := 0; g < games; g++ {
					rng := rand.New(rand.NewPCG(seed, uint64(g)))
					var strategy Strategy = newMemoryStrategy()
					if strategyName == "random" {
						strategy = &randomStrategy{rng: rand.New(rand.NewPCG(seed+1, uint64(g)))}
					}

					result, err := playGame(tier, mode, strategy, rng, turnTime)
					if err != nil {
						return nil, fmt.Errorf("%s/%s/%s game %d: %w", tier.Name, mode, strategyName, g+1, err)
					}
					summary.add(result)
				}
				summaries = append(summaries, summary)
			}
		}
	}
	return summaries, nil
}

func printSummaries(w io.Writer, summaries []Summary) {
	fmt.Fprintf(w, "%-8s %-8s %-7s %6s %8s %8s %8s\n", "TIER", "MODE", "PLAYER", "DONE", "MOVES", "SCORE", "TIME")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, s := range summaries {
		fmt.Fprintln(w, s)
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Simulate games against every difficulty tier",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing difficulty tier files"},
			&cli.IntFlag{Name: "games", Value: 50, Usage: "Games per tier, mode and player"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Random seed"},
			&cli.DurationFlag{Name: "turn-time", Value: 2 * time.Second, Usage: "Simulated time per turn"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			configs, err := config.NewManager(c.String("config-dir"))
			if err != nil {
				return err
			}

			var tiers []engine.Tier
			for _, info := range configs.ListDifficulties() {
				tier, err := configs.Difficulty(info.Name)
				if err != nil {
					return err
				}
				tiers = append(tiers, tier)
			}

			summaries, err := analyze(tiers, int(c.Int("games")), uint64(c.Int("seed")), c.Duration("turn-time"))
			if err != nil {
				return err
			}
			printSummaries(os.Stdout, summaries)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
