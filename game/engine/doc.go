// Package engine provides the core rules of the Pair Match game.
//
// The engine package implements:
//   - The board of hidden tokens and its matching predicate
//   - Per-session player counters
//   - Difficulty tiers (board shape, time budget, hints, scoring formula)
//   - Game modes (end condition and scoring adjustment)
//   - Tier validation and JSON loading
//
// Core Types:
//
// Board owns a rows x cols grid of Token values and counts matched pairs.
// Tier is an immutable difficulty configuration; DefaultTiers returns the
// built-in easy, medium and hard table. Mode is a closed enum (endless,
// timed) whose methods dispatch on the tag.
//
// Usage:
//
//	tier, _ := engine.DefaultTier(engine.DifficultyEasy)
//	board, err := engine.NewBoard(tier, engine.Deal(tier, nil))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	matched := board.EvaluateMatch(engine.Position{Row: 0, Col: 0}, engine.Position{Row: 0, Col: 1})
//	done := board.IsComplete()
//
// Matching Rules:
//
// Two distinct positions match when their tokens share a key. The first
// successful evaluation of a pair marks both tokens matched and bumps the
// pair counter; evaluating the same pair again still reports a match but
// leaves the counter alone.
package engine
