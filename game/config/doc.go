// Package config resolves the difficulty tiers and modes a session can be
// created with.
//
// Three tiers are built in:
//   - easy: 4x4 board, 120 seconds, 3 hints
//   - medium: 4x6 board, 180 seconds, 2 hints
//   - hard: 6x6 board, 240 seconds, 1 hint
//
// A config directory may hold <name>.json tier files. A file whose name matches
// a built-in tier replaces it; any other name adds a new tier. Every file is
// validated when the cache is built, and an invalid file fails the whole load.
//
// Unknown difficulty or mode names are reported as errors wrapping
// engine.ErrConfiguration.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tier, err := manager.Difficulty("medium")
//	mode, err := manager.Mode("timed")
package config
