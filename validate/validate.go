// Package validate checks difficulty tier JSON files before they are loaded
// by the server. It checks:
//   - JSON structure and the tier rules enforced at load time
//   - File name matching the declared tier name
//   - Duplicate tier names across a directory
//   - Playability warnings: tight time budgets and hints that outnumber pairs
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
)

// Seconds per pair below which a timed game is flagged as likely unwinnable
const minSecondsPerPair = 3

// Result captures the outcome of validating a single file.
// Errors make the file invalid; Info lines describe a valid tier and
// Warnings flag settings that load but may play badly.
type Result struct {
	File     string
	Valid    bool
	Tier     *engine.Tier
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single tier file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	tier, err := engine.LoadTier(path)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	result.Tier = tier

	expected := strings.ToLower(strings.TrimSuffix(result.File, filepath.Ext(result.File)))
	if strings.ToLower(tier.Name) != expected {
		result.fail("file name %q does not match tier name %q", result.File, tier.Name)
	}

	if tier.Hints > tier.TotalPairs() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d hints for %d pairs: hints can solve the whole board", tier.Hints, tier.TotalPairs()))
	}
	if tier.TimeBudgetSeconds < tier.TotalPairs()*minSecondsPerPair {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("time budget %ds is under %ds per pair", tier.TimeBudgetSeconds, minSecondsPerPair))
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", tier.Name),
			fmt.Sprintf("✓ Board: %dx%d (%d pairs)", tier.Rows, tier.Cols, tier.TotalPairs()),
			fmt.Sprintf("✓ Time budget: %ds", tier.TimeBudgetSeconds),
			fmt.Sprintf("✓ Hints: %d", tier.Hints),
			fmt.Sprintf("✓ Perfect endless score: %d", perfectScore(*tier)),
		)
	}

	return result
}

// perfectScore is the score of a game with no misses played instantly
func perfectScore(tier engine.Tier) int {
	score := 0
	for match := 1; match <= tier.TotalPairs(); match++ {
		score += tier.Scoring.Award(match, match, 0)
	}
	return score
}

// Dir validates every *.json file in dir, sorted by name. Files declaring a
// tier name already used by an earlier file are marked invalid.
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list tier files: %w", err)
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("failed to read config directory: %w", err)
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	results := make([]Result, 0, len(files))
	for _, file := range files {
		result := File(file)
		if result.Tier != nil {
			key := strings.ToLower(result.Tier.Name)
			if first, dup := seen[key]; dup {
				result.fail("tier name %q already declared by %s", result.Tier.Name, first)
			} else {
				seen[key] = result.File
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Report prints results and returns whether every file is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No tier files found; only built-in difficulties will be available")
	case allValid:
		fmt.Fprintln(w, "✅ All tier files are valid!")
	default:
		fmt.Fprintln(w, "❌ Some tier files have errors")
	}
	return allValid
}
