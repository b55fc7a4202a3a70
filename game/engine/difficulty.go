package engine

import (
	"sort"
	"time"
)

// Built-in difficulty names
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Scoring holds the coefficients of a tier's scoring formula
type Scoring struct {
	PointsPerMatch     int `json:"points_per_match"`
	AccuracyBonus      int `json:"accuracy_bonus"`      // Scaled by matches/attempts
	SpeedBonus         int `json:"speed_bonus"`         // Decays as the session runs
	SpeedDecaySeconds  int `json:"speed_decay_seconds"` // Seconds per point of speed bonus lost
	TimeBonusPerSecond int `json:"time_bonus_per_second"`
}

// Award returns the points for a match, given the session's matches and
// attempts including this one and the active time used so far.
func (s Scoring) Award(matches, attempts int, elapsed time.Duration) int {
	award := s.PointsPerMatch

	if attempts > 0 && matches > 0 {
		if matches > attempts {
			matches = attempts
		}
		award += s.AccuracyBonus * matches / attempts
	}

	if s.SpeedBonus > 0 && s.SpeedDecaySeconds > 0 {
		lost := int(elapsed/time.Second) / s.SpeedDecaySeconds
		if speed := s.SpeedBonus - lost; speed > 0 {
			award += speed
		}
	}

	if award < 0 {
		return 0
	}
	return award
}

// Tier is an immutable difficulty configuration
type Tier struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Rows              int     `json:"rows"`
	Cols              int     `json:"cols"`
	TimeBudgetSeconds int     `json:"time_budget_seconds"`
	Hints             int     `json:"hints"`
	Scoring           Scoring `json:"scoring"`
}

// TimeBudget returns the countdown budget used in timed mode
func (t Tier) TimeBudget() time.Duration {
	return time.Duration(t.TimeBudgetSeconds) * time.Second
}

// Size returns the number of tokens on a board of this tier
func (t Tier) Size() int {
	return t.Rows * t.Cols
}

// TotalPairs returns the number of pairs on a board of this tier
func (t Tier) TotalPairs() int {
	return t.Size() / 2
}

var defaultTiers = map[string]Tier{
	DifficultyEasy: {
		Name:              DifficultyEasy,
		Description:       "4x4 board, two minutes on the clock",
		Rows:              4,
		Cols:              4,
		TimeBudgetSeconds: 120,
		Hints:             3,
		Scoring: Scoring{
			PointsPerMatch:     10,
			AccuracyBonus:      5,
			SpeedBonus:         5,
			SpeedDecaySeconds:  10,
			TimeBonusPerSecond: 1,
		},
	},
	DifficultyMedium: {
		Name:              DifficultyMedium,
		Description:       "4x6 board, three minutes on the clock",
		Rows:              4,
		Cols:              6,
		TimeBudgetSeconds: 180,
		Hints:             2,
		Scoring: Scoring{
			PointsPerMatch:     15,
			AccuracyBonus:      10,
			SpeedBonus:         8,
			SpeedDecaySeconds:  8,
			TimeBonusPerSecond: 2,
		},
	},
	DifficultyHard: {
		Name:              DifficultyHard,
		Description:       "6x6 board, four minutes on the clock",
		Rows:              6,
		Cols:              6,
		TimeBudgetSeconds: 240,
		Hints:             1,
		Scoring: Scoring{
			PointsPerMatch:     20,
			AccuracyBonus:      15,
			SpeedBonus:         10,
			SpeedDecaySeconds:  6,
			TimeBonusPerSecond: 3,
		},
	},
}

// DefaultTiers returns a copy of the built-in tier table
func DefaultTiers() map[string]Tier {
	tiers := make(map[string]Tier, len(defaultTiers))
	for name, tier := range defaultTiers {
		tiers[name] = tier
	}
	return tiers
}

// DefaultTier returns a built-in tier by name
func DefaultTier(name string) (Tier, bool) {
	tier, ok := defaultTiers[name]
	return tier, ok
}

// DefaultTierNames returns the built-in tier names in order of board size
func DefaultTierNames() []string {
	names := make([]string, 0, len(defaultTiers))
	for name := range defaultTiers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return defaultTiers[names[i]].Size() < defaultTiers[names[j]].Size()
	})
	return names
}
