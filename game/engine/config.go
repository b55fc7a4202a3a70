package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// ValidateTier validates a difficulty tier for correctness and playability
func ValidateTier(tier *Tier) error {
	if tier == nil {
		return fmt.Errorf("%w: tier is nil", ErrInvalidTier)
	}

	// Validate required fields
	if tier.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTier)
	}

	// Validate board shape
	if tier.Rows < MinBoardSide || tier.Rows > MaxBoardSide {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidTier, MinBoardSide, MaxBoardSide, tier.Rows)
	}
	if tier.Cols < MinBoardSide || tier.Cols > MaxBoardSide {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrInvalidTier, MinBoardSide, MaxBoardSide, tier.Cols)
	}
	if tier.Size()%2 != 0 {
		return fmt.Errorf("%w: rows*cols must be even, got %dx%d", ErrInvalidTier, tier.Rows, tier.Cols)
	}

	// Validate time and hints
	if tier.TimeBudgetSeconds <= 0 {
		return fmt.Errorf("%w: time_budget_seconds must be positive, got %d", ErrInvalidTier, tier.TimeBudgetSeconds)
	}
	if tier.Hints < 0 || tier.Hints > MaxHints {
		return fmt.Errorf("%w: hints must be between 0 and %d, got %d", ErrInvalidTier, MaxHints, tier.Hints)
	}

	// Validate scoring coefficients
	s := tier.Scoring
	if s.PointsPerMatch <= 0 {
		return fmt.Errorf("%w: scoring.points_per_match must be positive, got %d", ErrInvalidTier, s.PointsPerMatch)
	}
	if s.AccuracyBonus < 0 || s.SpeedBonus < 0 || s.SpeedDecaySeconds < 0 || s.TimeBonusPerSecond < 0 {
		return fmt.Errorf("%w: scoring coefficients must not be negative", ErrInvalidTier)
	}
	if s.SpeedBonus > 0 && s.SpeedDecaySeconds == 0 {
		return fmt.Errorf("%w: scoring.speed_decay_seconds is required when speed_bonus is set", ErrInvalidTier)
	}

	return nil
}

// LoadTier loads and validates a difficulty tier from a JSON file
func LoadTier(filename string) (*Tier, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseTier(data)
}

// ParseTier decodes and validates a difficulty tier from JSON
func ParseTier(data []byte) (*Tier, error) {
	var tier Tier
	if err := json.Unmarshal(data, &tier); err != nil {
		return nil, fmt.Errorf("failed to parse tier: %w", err)
	}

	if err := ValidateTier(&tier); err != nil {
		return nil, err
	}

	return &tier, nil
}
