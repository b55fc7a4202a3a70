// Package profile stores player profiles and the statistics aggregated from
// their finished sessions.
package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/stats"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrInvalidName     = errors.New("invalid profile name")
	// ErrPersistence wraps every storage failure
	ErrPersistence = errors.New("persistence failure")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Profile is a named player and their lifetime statistics
type Profile struct {
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Stats     stats.Aggregate `json:"stats"`

	// Preferred settings for new sessions; empty means the server default
	PreferredDifficulty string `json:"preferred_difficulty,omitempty"`
	PreferredMode       string `json:"preferred_mode,omitempty"`
}

// New creates an empty profile
func New(name string, now time.Time) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Profile{Name: name, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}, nil
}

// ValidateName checks that a name is safe to use as a storage key
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Store persists profiles. Names are matched case-insensitively.
type Store interface {
	Save(ctx context.Context, p *Profile) error
	Load(ctx context.Context, name string) (*Profile, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

func storageKey(name string) string {
	return strings.ToLower(name)
}
