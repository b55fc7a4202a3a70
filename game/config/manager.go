package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/service"
)

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownMode       = errors.New("unknown mode")
)

// Manager resolves difficulty tiers and modes. Built-in tiers can be
// overridden, and new ones added, by <name>.json files in the config directory.
type Manager struct {
	configDir string
	tiers     map[string]engine.Tier
	sources   map[string]string
	mu        sync.RWMutex
}

// NewManager creates a configuration manager. An empty configDir serves the
// built-in tiers only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
	}

	m := &Manager{configDir: configDir}
	if err := m.RefreshCache(); err != nil {
		return nil, err
	}
	return m, nil
}

// Difficulty returns the tier registered under name (case-insensitive)
func (m *Manager) Difficulty(name string) (engine.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tier, ok := m.tiers[strings.ToLower(name)]
	if !ok {
		return engine.Tier{}, fmt.Errorf("%w: %w %q", engine.ErrConfiguration, ErrUnknownDifficulty, name)
	}
	return tier, nil
}

// Mode resolves a mode name (case-insensitive)
func (m *Manager) Mode(name string) (engine.Mode, error) {
	mode := engine.Mode(strings.ToLower(name))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %w %q", engine.ErrConfiguration, ErrUnknownMode, name)
	}
	return mode, nil
}

// ListDifficulties returns every available tier, smallest board first
func (m *Manager) ListDifficulties() []*service.DifficultyInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*service.DifficultyInfo, 0, len(m.tiers))
	for key, tier := range m.tiers {
		infos = append(infos, &service.DifficultyInfo{
			Name:              tier.Name,
			Description:       tier.Description,
			Rows:              tier.Rows,
			Cols:              tier.Cols,
			Pairs:             tier.TotalPairs(),
			TimeBudgetSeconds: tier.TimeBudgetSeconds,
			Hints:             tier.Hints,
			Source:            m.sources[key],
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		a, b := infos[i].Rows*infos[i].Cols, infos[j].Rows*infos[j].Cols
		if a != b {
			return a < b
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ListModes returns every supported mode
func (m *Manager) ListModes() []*service.ModeInfo {
	modes := engine.Modes()
	infos := make([]*service.ModeInfo, 0, len(modes))
	for _, mode := range modes {
		infos = append(infos, &service.ModeInfo{Name: mode, Description: mode.Description(), Timed: mode.Timed()})
	}
	return infos
}

// RefreshCache rebuilds the tier table from the built-ins and the config directory
func (m *Manager) RefreshCache() error {
	tiers := engine.DefaultTiers()
	sources := make(map[string]string, len(tiers))
	for name := range tiers {
		sources[name] = "builtin"
	}

	if m.configDir != "" {
		entries, err := os.ReadDir(m.configDir)
		if err != nil {
			return fmt.Errorf("failed to read config directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}

			path := filepath.Join(m.configDir, entry.Name())
			tier, err := engine.LoadTier(path)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", engine.ErrConfiguration, entry.Name(), err)
			}

			key := strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))
			if strings.ToLower(tier.Name) != key {
				return fmt.Errorf("%w: %s declares name %q", engine.ErrConfiguration, entry.Name(), tier.Name)
			}
			tiers[key] = *tier
			sources[key] = entry.Name()
		}
	}

	m.mu.Lock()
	m.tiers = tiers
	m.sources = sources
	m.mu.Unlock()
	return nil
}

// SaveTier validates a tier, writes it to the config directory and registers it
func (m *Manager) SaveTier(tier engine.Tier) error {
	if m.configDir == "" {
		return fmt.Errorf("%w: no config directory", engine.ErrConfiguration)
	}
	if err := engine.ValidateTier(&tier); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrConfiguration, err)
	}

	key := strings.ToLower(tier.Name)
	filename := key + ".json"

	data, err := json.MarshalIndent(tier, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tier: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write tier file: %w", err)
	}

	m.mu.Lock()
	m.tiers[key] = tier
	m.sources[key] = filename
	m.mu.Unlock()
	return nil
}
