package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore keeps one JSON document per profile in a directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-based store, creating dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create profiles directory: %v", ErrPersistence, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a profile, replacing any previous version
func (fs *FileStore) Save(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("%w: profile cannot be nil", ErrPersistence)
	}
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal profile: %v", ErrPersistence, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Replace atomically via rename
	path := fs.getFilePath(p.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("%w: failed to write profile file: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to replace profile file: %v", ErrPersistence, err)
	}
	return nil
}

// Load reads a profile by name
func (fs *FileStore) Load(ctx context.Context, name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	jsonData, err := os.ReadFile(fs.getFilePath(name))
	fs.mu.Unlock()

	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read profile file: %v", ErrPersistence, err)
	}

	var p Profile
	if err := json.Unmarshal(jsonData, &p); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal profile: %v", ErrPersistence, err)
	}
	return &p, nil
}

// List returns the stored profile names, sorted
func (fs *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read profiles directory: %v", ErrPersistence, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			names = append(names, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a profile
func (fs *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	err := os.Remove(fs.getFilePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: failed to remove profile file: %v", ErrPersistence, err)
	}
	return nil
}

// getFilePath returns the full file path for a profile name
func (fs *FileStore) getFilePath(name string) string {
	return filepath.Join(fs.dir, storageKey(name)+".json")
}
