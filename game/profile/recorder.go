package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/stats"
)

// Recorder folds session reports into a stored profile. It implements
// stats.Sink for one profile name.
type Recorder struct {
	store Store
	name  string
	now   func() time.Time
}

// recordMu serializes load-modify-save cycles across recorders sharing a store
var recordMu sync.Mutex

// NewRecorder returns a sink that updates the named profile
func NewRecorder(store Store, name string) *Recorder {
	return &Recorder{store: store, name: name, now: time.Now}
}

// RecordSession loads the profile (creating it if missing), records the report
// and saves it back.
func (r *Recorder) RecordSession(ctx context.Context, report stats.Report) error {
	recordMu.Lock()
	defer recordMu.Unlock()

	p, err := r.store.Load(ctx, r.name)
	if errors.Is(err, ErrProfileNotFound) {
		p, err = New(r.name, r.now())
	}
	if err != nil {
		return fmt.Errorf("%w: load profile %s: %v", ErrPersistence, r.name, err)
	}

	p.Stats.Record(report)
	p.UpdatedAt = r.now().UTC()

	if err := r.store.Save(ctx, p); err != nil {
		if errors.Is(err, ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: save profile %s: %v", ErrPersistence, r.name, err)
	}
	return nil
}

var _ stats.Sink = (*Recorder)(nil)
