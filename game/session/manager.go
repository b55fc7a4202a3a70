package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/stats"
	"github.com/wricardo/mcp-training/pairmatch/game/timer"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Maximum accepted length of a caller-chosen session ID
const maxSessionIDLength = 64

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithSink sets the statistics sink given to sessions that do not bring their own
func WithSink(sink stats.Sink) ManagerOption {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithTickInterval sets the default expiry poll period for new sessions
func WithTickInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.tickInterval = d
	}
}

// WithManagerClock replaces wall time for sessions and expiry checks
func WithManagerClock(clock timer.Clock) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// Manager handles game session lifecycle. A profile owns at most one live
// session; creating another abandons the previous one.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	byProfile map[string]string

	sink         stats.Sink
	tickInterval time.Duration
	now          timer.Clock
}

// NewManager creates a new session manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		byProfile: make(map[string]string),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds a new session. An empty ID is replaced by a generated one.
// If the profile already has a session, that session is abandoned and removed.
func (m *Manager) Create(opts Options) (*Session, error) {
	if len(opts.ID) > maxSessionIDLength || strings.ContainsAny(opts.ID, "/ \t\n") {
		return nil, ErrInvalidSessionID
	}
	if opts.Sink == nil {
		opts.Sink = m.sink
	}
	if opts.Clock == nil {
		opts.Clock = m.now
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = m.tickInterval
	}

	m.mu.Lock()

	if opts.ID == "" {
		opts.ID = m.generateSessionIDLocked()
	} else if _, exists := m.sessions[strings.ToLower(opts.ID)]; exists {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}

	sess, err := New(opts)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var previous *Session
	if opts.Profile != "" {
		profileKey := strings.ToLower(opts.Profile)
		if prevID, ok := m.byProfile[profileKey]; ok {
			previous = m.sessions[prevID]
			delete(m.sessions, prevID)
		}
		m.byProfile[profileKey] = strings.ToLower(sess.ID)
	}
	m.sessions[strings.ToLower(sess.ID)] = sess

	m.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	return sess, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ForProfile returns the live session owned by a profile
func (m *Manager) ForProfile(profile string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byProfile[strings.ToLower(profile)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.sessions[id], nil
}

// List returns all sessions ordered by creation time
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete abandons and removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	m.removeLocked(sess)
	m.mu.Unlock()

	sess.Close()
	return nil
}

// Count returns the number of sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	var expired []*Session
	for _, sess := range m.sessions {
		if sess.LastAccessed().Before(cutoff) {
			expired = append(expired, sess)
		}
	}
	for _, sess := range expired {
		m.removeLocked(sess)
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired)
}

// CloseAll abandons every session, for shutdown
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.byProfile = make(map[string]string)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (m *Manager) removeLocked(sess *Session) {
	id := strings.ToLower(sess.ID)
	delete(m.sessions, id)

	profileKey := strings.ToLower(sess.Profile)
	if m.byProfile[profileKey] == id {
		delete(m.byProfile, profileKey)
	}
}

// generateSessionIDLocked generates a random 4-character session ID not yet in use
func (m *Manager) generateSessionIDLocked() string {
	for {
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}
