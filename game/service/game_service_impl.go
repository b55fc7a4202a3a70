package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/session"
)

const (
	// Used when neither the request nor the profile names one
	DefaultDifficulty = engine.DifficultyEasy
	DefaultMode       = engine.ModeEndless

	// MaxBulkTurns caps the turns accepted by one BulkTurns call
	MaxBulkTurns = 64
)

// ErrProfilesDisabled is returned by profile operations when no store is configured
var ErrProfilesDisabled = errors.New("profile storage is not configured")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	profiles  profile.Store
	publisher EventPublisher
}

// NewGameService creates a new game service instance. profiles and publisher may be nil.
func NewGameService(sessions SessionManager, configs ConfigManager, profiles profile.Store, publisher EventPublisher) GameService {
	return &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		profiles:  profiles,
		publisher: publisher,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	opts := session.Options{Profile: req.Profile}

	difficulty, modeName := req.Difficulty, req.Mode
	if req.Profile != "" {
		p, err := s.loadOrCreateProfile(ctx, req.Profile)
		switch {
		case errors.Is(err, profile.ErrPersistence):
			// Play on without preferences; the report still tries the store at the end
			log.Printf("Warning: Profile %s unavailable, using defaults: %v", req.Profile, err)
			opts.Sink = profile.NewRecorder(s.profiles, req.Profile)
		case err != nil:
			return nil, err
		case p != nil:
			if difficulty == "" {
				difficulty = p.PreferredDifficulty
			}
			if modeName == "" {
				modeName = p.PreferredMode
			}
			opts.Sink = profile.NewRecorder(s.profiles, p.Name)
		}
	}
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	if modeName == "" {
		modeName = string(DefaultMode)
	}

	tier, err := s.configs.Difficulty(difficulty)
	if err != nil {
		return nil, err
	}
	mode, err := s.configs.Mode(modeName)
	if err != nil {
		return nil, err
	}
	opts.Tier = tier
	opts.Mode = mode

	sess, err := s.sessions.Create(opts)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		sess.Subscribe(s.publisher.Publish)
	}

	if req.AutoStart {
		if err := sess.Start(); err != nil {
			return nil, err
		}
	}

	return s.publishState(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession abandons and removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// StartSession begins play
func (s *gameServiceImpl) StartSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}
	return s.publishState(sess), nil
}

// PauseSession freezes an active session
func (s *gameServiceImpl) PauseSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Pause()
	return s.publishState(sess), nil
}

// ResumeSession continues a paused session
func (s *gameServiceImpl) ResumeSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Resume()
	return s.publishState(sess), nil
}

// EndSession finishes a session and reports it
func (s *gameServiceImpl) EndSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.End()
	return s.publishState(sess), nil
}

// ProcessTurn plays one turn
func (s *gameServiceImpl) ProcessTurn(ctx context.Context, sessionID string, first, second engine.Position) (*TurnResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	turn, err := sess.PlayTurn(first, second)
	if err != nil {
		return nil, err
	}

	info := s.publishState(sess)
	return &TurnResult{
		Matched: turn.Matched,
		First:   turn.First,
		Second:  turn.Second,
		Award:   turn.Award,
		Message: turnMessage(turn, info),
		Session: info,
	}, nil
}

// BulkTurns plays turns in order until one is rejected or the game ends
func (s *gameServiceImpl) BulkTurns(ctx context.Context, sessionID string, turns []TurnRequest) (*BulkTurnResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkTurnResult{
		RequestedTurns: len(turns),
		Turns:          make([]TurnOutcome, 0, len(turns)),
	}

	// Limit turns to prevent abuse
	if len(turns) > MaxBulkTurns {
		result.Truncated = true
		result.Limit = MaxBulkTurns
		turns = turns[:MaxBulkTurns]
	}

	for i, req := range turns {
		if err := ctx.Err(); err != nil {
			result.StoppedReason = err.Error()
			result.StoppedOnTurn = i + 1
			break
		}

		turn, err := sess.PlayTurn(req.First, req.Second)
		if err != nil {
			result.StoppedReason = err.Error()
			result.StoppedOnTurn = i + 1
			break
		}

		result.TurnsExecuted++
		result.ScoreDelta += turn.Award
		if turn.Award > 0 {
			result.Matches++
		}
		result.Turns = append(result.Turns, TurnOutcome{
			Idx:     i + 1,
			First:   req.First,
			Second:  req.Second,
			Keys:    [2]string{turn.First.Key, turn.Second.Key},
			Matched: turn.Matched,
			Award:   turn.Award,
		})

		if turn.Ended {
			if i+1 < len(turns) {
				result.StoppedReason = "game_over"
				result.StoppedOnTurn = i + 1
			}
			break
		}
	}

	result.Session = s.publishState(sess)
	return result, nil
}

// FlipToken reveals one token. The second flip of a turn plays it.
func (s *gameServiceImpl) FlipToken(ctx context.Context, sessionID string, pos engine.Position) (*FlipResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	tok, turn, err := sess.Flip(pos)
	if err != nil {
		return nil, err
	}

	info := s.publishState(sess)
	result := &FlipResult{Position: pos, Token: tok, Session: info}
	switch {
	case turn != nil:
		result.Turn = &TurnOutcome{
			Idx:     info.Moves,
			First:   turn.Positions[0],
			Second:  turn.Positions[1],
			Keys:    [2]string{turn.First.Key, turn.Second.Key},
			Matched: turn.Matched,
			Award:   turn.Award,
		}
		result.Message = turnMessage(*turn, info)
	case tok.Matched:
		result.Message = "Token already matched"
	default:
		result.Message = "Flip another token to complete the turn"
	}
	return result, nil
}

// UseHint spends a hint
func (s *gameServiceImpl) UseHint(ctx context.Context, sessionID string) (*HintResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	a, b, err := sess.Hint()
	if err != nil {
		return nil, err
	}
	return &HintResult{First: a, Second: b, HintsLeft: s.publishState(sess).HintsLeft}, nil
}

// ListDifficulties returns the available difficulty tiers
func (s *gameServiceImpl) ListDifficulties(ctx context.Context) ([]*DifficultyInfo, error) {
	return s.configs.ListDifficulties(), nil
}

// SaveDifficulty stores a custom tier in the config directory
func (s *gameServiceImpl) SaveDifficulty(ctx context.Context, tier engine.Tier) (*DifficultyInfo, error) {
	if err := s.configs.SaveTier(tier); err != nil {
		return nil, err
	}
	for _, info := range s.configs.ListDifficulties() {
		if strings.EqualFold(info.Name, tier.Name) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: tier %s not listed after save", engine.ErrConfiguration, tier.Name)
}

// ListModes returns the available modes
func (s *gameServiceImpl) ListModes(ctx context.Context) ([]*ModeInfo, error) {
	return s.configs.ListModes(), nil
}

// CreateProfile registers a new, empty profile
func (s *gameServiceImpl) CreateProfile(ctx context.Context, name string) (*profile.Profile, error) {
	if s.profiles == nil {
		return nil, ErrProfilesDisabled
	}

	if _, err := s.profiles.Load(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", profile.ErrProfileExists, name)
	} else if !errors.Is(err, profile.ErrProfileNotFound) {
		return nil, err
	}

	p, err := profile.New(name, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile loads a profile and its statistics
func (s *gameServiceImpl) GetProfile(ctx context.Context, name string) (*profile.Profile, error) {
	if s.profiles == nil {
		return nil, ErrProfilesDisabled
	}
	return s.profiles.Load(ctx, name)
}

// UpdatePreferences changes the difficulty and mode a profile's new sessions
// start with. Names are checked against the configured tiers and modes.
func (s *gameServiceImpl) UpdatePreferences(ctx context.Context, name string, prefs Preferences) (*profile.Profile, error) {
	if s.profiles == nil {
		return nil, ErrProfilesDisabled
	}

	p, err := s.profiles.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	if prefs.Difficulty != nil {
		if *prefs.Difficulty != "" {
			if _, err := s.configs.Difficulty(*prefs.Difficulty); err != nil {
				return nil, err
			}
		}
		p.PreferredDifficulty = strings.ToLower(*prefs.Difficulty)
	}
	if prefs.Mode != nil {
		if *prefs.Mode != "" {
			if _, err := s.configs.Mode(*prefs.Mode); err != nil {
				return nil, err
			}
		}
		p.PreferredMode = strings.ToLower(*prefs.Mode)
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProfileSession returns the live session owned by a profile
func (s *gameServiceImpl) ProfileSession(ctx context.Context, name string) (*SessionInfo, error) {
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}
	sess, err := s.sessions.ForProfile(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}
	sess.Touch()
	return sessionInfo(sess), nil
}

// ListProfiles returns every stored profile name
func (s *gameServiceImpl) ListProfiles(ctx context.Context) ([]string, error) {
	if s.profiles == nil {
		return nil, ErrProfilesDisabled
	}
	return s.profiles.List(ctx)
}

// DeleteProfile removes a profile
func (s *gameServiceImpl) DeleteProfile(ctx context.Context, name string) error {
	if s.profiles == nil {
		return ErrProfilesDisabled
	}
	return s.profiles.Delete(ctx, name)
}

// getSession looks a session up and marks it as accessed
func (s *gameServiceImpl) getSession(sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	sess.Touch()
	return sess, nil
}

// loadOrCreateProfile returns nil without error when no store is configured
func (s *gameServiceImpl) loadOrCreateProfile(ctx context.Context, name string) (*profile.Profile, error) {
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}
	if s.profiles == nil {
		return nil, nil
	}

	p, err := s.profiles.Load(ctx, name)
	if errors.Is(err, profile.ErrProfileNotFound) {
		p, err = profile.New(name, time.Now())
		if err != nil {
			return nil, err
		}
		err = s.profiles.Save(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func sessionInfo(sess *session.Session) *SessionInfo {
	return &SessionInfo{
		State:          sess.Snapshot(),
		LastAccessedAt: sess.LastAccessed(),
	}
}

// publishState snapshots a session and pushes the snapshot to its watchers
func (s *gameServiceImpl) publishState(sess *session.Session) *SessionInfo {
	info := sessionInfo(sess)
	if s.publisher != nil {
		s.publisher.BroadcastState(info.ID, info)
	}
	return info
}

func turnMessage(turn session.Turn, info *SessionInfo) string {
	cleared := info.MatchedPairs == info.TotalPairs
	switch {
	case turn.Ended && cleared:
		return fmt.Sprintf("Match! +%d points. All pairs found!", turn.Award)
	case turn.Ended && turn.Award > 0:
		return fmt.Sprintf("Match! +%d points. Time's up!", turn.Award)
	case turn.Ended:
		return "Game over"
	case turn.Award > 0:
		return fmt.Sprintf("Match! +%d points", turn.Award)
	case turn.Matched:
		return "Pair already found"
	default:
		return fmt.Sprintf("No match: %s and %s", turn.First.Key, turn.Second.Key)
	}
}
