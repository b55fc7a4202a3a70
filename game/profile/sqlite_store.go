package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createProfilesTable = `CREATE TABLE IF NOT EXISTS profiles (
	name_key             TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	preferred_difficulty TEXT NOT NULL DEFAULT '',
	preferred_mode       TEXT NOT NULL DEFAULT '',
	games_played         INTEGER NOT NULL DEFAULT 0,
	timed_games_played   INTEGER NOT NULL DEFAULT 0,
	total_matches        INTEGER NOT NULL DEFAULT 0,
	total_moves          INTEGER NOT NULL DEFAULT 0,
	total_time_millis    INTEGER NOT NULL DEFAULT 0,
	total_score          INTEGER NOT NULL DEFAULT 0,
	best_score           INTEGER NOT NULL DEFAULT 0,
	best_time_millis     INTEGER NOT NULL DEFAULT 0,
	created_at           INTEGER NOT NULL,
	updated_at           INTEGER NOT NULL
)`

// SQLiteStore persists profiles in a SQLite database
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (or creates) the database at path and ensures the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrPersistence)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrPersistence, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %v", ErrPersistence, err)
	}
	if _, err := sqlDB.Exec(createProfilesTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrPersistence, err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts or replaces a profile
func (s *SQLiteStore) Save(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("%w: profile cannot be nil", ErrPersistence)
	}
	if err := ValidateName(p.Name); err != nil {
		return err
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	st := p.Stats
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO profiles (
		   name_key, name, preferred_difficulty, preferred_mode,
		   games_played, timed_games_played, total_matches, total_moves,
		   total_time_millis, total_score, best_score, best_time_millis,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name_key) DO UPDATE SET
		   name = excluded.name,
		   preferred_difficulty = excluded.preferred_difficulty,
		   preferred_mode = excluded.preferred_mode,
		   games_played = excluded.games_played,
		   timed_games_played = excluded.timed_games_played,
		   total_matches = excluded.total_matches,
		   total_moves = excluded.total_moves,
		   total_time_millis = excluded.total_time_millis,
		   total_score = excluded.total_score,
		   best_score = excluded.best_score,
		   best_time_millis = excluded.best_time_millis,
		   updated_at = excluded.updated_at`,
		storageKey(p.Name), p.Name, p.PreferredDifficulty, p.PreferredMode,
		st.GamesPlayed, st.TimedGamesPlayed, st.TotalMatches, st.TotalMoves,
		st.TotalTimeMillis, st.TotalScore, st.BestScore, st.BestTimeMillis,
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: save profile: %v", ErrPersistence, err)
	}
	return nil
}

// Load reads a profile by name
func (s *SQLiteStore) Load(ctx context.Context, name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var (
		p                    Profile
		createdAt, updatedAt int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT name, preferred_difficulty, preferred_mode,
		        games_played, timed_games_played, total_matches, total_moves,
		        total_time_millis, total_score, best_score, best_time_millis,
		        created_at, updated_at
		 FROM profiles WHERE name_key = ?`,
		storageKey(name),
	)
	err := row.Scan(
		&p.Name, &p.PreferredDifficulty, &p.PreferredMode,
		&p.Stats.GamesPlayed, &p.Stats.TimedGamesPlayed, &p.Stats.TotalMatches, &p.Stats.TotalMoves,
		&p.Stats.TotalTimeMillis, &p.Stats.TotalScore, &p.Stats.BestScore, &p.Stats.BestTimeMillis,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %v", ErrPersistence, err)
	}

	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

// List returns the stored profile names, sorted case-insensitively
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM profiles ORDER BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan profile: %v", ErrPersistence, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate profiles: %v", ErrPersistence, err)
	}
	return names, nil
}

// Delete removes a profile
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM profiles WHERE name_key = ?`, storageKey(name))
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", ErrPersistence, err)
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
