// Package stats defines the end-of-session report and the running aggregate
// kept per player profile.
package stats

import (
	"context"
	"time"
)

// Report is what a finished session hands to its statistics sink
type Report struct {
	Matches        int   `json:"matches"`
	Moves          int   `json:"moves"`
	DurationMillis int64 `json:"duration_millis"`
	Score          int   `json:"score"`
	Timed          bool  `json:"timed"`
}

// Duration returns the report's duration as a time.Duration
func (r Report) Duration() time.Duration {
	return time.Duration(r.DurationMillis) * time.Millisecond
}

// Sink receives session reports. Implementations must tolerate being called
// from a goroutine other than the one that ended the session.
type Sink interface {
	RecordSession(ctx context.Context, report Report) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, report Report) error

// RecordSession calls f
func (f SinkFunc) RecordSession(ctx context.Context, report Report) error {
	return f(ctx, report)
}

// Aggregate accumulates reports across sessions.
//
// BestScore is the lowest move count seen and BestTime the shortest duration;
// both are seeded by the first report.
type Aggregate struct {
	GamesPlayed      int   `json:"games_played"`
	TimedGamesPlayed int   `json:"timed_games_played"`
	TotalMatches     int   `json:"total_matches"`
	TotalMoves       int   `json:"total_moves"`
	TotalTimeMillis  int64 `json:"total_time_millis"`
	TotalScore       int   `json:"total_score"`
	BestScore        int   `json:"best_score"`
	BestTimeMillis   int64 `json:"best_time_millis"`
}

// Record folds one report into the aggregate
func (a *Aggregate) Record(r Report) {
	first := a.GamesPlayed == 0

	a.GamesPlayed++
	if r.Timed {
		a.TimedGamesPlayed++
	}
	a.TotalMatches += r.Matches
	a.TotalMoves += r.Moves
	a.TotalTimeMillis += r.DurationMillis
	a.TotalScore += r.Score

	if first || r.Moves < a.BestScore {
		a.BestScore = r.Moves
	}
	if first || r.DurationMillis < a.BestTimeMillis {
		a.BestTimeMillis = r.DurationMillis
	}
}

// AverageMoves returns the mean move count per game
func (a Aggregate) AverageMoves() float64 {
	if a.GamesPlayed == 0 {
		return 0
	}
	return float64(a.TotalMoves) / float64(a.GamesPlayed)
}

// AverageTime returns the mean duration per game
func (a Aggregate) AverageTime() time.Duration {
	if a.GamesPlayed == 0 {
		return 0
	}
	return time.Duration(a.TotalTimeMillis/int64(a.GamesPlayed)) * time.Millisecond
}

// BestTime returns the shortest recorded duration
func (a Aggregate) BestTime() time.Duration {
	return time.Duration(a.BestTimeMillis) * time.Millisecond
}
