package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// UsageStore tracks per-user daily generation counts
type UsageStore interface {
	GetAnalysisUsage(ctx context.Context, userID int64, date string) (int, error)
	IncrementAnalysisUsage(ctx context.Context, userID int64, date string) error
}

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed       bool
	Used          int
	Limit         int
	Remaining     int
	ResetsInHours int
}

// Limiter caps how many analysis reports a user may generate per local day.
// Every generation costs a model call, so the cap is primarily cost control.
type Limiter struct {
	store      UsageStore
	timezone   *time.Location
	dailyLimit int
	logger     zerolog.Logger
}

// NewLimiter creates a new rate limiter
func NewLimiter(store UsageStore, timezone string, dailyLimit int, logger zerolog.Logger) (*Limiter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}

	return &Limiter{
		store:      store,
		timezone:   loc,
		dailyLimit: dailyLimit,
		logger:     logger.With().Str("component", "ratelimit").Logger(),
	}, nil
}

// CheckLimit reports whether the user may generate another report today
func (l *Limiter) CheckLimit(ctx context.Context, userID int64) (*Result, error) {
	now := time.Now().In(l.timezone)
	dateStr := now.Format("2006-01-02")

	used, err := l.store.GetAnalysisUsage(ctx, userID, dateStr)
	if err != nil {
		l.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("date", dateStr).
			Msg("Failed to get analysis usage")
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	remaining := l.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	l.logger.Debug().
		Int64("user_id", userID).
		Int("used", used).
		Int("remaining", remaining).
		Msg("Checking rate limit")

	return &Result{
		Allowed:       remaining > 0,
		Used:          used,
		Limit:         l.dailyLimit,
		Remaining:     remaining,
		ResetsInHours: l.hoursUntilMidnight(now),
	}, nil
}

// IncrementUsage records one completed generation for the user
func (l *Limiter) IncrementUsage(ctx context.Context, userID int64) error {
	now := time.Now().In(l.timezone)
	dateStr := now.Format("2006-01-02")

	if err := l.store.IncrementAnalysisUsage(ctx, userID, dateStr); err != nil {
		l.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("date", dateStr).
			Msg("Failed to increment usage")
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	return nil
}

// hoursUntilMidnight calculates hours until midnight in the timezone
func (l *Limiter) hoursUntilMidnight(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, l.timezone)
	hours := int(midnight.Sub(now).Hours())

	// If less than 1 hour, show at least 1
	if hours < 1 {
		hours = 1
	}

	return hours
}
