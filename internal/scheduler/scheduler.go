package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moodlog-insights/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ReportGenerator runs one report generation request for a user
type ReportGenerator interface {
	Generate(ctx context.Context, userID int64, request *models.AnalysisRequest) (*models.AnalysisReportResponse, error)
}

// UserSource lists users with recent mood activity
type UserSource interface {
	GetActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)
}

// Scheduler generates weekly analysis reports on a cron schedule for every
// user who logged moods during the trailing week. Users below the
// sufficiency threshold are skipped, not failed.
type Scheduler struct {
	generator ReportGenerator
	users     UserSource
	cronSpec  string
	timezone  *time.Location
	cron      *cron.Cron
	logger    zerolog.Logger
}

// NewScheduler creates a weekly report scheduler
func NewScheduler(
	generator ReportGenerator,
	users UserSource,
	cronSpec string,
	timezone string,
	logger zerolog.Logger,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}

	return &Scheduler{
		generator: generator,
		users:     users,
		cronSpec:  cronSpec,
		timezone:  loc,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start registers the cron job and begins scheduling. It blocks until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.timezone))

	_, err := s.cron.AddFunc(s.cronSpec, func() {
		s.runWeeklyReports(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to register weekly report job: %w", err)
	}

	s.logger.Info().
		Str("cron", s.cronSpec).
		Str("timezone", s.timezone.String()).
		Msg("Scheduler started")

	s.cron.Start()

	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
	return ctx.Err()
}

// Stop halts scheduling and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
}

// runWeeklyReports generates a weekly report for every recently active user
func (s *Scheduler) runWeeklyReports(ctx context.Context) {
	now := time.Now().In(s.timezone)
	since := now.AddDate(0, 0, -7)

	s.logger.Info().
		Time("since", since).
		Msg("Running scheduled weekly reports")

	userIDs, err := s.users.GetActiveUserIDs(ctx, since)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active users")
		return
	}

	s.logger.Info().
		Int("user_count", len(userIDs)).
		Msg("Generating weekly reports for active users")

	generated := 0
	skipped := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			s.logger.Warn().Msg("Weekly report run cancelled")
			return
		}

		if err := s.generateForUser(ctx, userID); err != nil {
			var insufficient *models.InsufficientDataError
			if errors.As(err, &insufficient) {
				skipped++
				s.logger.Debug().
					Int64("user_id", userID).
					Int("available", insufficient.Available).
					Msg("Skipping user with too little data")
				continue
			}

			s.logger.Error().
				Err(err).
				Int64("user_id", userID).
				Msg("Failed to generate weekly report")
			continue
		}
		generated++
	}

	s.logger.Info().
		Int("generated", generated).
		Int("skipped", skipped).
		Msg("Scheduled weekly reports completed")
}

// generateForUser runs the pipeline with the default weekly request
func (s *Scheduler) generateForUser(ctx context.Context, userID int64) error {
	request := &models.AnalysisRequest{AnalysisType: models.DefaultAnalysisType}

	_, err := s.generator.Generate(ctx, userID, request)
	return err
}
