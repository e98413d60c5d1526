package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moodlog-insights/internal/models"
	"github.com/supabase/postgrest-go"
)

// SaveAnalysisReport persists one finished analysis report as a single row
// insert. The globally unique report id is generated here, at persistence
// time, so two concurrent runs can never collide. The write is deliberately
// single-attempt: a failure surfaces as *models.PersistenceError and fails
// the whole run rather than repeating the upstream model call.
func (c *Client) SaveAnalysisReport(ctx context.Context, report *models.AnalysisReport) (*models.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report.ReportID = uuid.NewString()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	data := map[string]interface{}{
		"user_id":              report.UserID,
		"report_id":            report.ReportID,
		"analysis_type":        report.AnalysisType,
		"start_date":           report.StartDate,
		"end_date":             report.EndDate,
		"summary_data":         report.Summary,
		"patterns_data":        report.Patterns,
		"recommendations_data": report.Recommendations,
		"risk_assessment_data": report.RiskAssessment,
		"data_points":          report.DataPoints,
		"confidence_score":     report.ConfidenceScore,
		"api_cost":             report.APICost,
		"created_at":           report.CreatedAt,
	}

	_, _, err := c.client.From("ai_analysis").
		Insert(data, false, "", "", "").
		Execute()

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", report.UserID).
			Str("report_id", report.ReportID).
			Msg("Failed to save analysis report")
		return nil, &models.PersistenceError{Op: "save analysis report", Err: err}
	}

	c.logger.Info().
		Int64("user_id", report.UserID).
		Str("report_id", report.ReportID).
		Str("analysis_type", report.AnalysisType).
		Int("data_points", report.DataPoints).
		Msg("Analysis report saved")

	return report, nil
}

// FindReportForPeriod returns the most recent report for the exact
// (user, type, period) triple, or nil when none exists
func (c *Client) FindReportForPeriod(ctx context.Context, userID int64, analysisType, startDate, endDate string) (*models.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reports []models.AnalysisReport
	operation := "find_report_for_period"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("ai_analysis").
			Select("*", "exact", false).
			Eq("user_id", fmt.Sprintf("%d", userID)).
			Eq("analysis_type", analysisType).
			Eq("start_date", startDate).
			Eq("end_date", endDate).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(1, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to query reports for period: %w", err)
		}

		if err := json.Unmarshal(data, &reports); err != nil {
			return fmt.Errorf("failed to unmarshal reports: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("start_date", startDate).
			Str("end_date", endDate).
			Msg("Failed to find report for period")
		return nil, err
	}

	if len(reports) == 0 {
		return nil, nil
	}

	return &reports[0], nil
}

// GetReportByID retrieves a report by its public report id, scoped to the
// owning user. Returns nil when no such report exists.
func (c *Client) GetReportByID(ctx context.Context, userID int64, reportID string) (*models.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reports []models.AnalysisReport
	operation := "get_report_by_id"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("ai_analysis").
			Select("*", "exact", false).
			Eq("user_id", fmt.Sprintf("%d", userID)).
			Eq("report_id", reportID).
			Limit(1, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch report: %w", err)
		}

		if err := json.Unmarshal(data, &reports); err != nil {
			return fmt.Errorf("failed to unmarshal report: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("report_id", reportID).
			Msg("Failed to get report by id")
		return nil, err
	}

	if len(reports) == 0 {
		return nil, nil
	}

	return &reports[0], nil
}

// ListReports returns a user's reports, newest first, up to limit
func (c *Client) ListReports(ctx context.Context, userID int64, limit int) ([]models.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	var reports []models.AnalysisReport
	operation := "list_reports"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("ai_analysis").
			Select("*", "exact", false).
			Eq("user_id", fmt.Sprintf("%d", userID)).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(limit, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}

		if err := json.Unmarshal(data, &reports); err != nil {
			return fmt.Errorf("failed to unmarshal reports: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Msg("Failed to list reports")
		return nil, err
	}

	c.logger.Debug().
		Int64("user_id", userID).
		Int("report_count", len(reports)).
		Msg("Listed analysis reports")

	return reports, nil
}
