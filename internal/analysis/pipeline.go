package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlog-insights/internal/models"
	"github.com/rs/zerolog"
)

// RecordSource looks up mood records for a user and period. The mood-logging
// service owns the record lifecycle; this pipeline only reads.
type RecordSource interface {
	GetMoodRecords(ctx context.Context, userID int64, start, end time.Time) ([]models.MoodRecord, error)
}

// ModelClient delivers a prompt to the generation endpoint and returns the
// raw response payload.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ReportStore persists finished reports and looks up existing ones
type ReportStore interface {
	SaveAnalysisReport(ctx context.Context, report *models.AnalysisReport) (*models.AnalysisReport, error)
	FindReportForPeriod(ctx context.Context, userID int64, analysisType, startDate, endDate string) (*models.AnalysisReport, error)
}

// PipelineOptions carry the static metadata and policy layered into reports
type PipelineOptions struct {
	// Timeout bounds one end-to-end run
	Timeout time.Duration
	// Confidence and APICost are static config constants stamped onto every
	// report; the pipeline does not measure either.
	Confidence float64
	APICost    float64
	// RegeneratePolicy decides whether an existing report for the same
	// (user, type, period) short-circuits generation.
	RegeneratePolicy models.RegeneratePolicy
}

// Pipeline sequences one report generation end to end: defaults, record
// fetch, sufficiency gate, feature summary, prompt, model call, parse,
// persist, assemble. Any stage failure aborts the rest; nothing is stored
// unless every upstream stage succeeded.
type Pipeline struct {
	records  RecordSource
	model    ModelClient
	parser   *Parser
	store    ReportStore
	opts     PipelineOptions
	timezone *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPipeline creates a report generation pipeline
func NewPipeline(
	records RecordSource,
	model ModelClient,
	store ReportStore,
	opts PipelineOptions,
	timezone *time.Location,
	logger zerolog.Logger,
) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.RegeneratePolicy == "" {
		opts.RegeneratePolicy = models.RegenerateAlways
	}
	if timezone == nil {
		timezone = time.UTC
	}

	return &Pipeline{
		records:  records,
		model:    model,
		parser:   NewParser(logger),
		store:    store,
		opts:     opts,
		timezone: timezone,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		now:      time.Now,
	}
}

// Generate runs the full pipeline for one request and returns the
// caller-facing response. Failures surface as one of the four terminal
// errors: InsufficientData, UpstreamUnavailable, MalformedResponse or
// PersistenceFailed; an unusable request fails with *models.ValidationError
// before any stage runs.
func (p *Pipeline) Generate(ctx context.Context, userID int64, request *models.AnalysisRequest) (*models.AnalysisReportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	resolved, err := p.resolveRequest(request)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With().
		Int64("user_id", userID).
		Str("analysis_type", resolved.AnalysisType).
		Str("start_date", resolved.Start.Format(models.DateFormat)).
		Str("end_date", resolved.End.Format(models.DateFormat)).
		Logger()

	logger.Info().Msg("Starting analysis report generation")

	if p.opts.RegeneratePolicy == models.RegenerateReuse {
		existing, err := p.store.FindReportForPeriod(ctx, userID,
			resolved.AnalysisType,
			resolved.Start.Format(models.DateFormat),
			resolved.End.Format(models.DateFormat))
		if err != nil {
			return nil, &models.PersistenceError{Op: "find existing report", Err: err}
		}
		if existing != nil {
			logger.Info().
				Str("report_id", existing.ReportID).
				Msg("Reusing existing report for period")
			return AssembleResponse(existing), nil
		}
	}

	// Fetch records for the resolved period. The end boundary is inclusive
	// at date granularity, so query up to the start of the following day.
	records, err := p.records.GetMoodRecords(ctx, userID, resolved.Start, resolved.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, &models.PersistenceError{Op: "fetch mood records", Err: err}
	}

	if _, err := CheckSufficiency(records); err != nil {
		logger.Info().
			Int("available", len(records)).
			Msg("Not enough mood data for analysis")
		return nil, err
	}

	summary := Summarize(records)
	logger.Debug().
		Int("total_entries", summary.TotalEntries).
		Float64("average_score", summary.AverageScore).
		Msg("Computed feature summary")

	prompt := BuildPrompt(summary, resolved.Preferences)

	rawResponse, err := p.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := p.parser.Parse(rawResponse)
	if err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		UserID:          userID,
		AnalysisType:    resolved.AnalysisType,
		StartDate:       resolved.Start.Format(models.DateFormat),
		EndDate:         resolved.End.Format(models.DateFormat),
		Summary:         result.Summary,
		Patterns:        result.Patterns,
		Recommendations: result.Recommendations,
		RiskAssessment:  result.RiskAssessment,
		DataPoints:      summary.TotalEntries,
		ConfidenceScore: p.opts.Confidence,
		APICost:         p.opts.APICost,
	}

	saved, err := p.store.SaveAnalysisReport(ctx, report)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("report_id", saved.ReportID).
		Int("data_points", saved.DataPoints).
		Msg("Analysis report generated")

	return AssembleResponse(saved), nil
}

// resolveRequest applies defaults and parses period boundaries. The default
// period is the trailing 7 days ending today in the service timezone.
func (p *Pipeline) resolveRequest(request *models.AnalysisRequest) (*models.ResolvedRequest, error) {
	if request == nil {
		request = &models.AnalysisRequest{}
	}

	resolved := &models.ResolvedRequest{
		AnalysisType: request.AnalysisType,
		Preferences: models.AnalysisPreferences{
			Language: models.DefaultLanguage,
			Depth:    models.DefaultDepth,
		},
	}
	if resolved.AnalysisType == "" {
		resolved.AnalysisType = models.DefaultAnalysisType
	}

	if request.Preferences != nil {
		if request.Preferences.Language != "" {
			resolved.Preferences.Language = request.Preferences.Language
		}
		if request.Preferences.Depth != "" {
			resolved.Preferences.Depth = request.Preferences.Depth
		}
		resolved.Preferences.FocusAreas = request.Preferences.FocusAreas
	}

	now := p.now().In(p.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.timezone)

	var err error
	resolved.End = today
	if request.DateRange != nil && request.DateRange.EndDate != "" {
		resolved.End, err = time.ParseInLocation(models.DateFormat, request.DateRange.EndDate, p.timezone)
		if err != nil {
			return nil, &models.ValidationError{
				Reason: fmt.Sprintf("endDate %q is not a valid %s date", request.DateRange.EndDate, models.DateFormat),
			}
		}
	}

	resolved.Start = resolved.End.AddDate(0, 0, -6)
	if request.DateRange != nil && request.DateRange.StartDate != "" {
		resolved.Start, err = time.ParseInLocation(models.DateFormat, request.DateRange.StartDate, p.timezone)
		if err != nil {
			return nil, &models.ValidationError{
				Reason: fmt.Sprintf("startDate %q is not a valid %s date", request.DateRange.StartDate, models.DateFormat),
			}
		}
	}

	if resolved.Start.After(resolved.End) {
		return nil, &models.ValidationError{
			Reason: fmt.Sprintf("start %s is after end %s",
				resolved.Start.Format(models.DateFormat), resolved.End.Format(models.DateFormat)),
		}
	}

	return resolved, nil
}
