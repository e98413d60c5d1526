package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moodlog-insights/internal/models"
	"github.com/moodlog-insights/internal/ratelimit"
	"github.com/rs/zerolog"
)

// ReportGenerator runs one report generation end to end
type ReportGenerator interface {
	Generate(ctx context.Context, userID int64, request *models.AnalysisRequest) (*models.AnalysisReportResponse, error)
}

// ReportReader serves stored reports
type ReportReader interface {
	GetReportByID(ctx context.Context, userID int64, reportID string) (*models.AnalysisReport, error)
	ListReports(ctx context.Context, userID int64, limit int) ([]models.AnalysisReport, error)
}

// Handler handles AI analysis HTTP requests
type Handler struct {
	generator ReportGenerator
	reports   ReportReader
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(generator ReportGenerator, reports ReportReader, limiter *ratelimit.Limiter, logger zerolog.Logger) *Handler {
	return &Handler{
		generator: generator,
		reports:   reports,
		limiter:   limiter,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// GenerateAnalysis generates a new analysis report for the caller
// POST /api/v1/ai-analysis/generate
func (h *Handler) GenerateAnalysis(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	// The request body is optional; an empty body means full defaults
	var request models.AnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON", nil)
			return
		}
	}

	if h.limiter != nil {
		limit, err := h.limiter.CheckLimit(c.Request.Context(), userID)
		if err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to check usage limit", nil)
			return
		}
		if !limit.Allowed {
			respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", "daily analysis limit reached", gin.H{
				"limit":         limit.Limit,
				"used":          limit.Used,
				"resetsInHours": limit.ResetsInHours,
			})
			return
		}
	}

	response, err := h.generator.Generate(c.Request.Context(), userID, &request)
	if err != nil {
		h.respondPipelineError(c, userID, err)
		return
	}

	if h.limiter != nil {
		if err := h.limiter.IncrementUsage(c.Request.Context(), userID); err != nil {
			// The report already exists; losing one usage tick is acceptable
			h.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to record usage")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "analysis report generated",
		"data":    response,
	})
}

// GetReport returns one stored report by its public id
// GET /api/v1/ai-analysis/reports/:reportId
func (h *Handler) GetReport(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	reportID := c.Param("reportId")
	report, err := h.reports.GetReportByID(c.Request.Context(), userID, reportID)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", reportID).Msg("Failed to load report")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load report", nil)
		return
	}
	if report == nil {
		respondError(c, http.StatusNotFound, "REPORT_NOT_FOUND", "no such report", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ListReports returns the caller's report history, newest first
// GET /api/v1/ai-analysis/reports
func (h *Handler) ListReports(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer between 1 and 100", nil)
			return
		}
		limit = parsed
	}

	reports, err := h.reports.ListReports(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list reports")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list reports", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reports,
	})
}

// respondPipelineError maps the pipeline error taxonomy onto HTTP statuses
func (h *Handler) respondPipelineError(c *gin.Context, userID int64, err error) {
	var insufficient *models.InsufficientDataError
	if errors.As(err, &insufficient) {
		respondError(c, http.StatusBadRequest, "INSUFFICIENT_DATA",
			"not enough mood records in the requested period", gin.H{
				"requiredDays":  insufficient.Required,
				"availableDays": insufficient.Available,
			})
		return
	}

	var upstream *models.UpstreamUnavailableError
	if errors.As(err, &upstream) {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Model service unavailable")
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE",
			"the analysis service is temporarily unavailable, please retry later", nil)
		return
	}

	var malformed *models.MalformedResponseError
	if errors.As(err, &malformed) {
		h.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("raw_payload", malformed.RawPayload).
			Msg("Model returned unparseable response")
		respondError(c, http.StatusBadGateway, "MALFORMED_RESPONSE",
			"the analysis service returned an unusable result", nil)
		return
	}

	var persistence *models.PersistenceError
	if errors.As(err, &persistence) {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Storage operation failed")
		respondError(c, http.StatusInternalServerError, "PERSISTENCE_FAILED",
			"the report could not be generated, please retry", nil)
		return
	}

	var validation *models.ValidationError
	if errors.As(err, &validation) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", validation.Reason, nil)
		return
	}

	// Anything else is a service fault; the detail stays in the logs
	h.logger.Error().Err(err).Int64("user_id", userID).Msg("Report generation failed")
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR",
		"report generation failed", nil)
}

// callerID extracts the authenticated user id from the X-User-ID header.
// Session issuance and verification live in the auth service upstream; by
// the time a request reaches this service the header is trusted.
func callerID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing X-User-ID header", nil)
		return 0, false
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid X-User-ID header", nil)
		return 0, false
	}

	return userID, true
}

func respondError(c *gin.Context, status int, code, message string, details gin.H) {
	body := gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if details != nil {
		body["error"].(gin.H)["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}
