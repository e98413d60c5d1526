package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlog-insights/internal/models"
	"github.com/moodlog-insights/internal/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response *models.AnalysisReportResponse
	err      error
	calls    int
	lastUser int64
	lastReq  *models.AnalysisRequest
}

func (f *fakeGenerator) Generate(_ context.Context, userID int64, request *models.AnalysisRequest) (*models.AnalysisReportResponse, error) {
	f.calls++
	f.lastUser = userID
	f.lastReq = request
	return f.response, f.err
}

type fakeReader struct {
	report  *models.AnalysisReport
	reports []models.AnalysisReport
	err     error
	limit   int
}

func (f *fakeReader) GetReportByID(_ context.Context, _ int64, _ string) (*models.AnalysisReport, error) {
	return f.report, f.err
}

func (f *fakeReader) ListReports(_ context.Context, _ int64, limit int) ([]models.AnalysisReport, error) {
	f.limit = limit
	return f.reports, f.err
}

type fakeUsageStore struct {
	used       int
	getErr     error
	increments int
	incErr     error
}

func (f *fakeUsageStore) GetAnalysisUsage(_ context.Context, _ int64, _ string) (int, error) {
	return f.used, f.getErr
}

func (f *fakeUsageStore) IncrementAnalysisUsage(_ context.Context, _ int64, _ string) error {
	f.increments++
	return f.incErr
}

func newTestRouter(t *testing.T, generator *fakeGenerator, reader *fakeReader, usage *fakeUsageStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var limiter *ratelimit.Limiter
	if usage != nil {
		var err error
		limiter, err = ratelimit.NewLimiter(usage, "UTC", 5, zerolog.Nop())
		require.NoError(t, err)
	}

	handler := NewHandler(generator, reader, limiter, zerolog.Nop())

	router := gin.New()
	group := router.Group("/api/v1/ai-analysis")
	group.POST("/generate", handler.GenerateAnalysis)
	group.GET("/reports", handler.ListReports)
	group.GET("/reports/:reportId", handler.GetReport)
	return router
}

func doRequest(router *gin.Engine, method, path, userID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	require.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	code, _ := errObj["code"].(string)
	return code
}

func TestGenerateAnalysis_Success(t *testing.T) {
	generator := &fakeGenerator{response: &models.AnalysisReportResponse{
		ReportID:    "r-1",
		GeneratedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		Metadata:    models.AnalysisMetadata{DataPoints: 5, AnalysisConfidence: 0.85, APICost: 0.024},
	}}
	usage := &fakeUsageStore{used: 0}
	router := newTestRouter(t, generator, &fakeReader{}, usage)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "r-1", data["reportId"])

	assert.Equal(t, int64(42), generator.lastUser)
	assert.Equal(t, 1, usage.increments)
}

func TestGenerateAnalysis_BodyIsOptional(t *testing.T) {
	generator := &fakeGenerator{response: &models.AnalysisReportResponse{ReportID: "r-1"}}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, generator.lastReq)
	assert.Empty(t, generator.lastReq.AnalysisType)
	assert.Nil(t, generator.lastReq.DateRange)
}

func TestGenerateAnalysis_ForwardsRequestBody(t *testing.T) {
	generator := &fakeGenerator{response: &models.AnalysisReportResponse{ReportID: "r-1"}}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	payload := []byte(`{"analysisType":"monthly","dateRange":{"startDate":"2025-05-01","endDate":"2025-05-31"},"preferences":{"language":"ko"}}`)
	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", payload)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, generator.lastReq)
	assert.Equal(t, "monthly", generator.lastReq.AnalysisType)
	require.NotNil(t, generator.lastReq.DateRange)
	assert.Equal(t, "2025-05-01", generator.lastReq.DateRange.StartDate)
	require.NotNil(t, generator.lastReq.Preferences)
	assert.Equal(t, "ko", generator.lastReq.Preferences.Language)
}

func TestGenerateAnalysis_InvalidJSONBody(t *testing.T) {
	generator := &fakeGenerator{}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", []byte("{not json"))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, decodeBody(t, recorder)))
	assert.Zero(t, generator.calls)
}

func TestGenerateAnalysis_MissingUserHeader(t *testing.T) {
	generator := &fakeGenerator{}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "", nil)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, decodeBody(t, recorder)))
	assert.Zero(t, generator.calls)
}

func TestGenerateAnalysis_InvalidUserHeader(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{}, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "not-a-number", nil)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, decodeBody(t, recorder)))
}

func TestGenerateAnalysis_RateLimited(t *testing.T) {
	generator := &fakeGenerator{}
	usage := &fakeUsageStore{used: 5}
	router := newTestRouter(t, generator, &fakeReader{}, usage)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, body))

	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, float64(5), details["limit"])
	assert.Equal(t, float64(5), details["used"])

	assert.Zero(t, generator.calls)
	assert.Zero(t, usage.increments)
}

func TestGenerateAnalysis_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient data",
			err:        &models.InsufficientDataError{Required: 3, Available: 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INSUFFICIENT_DATA",
		},
		{
			name:       "upstream unavailable",
			err:        &models.UpstreamUnavailableError{Attempts: 3, StatusCode: 503},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:       "malformed response",
			err:        &models.MalformedResponseError{Reason: "no sections", RawPayload: "oops"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "MALFORMED_RESPONSE",
		},
		{
			name:       "persistence failed",
			err:        &models.PersistenceError{Op: "save analysis report", Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "PERSISTENCE_FAILED",
		},
		{
			name:       "request validation",
			err:        &models.ValidationError{Reason: "start 2025-06-10 is after end 2025-06-01"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unexpected failure",
			err:        errors.New("postgrest: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeGenerator{err: tt.err}, &fakeReader{}, nil)

			recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

			require.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, decodeBody(t, recorder)))
		})
	}
}

func TestGenerateAnalysis_UnexpectedErrorHidesDetails(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("postgrest: connection refused on 10.0.0.7")}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, decodeBody(t, recorder)))
	assert.NotContains(t, recorder.Body.String(), "connection refused")
	assert.NotContains(t, recorder.Body.String(), "10.0.0.7")
}

func TestGenerateAnalysis_InsufficientDataDetails(t *testing.T) {
	generator := &fakeGenerator{err: &models.InsufficientDataError{Required: 3, Available: 2}}
	router := newTestRouter(t, generator, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodPost, "/api/v1/ai-analysis/generate", "42", nil)

	body := decodeBody(t, recorder)
	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, float64(3), details["requiredDays"])
	assert.Equal(t, float64(2), details["availableDays"])
}

func TestGetReport_Found(t *testing.T) {
	reader := &fakeReader{report: &models.AnalysisReport{ReportID: "r-1", UserID: 42}}
	router := newTestRouter(t, &fakeGenerator{}, reader, nil)

	recorder := doRequest(router, http.MethodGet, "/api/v1/ai-analysis/reports/r-1", "42", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "r-1", data["report_id"])
}

func TestGetReport_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{}, &fakeReader{}, nil)

	recorder := doRequest(router, http.MethodGet, "/api/v1/ai-analysis/reports/missing", "42", nil)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", errorCode(t, decodeBody(t, recorder)))
}

func TestListReports_DefaultLimit(t *testing.T) {
	reader := &fakeReader{reports: []models.AnalysisReport{{ReportID: "r-1"}, {ReportID: "r-2"}}}
	router := newTestRouter(t, &fakeGenerator{}, reader, nil)

	recorder := doRequest(router, http.MethodGet, "/api/v1/ai-analysis/reports", "42", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 20, reader.limit)
}

func TestListReports_InvalidLimit(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{}, &fakeReader{}, nil)

	for _, raw := range []string{"0", "101", "abc"} {
		recorder := doRequest(router, http.MethodGet, "/api/v1/ai-analysis/reports?limit="+raw, "42", nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code, "limit=%s", raw)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, decodeBody(t, recorder)))
	}
}
