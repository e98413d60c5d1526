package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moodlog-insights/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	errs    map[int64]error
	calls   []int64
	onCall  func(userID int64)
	lastReq *models.AnalysisRequest
}

func (f *fakeGenerator) Generate(_ context.Context, userID int64, request *models.AnalysisRequest) (*models.AnalysisReportResponse, error) {
	f.calls = append(f.calls, userID)
	f.lastReq = request
	if f.onCall != nil {
		f.onCall(userID)
	}
	if err, ok := f.errs[userID]; ok {
		return nil, err
	}
	return &models.AnalysisReportResponse{ReportID: "r-1"}, nil
}

type fakeUserSource struct {
	userIDs []int64
	err     error
	since   time.Time
}

func (f *fakeUserSource) GetActiveUserIDs(_ context.Context, since time.Time) ([]int64, error) {
	f.since = since
	return f.userIDs, f.err
}

func newTestScheduler(t *testing.T, generator *fakeGenerator, users *fakeUserSource) *Scheduler {
	t.Helper()
	sched, err := NewScheduler(generator, users, "0 8 * * 1", "UTC", zerolog.Nop())
	require.NoError(t, err)
	return sched
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	_, err := NewScheduler(&fakeGenerator{}, &fakeUserSource{}, "0 8 * * 1", "Not/AZone", zerolog.Nop())
	assert.Error(t, err)
}

func TestRunWeeklyReports_GeneratesForActiveUsers(t *testing.T) {
	generator := &fakeGenerator{}
	users := &fakeUserSource{userIDs: []int64{1, 2, 3}}
	sched := newTestScheduler(t, generator, users)

	sched.runWeeklyReports(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, generator.calls)
	require.NotNil(t, generator.lastReq)
	assert.Equal(t, models.DefaultAnalysisType, generator.lastReq.AnalysisType)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), users.since, time.Minute)
}

func TestRunWeeklyReports_SkipsUsersBelowThreshold(t *testing.T) {
	generator := &fakeGenerator{errs: map[int64]error{
		2: &models.InsufficientDataError{Required: 3, Available: 1},
	}}
	users := &fakeUserSource{userIDs: []int64{1, 2, 3}}
	sched := newTestScheduler(t, generator, users)

	sched.runWeeklyReports(context.Background())

	// User 2 has too little data; the run still reaches user 3
	assert.Equal(t, []int64{1, 2, 3}, generator.calls)
}

func TestRunWeeklyReports_ContinuesPastFailures(t *testing.T) {
	generator := &fakeGenerator{errs: map[int64]error{
		1: &models.UpstreamUnavailableError{Attempts: 3, StatusCode: 503},
		2: errors.New("postgrest: connection refused"),
	}}
	users := &fakeUserSource{userIDs: []int64{1, 2, 3}}
	sched := newTestScheduler(t, generator, users)

	sched.runWeeklyReports(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, generator.calls)
}

func TestRunWeeklyReports_CancellationStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	generator := &fakeGenerator{onCall: func(int64) { cancel() }}
	users := &fakeUserSource{userIDs: []int64{1, 2, 3}}
	sched := newTestScheduler(t, generator, users)

	sched.runWeeklyReports(ctx)

	// Cancellation during user 1 means users 2 and 3 are never attempted
	assert.Equal(t, []int64{1}, generator.calls)
}

func TestRunWeeklyReports_UserSourceFailure(t *testing.T) {
	generator := &fakeGenerator{}
	users := &fakeUserSource{err: errors.New("postgrest: timeout")}
	sched := newTestScheduler(t, generator, users)

	sched.runWeeklyReports(context.Background())

	assert.Empty(t, generator.calls)
}
