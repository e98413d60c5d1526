package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorageClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(url, "test-key", 5, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestIncrementAnalysisUsage_CallsRPC(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/rpc/increment_analysis_usage"), "path %s", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var params map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &params))
		assert.Equal(t, float64(42), params["p_user_id"])
		assert.Equal(t, "2025-06-10", params["p_date"])

		w.Write([]byte("3"))
	}))
	defer server.Close()

	client := newTestStorageClient(t, server.URL)

	err := client.IncrementAnalysisUsage(context.Background(), 42, "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIncrementAnalysisUsage_FailureIsSingleAttempt(t *testing.T) {
	var calls int32

	// An empty response body is the failure signal; the mutating RPC must
	// not be re-executed, or one generation could be counted several times.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestStorageClient(t, server.URL)

	err := client.IncrementAnalysisUsage(context.Background(), 42, "2025-06-10")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
