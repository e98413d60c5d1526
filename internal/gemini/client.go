package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/moodlog-insights/internal/models"
	"github.com/rs/zerolog"
)

// Client calls the Gemini generateContent REST endpoint directly.
// The raw REST API is used instead of the genai SDK because the pipeline
// needs the response envelope verbatim and classifies retries by HTTP status.
type Client struct {
	apiURL     string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// terminalStatusError marks an HTTP status that cannot succeed on retry
type terminalStatusError struct {
	status int
	body   string
}

func (e *terminalStatusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.status, e.body)
}

// retryableStatusError marks an HTTP status worth another attempt
type retryableStatusError struct {
	status int
	body   string
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.status, e.body)
}

// NewClient creates a new Gemini REST client
func NewClient(apiURL, apiKey string, timeout int, logger zerolog.Logger) *Client {
	return &Client{
		apiURL:  apiURL,
		apiKey:  apiKey,
		timeout: time.Duration(timeout) * time.Second,
		httpClient: &http.Client{
			// The per-attempt context carries the deadline; the client-level
			// timeout is a backstop only.
			Timeout: time.Duration(timeout+5) * time.Second,
		},
		logger: logger.With().Str("component", "gemini").Logger(),
	}
}

// Generate sends the prompt to the model and returns the raw response body.
// Attempts are bounded by MaxAttempts with a fixed jittered backoff between
// them. Network failures, timeouts, 429 and 5xx are retried; other non-2xx
// statuses fail fast because repeating the identical request cannot help.
// On exhaustion or a terminal status the error is *models.UpstreamUnavailableError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := BaseBackoff + time.Duration(rand.Int63n(int64(MaxJitter)))
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying Gemini request")

			select {
			case <-ctx.Done():
				return "", &models.UpstreamUnavailableError{
					Attempts:   attempt - 1,
					StatusCode: lastStatus,
					Err:        ctx.Err(),
				}
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, prompt)
		if err == nil {
			c.logger.Info().
				Int("attempt", attempt).
				Int("response_length", len(body)).
				Msg("Gemini request succeeded")
			return body, nil
		}

		lastErr = err
		c.logger.Error().
			Err(err).
			Int("attempt", attempt).
			Msg("Gemini request failed")

		var terminal *terminalStatusError
		if errors.As(err, &terminal) {
			return "", &models.UpstreamUnavailableError{
				Attempts:   attempt,
				StatusCode: terminal.status,
				Err:        err,
			}
		}

		var retryable *retryableStatusError
		if errors.As(err, &retryable) {
			lastStatus = retryable.status
		}

		// Parent cancellation ends the retry loop immediately; a per-attempt
		// deadline alone does not.
		if ctx.Err() != nil {
			return "", &models.UpstreamUnavailableError{
				Attempts:   attempt,
				StatusCode: lastStatus,
				Err:        ctx.Err(),
			}
		}
	}

	return "", &models.UpstreamUnavailableError{
		Attempts:   MaxAttempts,
		StatusCode: lastStatus,
		Err:        lastErr,
	}
}

// doRequest performs exactly one logical request against the endpoint
func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(newGenerateRequest(prompt))
	if err != nil {
		return "", &terminalStatusError{status: 0, body: fmt.Sprintf("failed to encode request: %v", err)}
	}

	url := c.apiURL + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &terminalStatusError{status: 0, body: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and attempt timeouts are retryable
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return string(body), nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &retryableStatusError{status: resp.StatusCode, body: truncate(string(body), 512)}
	}

	return "", &terminalStatusError{status: resp.StatusCode, body: truncate(string(body), 512)}
}

// truncate shortens diagnostic bodies for logs and error messages
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
