package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetAnalysisUsage returns how many reports a user has generated on the
// given local date. Missing rows count as zero.
func (c *Client) GetAnalysisUsage(ctx context.Context, userID int64, date string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rows []struct {
		ReportsCount int `json:"reports_count"`
	}
	operation := "get_analysis_usage"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("analysis_usage").
			Select("reports_count", "exact", false).
			Eq("user_id", fmt.Sprintf("%d", userID)).
			Eq("date", date).
			Limit(1, "").
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch analysis usage: %w", err)
		}

		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("failed to unmarshal analysis usage: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("date", date).
			Msg("Failed to get analysis usage")
		return 0, err
	}

	if len(rows) == 0 {
		return 0, nil
	}

	return rows[0].ReportsCount, nil
}

// IncrementAnalysisUsage atomically bumps the user's generation count for
// the given local date via an RPC upsert. Single attempt: the RPC mutates
// the counter and returns the new count, so repeating it after an ambiguous
// failure could record the same generation twice. The caller treats a failed
// tick as acceptable loss.
func (c *Client) IncrementAnalysisUsage(ctx context.Context, userID int64, date string) error {
	params := map[string]interface{}{
		"p_user_id": userID,
		"p_date":    date,
	}

	result := c.client.Rpc("increment_analysis_usage", "", params)
	if result == "" {
		err := fmt.Errorf("failed to increment analysis usage: RPC returned empty")
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Str("date", date).
			Msg("Failed to increment analysis usage")
		return err
	}

	c.logger.Debug().
		Int64("user_id", userID).
		Str("date", date).
		Msg("Analysis usage incremented")

	return nil
}
