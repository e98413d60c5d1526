package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodlog-insights/internal/models"
)

// GetMoodRecords retrieves a user's mood records in [start, end).
// Records are owned by the mood-logging service; this is a read-only view.
func (c *Client) GetMoodRecords(ctx context.Context, userID int64, start, end time.Time) ([]models.MoodRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var records []models.MoodRecord
	operation := "get_mood_records"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("mood_entries").
			Select("id,user_id,emotion_type,mood_description,triggers,record_time", "exact", false).
			Eq("user_id", fmt.Sprintf("%d", userID)).
			Gte("record_time", start.UTC().Format(time.RFC3339)).
			Lt("record_time", end.UTC().Format(time.RFC3339)).
			Order("record_time", nil).
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch mood records: %w", err)
		}

		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to unmarshal mood records: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Int64("user_id", userID).
			Time("start", start).
			Time("end", end).
			Msg("Failed to get mood records")
		return nil, err
	}

	c.logger.Debug().
		Int64("user_id", userID).
		Int("record_count", len(records)).
		Msg("Retrieved mood records")

	return records, nil
}

// GetActiveUserIDs returns the ids of users with at least one mood record
// since the given instant. Used by the weekly report scheduler.
func (c *Client) GetActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rows []struct {
		UserID int64 `json:"user_id"`
	}
	operation := "get_active_user_ids"

	err := c.withRetry(ctx, operation, func() error {
		data, _, err := c.client.From("mood_entries").
			Select("user_id", "exact", false).
			Gte("record_time", since.UTC().Format(time.RFC3339)).
			Execute()

		if err != nil {
			return fmt.Errorf("failed to fetch active users: %w", err)
		}

		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("failed to unmarshal active users: %w", err)
		}

		return nil
	})

	if err != nil {
		c.logger.Error().
			Err(err).
			Time("since", since).
			Msg("Failed to get active user ids")
		return nil, err
	}

	// Postgrest cannot GROUP BY through this client; dedupe in Go
	seen := make(map[int64]bool, len(rows))
	userIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			userIDs = append(userIDs, row.UserID)
		}
	}

	c.logger.Debug().
		Int("user_count", len(userIDs)).
		Time("since", since).
		Msg("Retrieved active user ids")

	return userIDs, nil
}
