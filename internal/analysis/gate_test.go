package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/moodlog-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(emotions ...models.EmotionType) []models.MoodRecord {
	records := make([]models.MoodRecord, 0, len(emotions))
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for i, emotion := range emotions {
		records = append(records, models.MoodRecord{
			ID:          int64(i + 1),
			UserID:      42,
			EmotionType: emotion,
			RecordTime:  base.AddDate(0, 0, i),
		})
	}
	return records
}

func TestCheckSufficiency_EnoughRecords(t *testing.T) {
	records := makeRecords(models.EmotionHappy, models.EmotionSad, models.EmotionCalm)

	passed, err := CheckSufficiency(records)
	require.NoError(t, err)
	assert.Equal(t, records, passed)
}

func TestCheckSufficiency_TooFewRecords(t *testing.T) {
	records := makeRecords(models.EmotionHappy, models.EmotionSad)

	_, err := CheckSufficiency(records)
	require.Error(t, err)

	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 3, insufficient.Required)
	assert.Equal(t, 2, insufficient.Available)
}

func TestCheckSufficiency_EmptyList(t *testing.T) {
	_, err := CheckSufficiency(nil)
	require.Error(t, err)

	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Available)
}
