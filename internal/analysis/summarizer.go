package analysis

import "github.com/moodlog-insights/internal/models"

// Summarize reduces a validated record list to its numeric feature summary:
// the record count and the mean emotion score per the versioned score table.
// Pure and deterministic. The gate guarantees the list is never empty here;
// an empty list yields TotalEntries 0 and AverageScore 0 rather than hiding
// the condition behind a fabricated default.
func Summarize(records []models.MoodRecord) models.FeatureSummary {
	summary := models.FeatureSummary{TotalEntries: len(records)}
	if len(records) == 0 {
		return summary
	}

	total := 0
	for _, record := range records {
		total += record.EmotionType.Score()
	}
	summary.AverageScore = float64(total) / float64(len(records))

	return summary
}
