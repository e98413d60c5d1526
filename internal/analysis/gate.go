package analysis

import "github.com/moodlog-insights/internal/models"

// MinRecordsForAnalysis is the sufficiency threshold: the minimum number of
// mood records a period must contain before generation is attempted. This is
// a fixed business constant, not configurable per call.
const MinRecordsForAnalysis = 3

// CheckSufficiency passes the record list through unchanged when it holds
// enough data, and fails with *models.InsufficientDataError otherwise.
func CheckSufficiency(records []models.MoodRecord) ([]models.MoodRecord, error) {
	if len(records) < MinRecordsForAnalysis {
		return nil, &models.InsufficientDataError{
			Required:  MinRecordsForAnalysis,
			Available: len(records),
		}
	}
	return records, nil
}
