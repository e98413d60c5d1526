package models

import "time"

// EmotionType represents the emotion category of a mood record
type EmotionType string

const (
	EmotionAngry   EmotionType = "angry"
	EmotionSad     EmotionType = "sad"
	EmotionAnxious EmotionType = "anxious"
	EmotionTired   EmotionType = "tired"
	EmotionCalm    EmotionType = "calm"
	EmotionHappy   EmotionType = "happy"
	EmotionExcited EmotionType = "excited"
)

// EmotionScoreTableVersion identifies the score table below. Bump it when
// scores change so stored reports can be traced to the table that produced them.
const EmotionScoreTableVersion = 1

// emotionScores maps each emotion category to its numeric mood score.
// Scores are assigned explicitly rather than derived from declaration order,
// so adding or reordering categories never changes existing scores.
var emotionScores = map[EmotionType]int{
	EmotionAngry:   1,
	EmotionSad:     2,
	EmotionAnxious: 3,
	EmotionTired:   4,
	EmotionCalm:    5,
	EmotionHappy:   6,
	EmotionExcited: 7,
}

// neutralScore is used for emotion categories missing from the score table
// (e.g. records written by a newer client before the table is extended).
const neutralScore = 4

// Score returns the numeric mood score for the emotion type.
func (e EmotionType) Score() int {
	if score, ok := emotionScores[e]; ok {
		return score
	}
	return neutralScore
}

// String returns string representation of EmotionType
func (e EmotionType) String() string {
	return string(e)
}

// MoodRecord represents one timestamped user-submitted emotional observation.
// Records are created by the mood-logging service and consumed read-only here.
type MoodRecord struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	EmotionType     EmotionType `json:"emotion_type"`
	MoodDescription string      `json:"mood_description,omitempty"`
	Triggers        []string    `json:"triggers,omitempty"`
	RecordTime      time.Time   `json:"record_time"`
}

// FeatureSummary is the compact numeric aggregate derived from a record list.
// It is ephemeral: computed per pipeline run and never persisted on its own.
type FeatureSummary struct {
	TotalEntries int
	AverageScore float64
}
