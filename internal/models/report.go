package models

import "time"

// AnalysisSummary is the headline section of a generated report
type AnalysisSummary struct {
	OverallTrend string   `json:"overallTrend"`
	AverageScore float64  `json:"averageScore"`
	KeyInsights  []string `json:"keyInsights"`
	UrgencyLevel string   `json:"urgencyLevel"`
}

// WeeklyPattern describes mood variation across days of the week
type WeeklyPattern struct {
	BestDays        []string `json:"bestDays"`
	ChallengingDays []string `json:"challengingDays"`
	VolatilityIndex float64  `json:"volatilityIndex"`
}

// DailyPattern describes mood variation within a day
type DailyPattern struct {
	MorningAverage float64  `json:"morningAverage"`
	EveningAverage float64  `json:"eveningAverage"`
	PeakHours      []string `json:"peakHours"`
}

// Trigger is one factor the model identified as influencing mood
type Trigger struct {
	Factor    string  `json:"factor"`
	Frequency int     `json:"frequency"`
	Impact    float64 `json:"impact"`
}

// TriggerAnalysis splits identified triggers by direction of impact
type TriggerAnalysis struct {
	Positive []Trigger `json:"positive"`
	Negative []Trigger `json:"negative"`
}

// AnalysisPatterns is the behavioral-patterns section of a report
type AnalysisPatterns struct {
	WeeklyPattern *WeeklyPattern   `json:"weeklyPattern,omitempty"`
	DailyPattern  *DailyPattern    `json:"dailyPattern,omitempty"`
	Triggers      *TriggerAnalysis `json:"triggers,omitempty"`
}

// Recommendation is one actionable suggestion from the model
type Recommendation struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Priority        string `json:"priority"`
	EstimatedImpact string `json:"estimatedImpact"`
}

// AnalysisRecommendations groups recommendations by time horizon
type AnalysisRecommendations struct {
	Immediate []Recommendation `json:"immediate"`
	ShortTerm []Recommendation `json:"shortTerm"`
	LongTerm  []Recommendation `json:"longTerm"`
}

// RiskAssessment is the model's traffic-light risk section
type RiskAssessment struct {
	Level       string   `json:"level"`
	Indicators  []string `json:"indicators"`
	Suggestions []string `json:"suggestions"`
}

// AnalysisResult holds the four sections recovered from the model output.
// All four must be present for a result to be considered well-formed.
type AnalysisResult struct {
	Summary         *AnalysisSummary         `json:"summary"`
	Patterns        *AnalysisPatterns        `json:"patterns"`
	Recommendations *AnalysisRecommendations `json:"recommendations"`
	RiskAssessment  *RiskAssessment          `json:"riskAssessment"`
}

// Complete reports whether all four required sections are present
func (r *AnalysisResult) Complete() bool {
	return r.Summary != nil && r.Patterns != nil && r.Recommendations != nil && r.RiskAssessment != nil
}

// AnalysisReport is the persisted artifact of one successful pipeline run.
// The report is immutable once stored; regenerating for the same period
// creates a new row with a fresh report id.
type AnalysisReport struct {
	ID              int64                    `json:"id,omitempty"`
	UserID          int64                    `json:"user_id"`
	ReportID        string                   `json:"report_id"`
	AnalysisType    string                   `json:"analysis_type"`
	StartDate       string                   `json:"start_date"` // YYYY-MM-DD
	EndDate         string                   `json:"end_date"`   // YYYY-MM-DD
	Summary         *AnalysisSummary         `json:"summary_data"`
	Patterns        *AnalysisPatterns        `json:"patterns_data"`
	Recommendations *AnalysisRecommendations `json:"recommendations_data"`
	RiskAssessment  *RiskAssessment          `json:"risk_assessment_data"`
	DataPoints      int                      `json:"data_points"`
	ConfidenceScore float64                  `json:"confidence_score"`
	APICost         float64                  `json:"api_cost"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at,omitempty"`
}
