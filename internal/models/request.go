package models

import "time"

// Default values applied by the pipeline before any stage runs
const (
	DefaultAnalysisType = "weekly"
	DefaultLanguage     = "en"
	DefaultDepth        = "detailed"

	// DateFormat is the wire format for period boundaries
	DateFormat = "2006-01-02"
)

// DateRange is the requested analysis period, date-granular
type DateRange struct {
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
}

// AnalysisPreferences tune the generated report
type AnalysisPreferences struct {
	Language   string   `json:"language,omitempty"`
	Depth      string   `json:"depth,omitempty"`
	FocusAreas []string `json:"focusAreas,omitempty"`
}

// AnalysisRequest is the inbound request for one report generation.
// All fields are optional; missing values get defaults.
type AnalysisRequest struct {
	AnalysisType string               `json:"analysisType,omitempty"`
	DateRange    *DateRange           `json:"dateRange,omitempty"`
	Preferences  *AnalysisPreferences `json:"preferences,omitempty"`
}

// ResolvedRequest is an AnalysisRequest after defaults and date parsing.
// Start and End are inclusive date boundaries; Start never exceeds End.
type ResolvedRequest struct {
	AnalysisType string
	Start        time.Time
	End          time.Time
	Preferences  AnalysisPreferences
}

// AnalysisMetadata is the generation metadata block of a caller response
type AnalysisMetadata struct {
	DataPoints         int     `json:"dataPoints"`
	AnalysisConfidence float64 `json:"analysisConfidence"`
	APICost            float64 `json:"apiCost"`
}

// AnalysisReportResponse is the caller-facing shape of a finished report
type AnalysisReportResponse struct {
	ReportID       string           `json:"reportId"`
	GeneratedAt    time.Time        `json:"generatedAt"`
	AnalysisResult AnalysisResult   `json:"analysisResult"`
	Metadata       AnalysisMetadata `json:"metadata"`
}
