package analysis

import "github.com/moodlog-insights/internal/models"

// AssembleResponse maps a persisted report to the caller-facing response
// shape. Pure mapping, no side effects.
func AssembleResponse(report *models.AnalysisReport) *models.AnalysisReportResponse {
	if report == nil {
		return nil
	}

	return &models.AnalysisReportResponse{
		ReportID:    report.ReportID,
		GeneratedAt: report.CreatedAt,
		AnalysisResult: models.AnalysisResult{
			Summary:         report.Summary,
			Patterns:        report.Patterns,
			Recommendations: report.Recommendations,
			RiskAssessment:  report.RiskAssessment,
		},
		Metadata: models.AnalysisMetadata{
			DataPoints:         report.DataPoints,
			AnalysisConfidence: report.ConfidenceScore,
			APICost:            report.APICost,
		},
	}
}
