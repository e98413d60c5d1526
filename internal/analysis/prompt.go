package analysis

import (
	"fmt"
	"strings"

	"github.com/moodlog-insights/internal/models"
)

// focusAreaDelimiter joins the requested focus areas inside the prompt
const focusAreaDelimiter = ", "

// analysisPromptTemplate instructs the model to produce the report as strict
// JSON. The embedded schema is the contract the response parser validates
// against; keep the two in sync.
const analysisPromptTemplate = `You are a professional mental-health data analyst. Based on the mood data below, produce a personalized mood analysis report.

# Analysis requirements
- Language: %s
- Analysis depth: %s
- Focus areas: %s

# User data summary
Total records: %d
Average mood score: %.1f

# Output format
Respond strictly in the following JSON format. Do not add any explanation or text outside the JSON:
{
  "summary": {
    "overallTrend": "improving",
    "averageScore": 7.2,
    "keyInsights": ["insight 1", "insight 2"],
    "urgencyLevel": "low"
  },
  "patterns": {
    "weeklyPattern": {
      "bestDays": ["Saturday"],
      "challengingDays": ["Wednesday"],
      "volatilityIndex": 1.8
    },
    "dailyPattern": {
      "morningAverage": 6.8,
      "eveningAverage": 7.4,
      "peakHours": ["19:00-21:00"]
    },
    "triggers": {
      "positive": [{"factor": "exercise", "frequency": 4, "impact": 1.5}],
      "negative": [{"factor": "work stress", "frequency": 5, "impact": -1.8}]
    }
  },
  "recommendations": {
    "immediate": [{"title": "Build an evening wind-down routine", "description": "Meditate or read lightly for the hour before bed", "priority": "high", "estimatedImpact": "medium"}],
    "shortTerm": [],
    "longTerm": []
  },
  "riskAssessment": {
    "level": "green",
    "indicators": ["overall mood trend is positive"],
    "suggestions": ["keep up the current lifestyle"]
  }
}

# Rules
1. Write all text in the requested language.
2. Recommendations must be concrete and actionable.
3. Never use diagnostic or medical language.
4. Keep the overall tone positive and supportive.
5. The output must be strictly valid JSON.`

// BuildPrompt renders the model instruction for one feature summary and the
// caller's preferences. Pure and fully deterministic: identical inputs always
// produce the identical string. Quote and control-character escaping happens
// when the prompt is JSON-encoded into the transport payload, so nothing in
// the inputs can break the request body.
func BuildPrompt(summary models.FeatureSummary, prefs models.AnalysisPreferences) string {
	language := prefs.Language
	if language == "" {
		language = models.DefaultLanguage
	}
	depth := prefs.Depth
	if depth == "" {
		depth = models.DefaultDepth
	}

	focusAreas := "general well-being"
	if len(prefs.FocusAreas) > 0 {
		focusAreas = strings.Join(prefs.FocusAreas, focusAreaDelimiter)
	}

	return fmt.Sprintf(
		analysisPromptTemplate,
		language,
		depth,
		focusAreas,
		summary.TotalEntries,
		summary.AverageScore,
	)
}
