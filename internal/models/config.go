package models

// RegeneratePolicy controls what happens when a report is requested for a
// (user, type, period) that already has one.
type RegeneratePolicy string

const (
	// RegenerateAlways creates a fresh report on every call. This mirrors the
	// observed behavior of the system: repeated calls cost repeated model
	// invocations and produce distinct artifacts.
	RegenerateAlways RegeneratePolicy = "always"

	// RegenerateReuse returns the most recent existing report for the same
	// period instead of calling the model again.
	RegenerateReuse RegeneratePolicy = "reuse"
)

// ServiceConfig represents service configuration
type ServiceConfig struct {
	// HTTP server settings
	Port string

	// Gemini API settings
	GeminiAPIKey  string
	GeminiAPIURL  string
	GeminiTimeout int // per-attempt timeout, seconds

	// Supabase settings
	SupabaseURL     string
	SupabaseKey     string
	SupabaseTimeout int // seconds

	// App settings
	Timezone    string
	LogLevel    string
	Environment string

	// Analysis pipeline settings
	AnalysisTimeout    int // end-to-end pipeline deadline, seconds
	AnalysisDailyLimit int // generations per user per local day
	AnalysisConfidence float64
	APICostPerReport   float64
	RegeneratePolicy   RegeneratePolicy

	// Weekly report scheduler
	WeeklyReportsEnabled bool
	WeeklyReportsCron    string
}
