package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/moodlog-insights/internal/models"
)

// DefaultGeminiAPIURL is the generateContent endpoint used unless overridden.
// The flash-lite model keeps per-report cost low for this workload.
const DefaultGeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-lite:generateContent"

// Load loads configuration from environment variables
// It first attempts to load from .env file, then reads environment variables
func Load() (*models.ServiceConfig, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	config := &models.ServiceConfig{
		// HTTP server settings
		Port: getEnv("PORT", "8080"),

		// Gemini API settings
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:  getEnv("GEMINI_API_URL", DefaultGeminiAPIURL),
		GeminiTimeout: getEnvInt("GEMINI_TIMEOUT", 30),

		// Supabase settings
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseTimeout: getEnvInt("SUPABASE_TIMEOUT", 10),

		// App settings
		Timezone:    getEnv("TIMEZONE", "UTC"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),

		// Analysis pipeline settings
		AnalysisTimeout:    getEnvInt("ANALYSIS_TIMEOUT", 90),
		AnalysisDailyLimit: getEnvInt("ANALYSIS_DAILY_LIMIT", 5),
		AnalysisConfidence: getEnvFloat("ANALYSIS_CONFIDENCE", 0.85),
		APICostPerReport:   getEnvFloat("ANALYSIS_API_COST", 0.024),
		RegeneratePolicy:   models.RegeneratePolicy(getEnv("REGENERATE_POLICY", string(models.RegenerateAlways))),

		// Weekly report scheduler
		WeeklyReportsEnabled: getEnvBool("WEEKLY_REPORTS_ENABLED", false),
		WeeklyReportsCron:    getEnv("WEEKLY_REPORTS_CRON", "0 8 * * 1"),
	}

	// Validate configuration
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks if all required configuration values are set
func validate(cfg *models.ServiceConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.GeminiAPIURL == "" {
		return fmt.Errorf("GEMINI_API_URL must not be empty")
	}
	if cfg.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseKey == "" {
		return fmt.Errorf("SUPABASE_KEY is required")
	}

	// Validate positive values
	if cfg.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %d", cfg.GeminiTimeout)
	}
	if cfg.SupabaseTimeout <= 0 {
		return fmt.Errorf("SUPABASE_TIMEOUT must be positive, got %d", cfg.SupabaseTimeout)
	}
	if cfg.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive, got %d", cfg.AnalysisTimeout)
	}
	if cfg.AnalysisDailyLimit <= 0 {
		return fmt.Errorf("ANALYSIS_DAILY_LIMIT must be positive, got %d", cfg.AnalysisDailyLimit)
	}

	if cfg.AnalysisConfidence < 0 || cfg.AnalysisConfidence > 1 {
		return fmt.Errorf("ANALYSIS_CONFIDENCE must be in [0,1], got %f", cfg.AnalysisConfidence)
	}
	if cfg.APICostPerReport < 0 {
		return fmt.Errorf("ANALYSIS_API_COST must not be negative, got %f", cfg.APICostPerReport)
	}

	// Validate regenerate policy
	switch cfg.RegeneratePolicy {
	case models.RegenerateAlways, models.RegenerateReuse:
	default:
		return fmt.Errorf("REGENERATE_POLICY must be one of: always, reuse; got %s", cfg.RegeneratePolicy)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvFloat retrieves environment variable as float or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool retrieves environment variable as boolean or returns default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
