package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodlog-insights/internal/analysis"
	"github.com/moodlog-insights/internal/api"
	"github.com/moodlog-insights/internal/config"
	"github.com/moodlog-insights/internal/gemini"
	"github.com/moodlog-insights/internal/ratelimit"
	"github.com/moodlog-insights/internal/scheduler"
	"github.com/moodlog-insights/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.Environment)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("timezone", cfg.Timezone).
		Str("regenerate_policy", string(cfg.RegeneratePolicy)).
		Int("daily_limit", cfg.AnalysisDailyLimit).
		Bool("weekly_reports", cfg.WeeklyReportsEnabled).
		Msg("Starting mood analysis service")

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage client
	logger.Info().Msg("Initializing Supabase client...")
	storageClient, err := storage.NewClient(
		cfg.SupabaseURL,
		cfg.SupabaseKey,
		cfg.SupabaseTimeout,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create storage client")
	}

	// Ping Supabase to verify connection
	if err := storageClient.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Supabase")
	}
	logger.Info().Msg("Supabase connection successful")

	// Initialize Gemini client
	logger.Info().Msg("Initializing Gemini client...")
	modelClient := gemini.NewClient(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiTimeout, logger)

	// Resolve the service timezone once; defaults and schedules depend on it
	timezone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Failed to load timezone")
	}

	// Build the report generation pipeline
	pipeline := analysis.NewPipeline(
		storageClient,
		modelClient,
		storageClient,
		analysis.PipelineOptions{
			Timeout:          time.Duration(cfg.AnalysisTimeout) * time.Second,
			Confidence:       cfg.AnalysisConfidence,
			APICost:          cfg.APICostPerReport,
			RegeneratePolicy: cfg.RegeneratePolicy,
		},
		timezone,
		logger,
	)

	// Initialize rate limiter
	logger.Info().Msg("Initializing rate limiter...")
	limiter, err := ratelimit.NewLimiter(storageClient, cfg.Timezone, cfg.AnalysisDailyLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create rate limiter")
	}

	// Initialize HTTP server
	handler := api.NewHandler(pipeline, storageClient, limiter, logger)
	server := api.NewServer(cfg, handler, logger)

	// Initialize weekly report scheduler (if enabled)
	var sched *scheduler.Scheduler
	if cfg.WeeklyReportsEnabled {
		logger.Info().Msg("Initializing weekly report scheduler...")
		sched, err = scheduler.NewScheduler(pipeline, storageClient, cfg.WeeklyReportsCron, cfg.Timezone, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create scheduler")
		}

		go func() {
			if err := sched.Start(ctx); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("Scheduler stopped with error")
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	logger.Info().Msg("Service is running. Press Ctrl+C to stop.")

	// Wait for termination signal or server error
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
	case err := <-serverErrChan:
		logger.Error().Err(err).Msg("Server stopped with error")
	}

	// Graceful shutdown
	logger.Info().Msg("Initiating graceful shutdown...")
	cancel()

	if sched != nil {
		logger.Info().Msg("Stopping scheduler...")
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Shutdown timeout exceeded, some requests may be lost")
	} else {
		logger.Info().Msg("Graceful shutdown completed")
	}

	logger.Info().Msg("Service stopped")
}

// setupLogger configures and returns a zerolog logger
func setupLogger(level, environment string) zerolog.Logger {
	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	var logger zerolog.Logger
	if environment == "development" {
		// Pretty console output for development
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	} else {
		// JSON output for production
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return logger
}
