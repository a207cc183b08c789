package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Teams settings
	TeamsWebhookURL string

	// Gemini settings
	GeminiAPIKey  string
	GeminiModel   string
	MaxAIRequests int // maximum Gemini requests per run (0 = unlimited)

	// Source settings
	SourcesConfigPath    string
	MaxArticlesPerSource int

	// State settings
	StateFilePath string
	DatabaseURL   string // when set, state lives in Postgres instead of the JSON file

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	ScrapeDelay    time.Duration

	// Run mode: "once" for a single pipeline pass, "cron" for the daemon
	RunMode      string
	CronSchedule string

	// Monitoring
	EnableHTTPMonitoring bool
	MonitoringPort       string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		GeminiModel:          "gemini-1.5-flash",
		MaxAIRequests:        10,
		SourcesConfigPath:    "configs/sources.yaml",
		MaxArticlesPerSource: 3,
		StateFilePath:        "processed_articles.json",
		RequestTimeout:       30 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           5 * time.Second,
		ScrapeDelay:          2 * time.Second,
		RunMode:              "once",
		CronSchedule:         "0 8 * * *",
		MonitoringPort:       "8080",
	}

	// Load from environment
	cfg.TeamsWebhookURL = os.Getenv("TEAMS_WEBHOOK_URL")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.StateFilePath = getEnvOrDefault("STATE_FILE_PATH", cfg.StateFilePath)
	cfg.RunMode = getEnvOrDefault("RUN_MODE", cfg.RunMode)
	cfg.CronSchedule = getEnvOrDefault("CRON_SCHEDULE", cfg.CronSchedule)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	cfg.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", cfg.MaxAIRequests)
	cfg.MaxArticlesPerSource = getEnvIntOrDefault("MAX_ARTICLES_PER_SOURCE", cfg.MaxArticlesPerSource)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RetryDelay = d
		}
	}
	if v := os.Getenv("SCRAPE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ScrapeDelay = d
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	if v := os.Getenv("ENABLE_HTTP_MONITORING"); v == "true" {
		cfg.EnableHTTPMonitoring = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TeamsWebhookURL == "" {
		return fmt.Errorf("TEAMS_WEBHOOK_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.RunMode != "once" && c.RunMode != "cron" {
		return fmt.Errorf("RUN_MODE must be 'once' or 'cron'")
	}
	if c.MaxArticlesPerSource <= 0 {
		return fmt.Errorf("MAX_ARTICLES_PER_SOURCE must be positive")
	}
	return nil
}
