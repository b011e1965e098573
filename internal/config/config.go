package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultModelName       = "gemini-2.5-flash"
	DefaultLocation        = "us-central1"
	DefaultSheetRange      = "Sheet1!A2:G"
	DefaultOutputFile      = "transaction_data.json"
	DefaultLabelName       = "AutoSpendTracker/Processed"
	DefaultEmailDaysBack   = 7
	DefaultRateLimitCalls  = 60
	DefaultRateLimitPeriod = 60 * time.Second
)

// MissingVarError reports a required environment variable that was not set.
type MissingVarError struct {
	Var string
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("config: required environment variable %s is not set", e.Var)
}

// Config holds all runtime configuration. It is loaded once at startup and
// treated as immutable for the rest of the run.
type Config struct {
	// Google Cloud / Gen AI
	ProjectID          string
	Location           string
	ModelName          string
	ServiceAccountFile string

	// Google Sheets
	SpreadsheetID string
	SheetRange    string

	// Gmail
	EmailDaysBack  int
	GmailLabelName string

	// Rate limiting for the AI endpoint
	RateLimitCalls  int
	RateLimitPeriod time.Duration

	// Local artifact and optional sinks
	OutputFile      string
	ArtifactBucket  string // optional: GCS bucket for artifact backups
	BigQueryDataset string // optional: dataset for the transaction archive
	BigQueryTable   string
	WebhookURL      string // optional: run summary notification target

	LogLevel string
}

// Load reads configuration from a .env file (if present) and the environment.
// Required values missing -> error before any work starts.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		ProjectID:          os.Getenv("PROJECT_ID"),
		Location:           getEnv("LOCATION", DefaultLocation),
		ModelName:          getEnv("MODEL_NAME", DefaultModelName),
		ServiceAccountFile: getEnv("SERVICE_ACCOUNT_FILE", "ASTservice.json"),
		SpreadsheetID:      os.Getenv("SPREADSHEET_ID"),
		SheetRange:         getEnv("SHEET_RANGE", DefaultSheetRange),
		GmailLabelName:     getEnv("GMAIL_LABEL_NAME", DefaultLabelName),
		OutputFile:         getEnv("OUTPUT_FILE", DefaultOutputFile),
		ArtifactBucket:     os.Getenv("ARTIFACT_BUCKET"),
		BigQueryDataset:    os.Getenv("BIGQUERY_DATASET"),
		BigQueryTable:      getEnv("BIGQUERY_TABLE", "transactions"),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.EmailDaysBack, err = getEnvInt("EMAIL_DAYS_BACK", DefaultEmailDaysBack); err != nil {
		return nil, err
	}
	if cfg.RateLimitCalls, err = getEnvInt("API_RATE_LIMIT_CALLS", DefaultRateLimitCalls); err != nil {
		return nil, err
	}
	periodSecs, err := getEnvInt("API_RATE_LIMIT_PERIOD", int(DefaultRateLimitPeriod/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.RateLimitPeriod = time.Duration(periodSecs) * time.Second

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return &MissingVarError{Var: "PROJECT_ID"}
	}
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		return &MissingVarError{Var: "SPREADSHEET_ID"}
	}
	if c.EmailDaysBack <= 0 {
		return fmt.Errorf("config: EMAIL_DAYS_BACK must be positive, got %d", c.EmailDaysBack)
	}
	if c.RateLimitCalls <= 0 {
		return fmt.Errorf("config: API_RATE_LIMIT_CALLS must be positive, got %d", c.RateLimitCalls)
	}
	if c.RateLimitPeriod <= 0 {
		return fmt.Errorf("config: API_RATE_LIMIT_PERIOD must be positive, got %s", c.RateLimitPeriod)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}
