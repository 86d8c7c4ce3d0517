package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxUploadBytes caps statement uploads at 16 MiB.
const DefaultMaxUploadBytes int64 = 16 << 20

type Config struct {
	// HTTP server
	Port           string
	UploadDir      string
	MaxUploadBytes int64

	LogLevel string

	// Free-text extraction model
	ExtractorAPIKey  string
	ExtractorBaseURL string
	ExtractorModel   string
	ExtractorTimeout time.Duration

	// Optional YAML category rules replacing the built-in table
	CategoryRulesFile string

	// Google Cloud, all optional
	GCPProject            string
	BigQueryDataset       string
	GCSBucket             string
	GoogleCredentialsFile string

	// Async jobs
	JobWorkers int
	JobBuffer  int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		UploadDir:      getEnv("UPLOAD_DIR", "data/uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		ExtractorAPIKey:  getEnv("EXTRACTOR_API_KEY", ""),
		ExtractorBaseURL: getEnv("EXTRACTOR_BASE_URL", ""),
		ExtractorModel:   getEnv("EXTRACTOR_MODEL", "gemini-2.5-flash"),
		ExtractorTimeout: getEnvDuration("EXTRACTOR_TIMEOUT", 60*time.Second),

		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),

		GCPProject:            getEnv("GCP_PROJECT", ""),
		BigQueryDataset:       getEnv("BIGQUERY_DATASET", "finance"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),

		JobWorkers: getEnvInt("JOB_WORKERS", 2),
		JobBuffer:  getEnvInt("JOB_BUFFER", 32),
	}
}

// ExtractionEnabled reports whether PDFs without usable tables can fall back
// to model-based extraction.
func (c *Config) ExtractionEnabled() bool {
	return c.ExtractorAPIKey != ""
}

// AuditEnabled reports whether analysis runs are recorded in BigQuery.
func (c *Config) AuditEnabled() bool {
	return c.GCPProject != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.UploadDir == "" {
		errors = append(errors, "upload directory cannot be empty")
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}

	if c.ExtractorBaseURL != "" {
		if u, err := url.Parse(c.ExtractorBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid extractor base URL '%s': %v", c.ExtractorBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid extractor base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}
	if c.ExtractionEnabled() && c.ExtractorModel == "" {
		errors = append(errors, "extractor model cannot be empty when EXTRACTOR_API_KEY is set")
	}
	if c.ExtractorTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid extractor timeout %v: must be at least 1 second", c.ExtractorTimeout))
	}

	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}

	if c.AuditEnabled() && c.BigQueryDataset == "" {
		errors = append(errors, "BigQuery dataset cannot be empty when GCP_PROJECT is set")
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if c.JobWorkers < 1 || c.JobWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid job worker count %d: must be between 1 and 64", c.JobWorkers))
	}
	if c.JobBuffer < 1 {
		errors = append(errors, fmt.Sprintf("invalid job buffer %d: must be at least 1", c.JobBuffer))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
