package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:             "8080",
		UploadDir:        "data/uploads",
		MaxUploadBytes:   DefaultMaxUploadBytes,
		ExtractorModel:   "gemini-2.5-flash",
		ExtractorTimeout: 30 * time.Second,
		BigQueryDataset:  "finance",
		JobWorkers:       2,
		JobBuffer:        8,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty upload dir",
			mutate:      func(c *Config) { c.UploadDir = "" },
			errorString: "upload directory cannot be empty",
		},
		{
			name:        "bad extractor scheme",
			mutate:      func(c *Config) { c.ExtractorBaseURL = "ftp://models.example.com" },
			errorString: "invalid extractor base URL scheme 'ftp'",
		},
		{
			name: "extractor key without model",
			mutate: func(c *Config) {
				c.ExtractorAPIKey = "k"
				c.ExtractorModel = ""
			},
			errorString: "extractor model cannot be empty",
		},
		{
			name:        "missing rules file",
			mutate:      func(c *Config) { c.CategoryRulesFile = filepath.Join(t.TempDir(), "rules.yaml") },
			errorString: "category rules file does not exist",
		},
		{
			name: "audit without dataset",
			mutate: func(c *Config) {
				c.GCPProject = "proj"
				c.BigQueryDataset = ""
			},
			errorString: "BigQuery dataset cannot be empty",
		},
		{
			name:        "zero workers",
			mutate:      func(c *Config) { c.JobWorkers = 0 },
			errorString: "invalid job worker count 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.JobBuffer = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed:")
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "invalid job buffer 0")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("EXTRACTOR_TIMEOUT", "5s")
	t.Setenv("JOB_WORKERS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Second, cfg.ExtractorTimeout)
	assert.Equal(t, 2, cfg.JobWorkers)
	assert.False(t, cfg.ExtractionEnabled())
}
