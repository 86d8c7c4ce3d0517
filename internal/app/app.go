// Package app builds the analyzer and its optional cloud collaborators from
// configuration. It is shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-analyzer/internal/categorizer"
	"github.com/dvloznov/statement-analyzer/internal/config"
	"github.com/dvloznov/statement-analyzer/internal/gcsuploader"
	infraBQ "github.com/dvloznov/statement-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
)

const migratedBy = "statement-analyzer"

var _ pipeline.RunRecorder = (*infraBQ.RunRecorder)(nil)

// Categorizer returns the rule table from cfg.CategoryRulesFile, or the
// built-in one when no file is configured.
func Categorizer(cfg *config.Config) (*categorizer.Categorizer, error) {
	if cfg.CategoryRulesFile == "" {
		return categorizer.Default(), nil
	}
	entries, err := categorizer.LoadRules(cfg.CategoryRulesFile)
	if err != nil {
		return nil, fmt.Errorf("Categorizer: %w", err)
	}
	c, err := categorizer.New(entries)
	if err != nil {
		return nil, fmt.Errorf("Categorizer: %w", err)
	}
	return c, nil
}

// NewAnalyzer wires the pipeline: custom category rules, the Gemini
// extractor when an API key is set, and the BigQuery run recorder when a
// project is set. The returned func releases the cloud clients.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (*pipeline.Analyzer, func(), error) {
	log := logger.FromContext(ctx)
	cleanup := func() {}

	c, err := Categorizer(cfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("NewAnalyzer: %w", err)
	}
	opts := []pipeline.Option{pipeline.WithCategorizer(c)}

	if cfg.ExtractionEnabled() {
		extractor, err := pipeline.NewGeminiExtractor(ctx, pipeline.ExtractorConfig{
			APIKey:  cfg.ExtractorAPIKey,
			BaseURL: cfg.ExtractorBaseURL,
			Model:   cfg.ExtractorModel,
			Timeout: cfg.ExtractorTimeout,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("NewAnalyzer: %w", err)
		}
		opts = append(opts, pipeline.WithExtractor(extractor))
	} else {
		log.Info().Msg("No extractor API key configured, PDFs without usable tables will fail")
	}

	if cfg.AuditEnabled() {
		recorder, err := NewRunRecorder(ctx, cfg)
		if err != nil {
			// Auditing is optional; the analyzer works without it.
			log.Warn().Err(err).Msg("Analysis runs will not be recorded")
		} else {
			opts = append(opts, pipeline.WithRunRecorder(recorder))
			cleanup = func() { recorder.Close() }
		}
	}

	return pipeline.NewAnalyzer(opts...), cleanup, nil
}

// NewRunRecorder connects to BigQuery and applies pending schema migrations.
func NewRunRecorder(ctx context.Context, cfg *config.Config) (*infraBQ.RunRecorder, error) {
	recorder, err := infraBQ.NewRunRecorder(ctx, cfg.GCPProject, cfg.BigQueryDataset, gcsuploader.ClientOptions(cfg.GoogleCredentialsFile)...)
	if err != nil {
		return nil, err
	}
	n, err := recorder.Migrate(ctx, migratedBy)
	if err != nil {
		recorder.Close()
		return nil, fmt.Errorf("NewRunRecorder: %w", err)
	}
	if n > 0 {
		log := logger.FromContext(ctx)
		log.Info().Int("applied", n).Msg("Applied BigQuery migrations")
	}
	return recorder, nil
}

// NewStorage connects to Cloud Storage with the configured credentials.
func NewStorage(ctx context.Context, cfg *config.Config) (*gcsuploader.GCSStorageService, error) {
	return gcsuploader.NewGCSStorageService(ctx, gcsuploader.ClientOptions(cfg.GoogleCredentialsFile)...)
}
