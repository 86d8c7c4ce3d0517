package main

import (
	"context"
	"flag"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/config"
	"github.com/dvloznov/statement-analyzer/internal/gcsuploader"
	infraBQ "github.com/dvloznov/statement-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/statement-analyzer/internal/logger"
)

func main() {
	cfg := config.Load()

	projectID := flag.String("project", cfg.GCPProject, "GCP project ID (or set GCP_PROJECT env)")
	datasetID := flag.String("dataset", cfg.BigQueryDataset, "BigQuery dataset ID (or set BIGQUERY_DATASET env)")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	dryRun := flag.Bool("dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	log := logger.New(cfg.LogLevel)

	if *projectID == "" {
		log.Fatal().Msg("-project flag is required. Please specify your GCP project ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	recorder, err := infraBQ.NewRunRecorder(ctx, *projectID, *datasetID, gcsuploader.ClientOptions(cfg.GoogleCredentialsFile)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer recorder.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	if *dryRun {
		all, err := infraBQ.Migrations(*datasetID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migrations")
		}
		applied, err := recorder.AppliedMigrations(ctx)
		if err != nil {
			// schema_migrations may not exist yet; everything is pending then.
			log.Warn().Err(err).Msg("Could not read applied migrations")
		}
		pending := infraBQ.Pending(all, applied)
		for _, m := range pending {
			log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Pending migration")
		}
		log.Info().Int("pending", len(pending)).Int("applied", len(applied)).Msg("Dry run complete")
		return
	}

	n, err := recorder.Migrate(ctx, *appliedBy)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	if n == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
		return
	}
	log.Info().Int("applied", n).Msg("Successfully applied migrations")
}
