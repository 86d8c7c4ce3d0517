package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/app"
	"github.com/dvloznov/statement-analyzer/internal/config"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/sources"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(cfg, log)
	case "inspect":
		runInspect(cfg, log)
	case "upload":
		runUpload(cfg, log)
	case "runs":
		runRuns(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Analyze statements (local files or gs:// URIs)")
	fmt.Println("  inspect   Show row warnings and a validation report for one statement")
	fmt.Println("  upload    Upload a statement to GCS")
	fmt.Println("  runs      List recent analysis runs recorded in BigQuery")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println("\nSupported file types: " + sources.SupportedList())
}

func runAnalyze(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print results as JSON")
	workers := fs.Int("workers", 4, "Number of statements analyzed concurrently")
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		log.Fatal().Msg("Usage: cli analyze [-json] [-workers N] FILE|gs://BUCKET/OBJECT ...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	analyzer, closeAnalyzer, err := app.NewAnalyzer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build analyzer")
	}
	defer closeAnalyzer()

	var fetcher Fetcher
	if hasGCSInput(fs.Args()) {
		storage, err := app.NewStorage(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer storage.Close()
		fetcher = storage
	}

	results := analyzeAll(ctx, analyzer, fetcher, fs.Args(), *workers)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode results")
		}
	} else {
		for _, r := range results {
			printResult(os.Stdout, r)
		}
	}

	if failed(results) > 0 {
		os.Exit(1)
	}
}

func runInspect(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Usage: cli inspect FILE")
	}
	path := fs.Arg(0)

	kind, ok := sources.KindFromFilename(path)
	if !ok {
		log.Fatal().Msgf("File type not allowed. Supported: %s", sources.SupportedList())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	analyzer, closeAnalyzer, err := app.NewAnalyzer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build analyzer")
	}
	defer closeAnalyzer()

	report, err := analyzer.AnalyzeFile(ctx, path, kind)
	if err != nil {
		log.Fatal().Msg(pipeline.ErrorMessage(err))
	}

	printInspection(os.Stdout, filepath.Base(path), report.Warnings, pipeline.Validate(report.Transactions))
}

func runUpload(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET env)")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local statement file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH [-object NAME]")
	}
	if _, ok := sources.KindFromFilename(*filePath); !ok {
		log.Fatal().Msgf("File type not allowed. Supported: %s", sources.SupportedList())
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	storage, err := app.NewStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := storage.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runRuns(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	fs.Parse(os.Args[2:])

	if !cfg.AuditEnabled() {
		log.Fatal().Msg("GCP_PROJECT is not set, analysis runs are not recorded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	recorder, err := app.NewRunRecorder(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to BigQuery")
	}
	defer recorder.Close()

	runs, err := recorder.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	fmt.Printf("\n=== Analysis runs (%d) ===\n", len(runs))
	for _, run := range runs {
		fmt.Printf("\n%s  %s (%s)\n", run.StartedTS.Format(time.RFC3339), run.Source, run.SourceKind)
		fmt.Printf("   Status:       %s\n", run.Status)
		if run.TransactionCount.Valid {
			fmt.Printf("   Transactions: %d\n", run.TransactionCount.Int64)
		}
		if run.WarningCount.Valid {
			fmt.Printf("   Warnings:     %d\n", run.WarningCount.Int64)
		}
		if run.ErrorMessage != "" {
			fmt.Printf("   Error:        %s\n", run.ErrorMessage)
		}
	}
	fmt.Println()
}
