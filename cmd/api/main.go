package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/api/handlers"
	"github.com/dvloznov/statement-analyzer/internal/api/middleware"
	"github.com/dvloznov/statement-analyzer/internal/app"
	"github.com/dvloznov/statement-analyzer/internal/config"
	"github.com/dvloznov/statement-analyzer/internal/filestore"
	"github.com/dvloznov/statement-analyzer/internal/jobs"
	"github.com/dvloznov/statement-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()
	cfg.Port = *port

	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	analyzer, closeAnalyzer, err := app.NewAnalyzer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build analyzer")
	}
	defer closeAnalyzer()

	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare upload directory")
	}

	// Job infrastructure. The finish hook removes each job's upload.
	jobStore := inmemory.NewStore()
	var jobsHandler *handlers.JobsHandler
	jobQueue := inmemory.NewQueue(cfg.JobBuffer, jobStore,
		inmemory.WithWorkers(cfg.JobWorkers),
		inmemory.WithLogger(log),
		inmemory.WithFinishHook(func(job *jobs.AnalyzeFileJob) { jobsHandler.FinishJob(job) }),
	)
	jobsHandler = handlers.NewJobsHandler(analyzer, files, jobQueue, jobStore, log)
	analyzeHandler := handlers.NewAnalyzeHandler(analyzer, files, log)

	// Workers outlive the signal so Stop can wait for in-flight jobs.
	if err := jobQueue.Start(context.WithoutCancel(ctx), jobsHandler.ProcessJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handlers.Index)
	mux.HandleFunc("GET /api/health", handlers.Health)
	mux.HandleFunc("POST /api/upload-and-analyze", analyzeHandler.UploadAndAnalyze)
	mux.HandleFunc("POST /api/jobs", jobsHandler.EnqueueAnalysis)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		jobsHandler.GetJob(w, r, r.PathValue("id"))
	})

	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.MaxBytes(cfg.MaxUploadBytes)(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ExtractorTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Bool("extraction", analyzer.ExtractionEnabled()).
			Bool("audit", cfg.AuditEnabled()).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}

		// Stop job queue and wait for in-flight jobs
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}

	log.Info().Msg("Server exited")
}
