package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dvloznov/statement-analyzer/internal/api/middleware"
	"github.com/dvloznov/statement-analyzer/internal/jobs"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/sources"
	"github.com/rs/zerolog"
)

// JobsHandler handles asynchronous analysis: it enqueues uploads, runs them
// on the queue's workers and reports their status.
type JobsHandler struct {
	analyzer  Analyzer
	files     FileStore
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(analyzer Analyzer, files FileStore, publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		analyzer:  analyzer,
		files:     files,
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// EnqueueAnalysis handles POST /api/jobs
func (h *JobsHandler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, ok := receiveUpload(w, r, h.files, h.log)
	if !ok {
		return
	}

	job := &jobs.AnalyzeFileJob{
		Filename: upload.filename,
		Path:     upload.path,
		Kind:     string(upload.kind),
	}

	if err := h.publisher.PublishAnalyzeFile(ctx, job); err != nil {
		removeUpload(ctx, h.files, upload.path)
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("filename", job.Filename).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// ProcessJob is the queue's JobHandler. A completed job carries the same
// payload as the synchronous endpoint; a failed one the user-facing message.
func (h *JobsHandler) ProcessJob(ctx context.Context, job jobs.Job) error {
	analyzeJob, ok := job.(*jobs.AnalyzeFileJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	log := h.log.With().Str("job_id", analyzeJob.JobID).Str("filename", analyzeJob.Filename).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Msg("Processing analysis job")

	report, err := h.analyzer.AnalyzeFile(ctx, analyzeJob.Path, sources.Kind(analyzeJob.Kind))
	if err != nil {
		log.Warn().Err(err).Msg("Analysis job failed")
		return errors.New(pipeline.ErrorMessage(err))
	}

	payload, err := json.Marshal(NewAnalysisResponse(report))
	if err != nil {
		return fmt.Errorf("encoding analysis result: %w", err)
	}
	analyzeJob.Result = payload

	log.Info().Int("count", report.Count).Msg("Analysis job completed")
	return nil
}

// FinishJob removes the job's upload once the job is terminal. It is
// registered as the queue's finish hook.
func (h *JobsHandler) FinishJob(job *jobs.AnalyzeFileJob) {
	if job.Path == "" {
		return
	}
	if err := h.files.Remove(job.Path); err != nil {
		h.log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to remove job upload")
	}
}
