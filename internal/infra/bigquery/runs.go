// Package bigquery records analysis runs in BigQuery. Only run metadata is
// stored; transactions never leave the process.
package bigquery

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	analysisRunsTable = "analysis_runs"

	// maxErrorMessageLen caps error_message so one pathological error cannot bloat a row.
	maxErrorMessageLen = 2000

	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// AnalysisRunRow mirrors one row of <dataset>.analysis_runs.
type AnalysisRunRow struct {
	RunID      string                 `bigquery:"run_id"`      // REQUIRED
	Source     string                 `bigquery:"source"`      // REQUIRED, file name only
	SourceKind string                 `bigquery:"source_kind"` // REQUIRED
	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // NULLABLE
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	TransactionCount bigquery.NullInt64 `bigquery:"transaction_count"` // NULLABLE
	WarningCount     bigquery.NullInt64 `bigquery:"warning_count"`     // NULLABLE
}

// RunRecorder writes analysis run rows with DML through a shared client.
type RunRecorder struct {
	client    *bigquery.Client
	datasetID string
}

// NewRunRecorder creates a BigQuery client for projectID.
func NewRunRecorder(ctx context.Context, projectID, datasetID string, opts ...option.ClientOption) (*RunRecorder, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewRunRecorder: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRunRecorder: creating client: %w", err)
	}
	return &RunRecorder{client: client, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *RunRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *RunRecorder) table() string {
	return r.tableName(analysisRunsTable)
}

func (r *RunRecorder) tableName(name string) string {
	return fmt.Sprintf("`%s.%s`", r.datasetID, name)
}

// StartRun inserts a new row with status=RUNNING and returns the generated run_id.
func (r *RunRecorder) StartRun(ctx context.Context, source, kind string) (string, error) {
	runID := uuid.NewString()

	sql := fmt.Sprintf(`
		INSERT %s (
			run_id,
			source,
			source_kind,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@source,
			@source_kind,
			@started_ts,
			@status
		)
	`, r.table())

	params := []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source", Value: source},
		{Name: "source_kind", Value: kind},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: StatusRunning},
	}

	if err := r.run(ctx, sql, params); err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return runID, nil
}

// MarkRunSucceeded sets status=SUCCESS, finished_ts and the result counts.
func (r *RunRecorder) MarkRunSucceeded(ctx context.Context, runID string, transactions, warnings int) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    transaction_count = @transaction_count,
		    warning_count = @warning_count
		WHERE run_id = @run_id
	`, r.table())

	params := []bigquery.QueryParameter{
		{Name: "status", Value: StatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "transaction_count", Value: int64(transactions)},
		{Name: "warning_count", Value: int64(warnings)},
		{Name: "run_id", Value: runID},
	}

	if err := r.run(ctx, sql, params); err != nil {
		return fmt.Errorf("MarkRunSucceeded: %w", err)
	}
	return nil
}

// MarkRunFailed sets status=FAILED, finished_ts and error_message. Errors are
// logged rather than returned since the caller is already handling a failure.
func (r *RunRecorder) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.table())

	params := []bigquery.QueryParameter{
		{Name: "status", Value: StatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: truncateErrorMessage(runErr)},
		{Name: "run_id", Value: runID},
	}

	if err := r.run(ctx, sql, params); err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: could not update analysis run")
	}
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRecorder) ListRuns(ctx context.Context, limit int) ([]*AnalysisRunRow, error) {
	if limit <= 0 {
		limit = 20
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, r.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: running query: %w", err)
	}

	var rows []*AnalysisRunRow
	for {
		var row AnalysisRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: reading row: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

func (r *RunRecorder) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// truncateErrorMessage renders err for the error_message column, cut at
// maxErrorMessageLen bytes without splitting a UTF-8 sequence.
func truncateErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
