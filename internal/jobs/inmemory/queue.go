package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/statement-analyzer/internal/jobs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultWorkers is the number of concurrent workers when none is configured.
const DefaultWorkers = 2

// FinishFunc is called exactly once per job, after it reached a terminal
// status. It is where transient files get removed.
type FinishFunc func(job *jobs.AnalyzeFileJob)

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithFinishHook registers fn to run when a job becomes terminal.
func WithFinishHook(fn FinishFunc) QueueOption {
	return func(q *Queue) { q.onFinish = fn }
}

// WithLogger sets the logger for failures the queue recovers from.
func WithLogger(log zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = log }
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// It is meant for single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.AnalyzeFileJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool
	workers   int
	onFinish  FinishFunc
	log       zerolog.Logger
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishAnalyzeFile blocks.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...QueueOption) *Queue {
	q := &Queue{
		jobChan:   make(chan *jobs.AnalyzeFileJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   DefaultWorkers,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishAnalyzeFile implements the Publisher interface. It fills in the
// job ID, status and creation time, saves the job and enqueues a copy, so
// the caller's value is never touched by workers.
func (q *Queue) PublishAnalyzeFile(ctx context.Context, job *jobs.AnalyzeFileJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	queued := *job
	select {
	case q.jobChan <- &queued:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface. It starts the configured number
// of workers and returns immediately.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job, re-enqueueing it while retries remain.
func (q *Queue) processJob(ctx context.Context, job *jobs.AnalyzeFileJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		q.save(ctx, job)
		q.finish(job)
		return
	}

	job.Error = err.Error()
	if job.RetryCount >= job.MaxRetries {
		job.Status = jobs.JobStatusFailed
		q.save(ctx, job)
		q.finish(job)
		return
	}

	job.RetryCount++
	job.Status = jobs.JobStatusRetrying
	q.save(ctx, job)

	backoff := time.Duration(job.RetryCount) * time.Second
	time.AfterFunc(backoff, func() {
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		if err := q.PublishAnalyzeFile(ctx, job); err != nil {
			job.Status = jobs.JobStatusFailed
			job.Error = fmt.Sprintf("retry not enqueued: %v", err)
			q.save(context.Background(), job)
			q.finish(job)
		}
	})
}

func (q *Queue) save(ctx context.Context, job *jobs.AnalyzeFileJob) {
	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			q.log.Warn().
				Err(err).
				Str("job_id", job.JobID).
				Str("status", string(job.Status)).
				Msg("Could not save job state")
		}
	}
}

func (q *Queue) finish(job *jobs.AnalyzeFileJob) {
	if q.onFinish != nil {
		q.onFinish(job)
	}
}

// Stop implements the Consumer interface. It stops the queue, waits for
// in-flight jobs and fails whatever was still queued.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	q.drain()
	return nil
}

// drain fails jobs that were queued but never picked up.
func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobChan:
			if job == nil {
				continue
			}
			now := time.Now()
			job.Status = jobs.JobStatusFailed
			job.Error = "queue stopped before the job ran"
			job.CompletedAt = &now
			q.save(context.Background(), job)
			q.finish(job)
		default:
			return
		}
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
