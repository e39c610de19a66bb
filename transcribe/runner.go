package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

// DefaultWorkers is the number of jobs a Runner waits on concurrently.
const DefaultWorkers = 4

// CompletionFunc receives a job's transcript, or the error that ended it.
type CompletionFunc func(ctx context.Context, job core.TranscriptionJob, transcript string, err error)

// Runner waits on transcription jobs in the background and records their
// progress in a job repository.
type Runner struct {
	orchestrator *Orchestrator
	jobs         storage.JobRepository
	pool         *ants.Pool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithWorkers sets how many jobs are awaited concurrently.
// Default is DefaultWorkers.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) error {
		if n < 1 {
			n = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a Runner. Call Close to stop waiting and release workers.
func NewRunner(orchestrator *Orchestrator, jobs storage.JobRepository, opts ...RunnerOption) (*Runner, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}

	pool, err := ants.NewPool(DefaultWorkers)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		orchestrator: orchestrator,
		jobs:         jobs,
		pool:         pool,
		ctx:          ctx,
		cancel:       cancel,
		logger:       slog.Default().With("component", "transcription-runner"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

// Start records a new job and awaits it in the background. It returns the
// job name as soon as the record is saved; done is called from a worker
// once the job ends.
func (r *Runner) Start(ctx context.Context, req Request, done CompletionFunc) (string, error) {
	if req.JobName == "" {
		req.JobName = JobName(req.OutputKey)
	}
	job := &core.TranscriptionJob{
		Name:           req.JobName,
		Document:       req.Document,
		SourceMediaURI: req.MediaURI,
		OutputLocation: req.OutputBucket + "/" + ResultKey(req.JobName),
		Status:         core.JobStatusSubmitted,
	}
	if err := r.jobs.SaveJob(ctx, job); err != nil {
		return "", fmt.Errorf("record job %s: %w", req.JobName, err)
	}

	r.wg.Add(1)
	err := r.pool.Submit(func() {
		defer r.wg.Done()
		transcript, err := r.orchestrator.SubmitAndAwaitWithObserver(r.ctx, req, r)
		final := *job
		if saved, getErr := r.jobs.GetJob(context.WithoutCancel(r.ctx), req.JobName); getErr == nil {
			final = *saved
		}
		if done != nil {
			done(r.ctx, final, transcript, err)
		}
	})
	if err != nil {
		r.wg.Done()
		return "", fmt.Errorf("schedule job %s: %w", req.JobName, err)
	}

	r.logger.Info("transcription job scheduled", "job", req.JobName, "document", req.Document.String())
	return req.JobName, nil
}

// JobUpdated persists job progress.
func (r *Runner) JobUpdated(ctx context.Context, job core.TranscriptionJob) {
	if err := r.jobs.SaveJob(context.WithoutCancel(ctx), &job); err != nil {
		r.logger.Error("failed to record job progress", "job", job.Name, "status", job.Status, "err", err)
	}
}

var _ JobObserver = (*Runner)(nil)

// Status returns the recorded state of a job.
func (r *Runner) Status(ctx context.Context, name string) (*core.TranscriptionJob, error) {
	return r.jobs.GetJob(ctx, name)
}

// Wait blocks until every started job has ended.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels outstanding waits and releases the worker pool.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
	if r.pool != nil {
		r.pool.Release()
	}
}
