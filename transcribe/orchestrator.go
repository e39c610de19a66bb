package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

const (
	// DefaultPollInterval is the wait between status queries.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxAttempts bounds the status queries, 600 seconds at the default interval.
	DefaultMaxAttempts = 120

	DefaultMediaFormat  = "mp4"
	DefaultLanguageCode = "en-US"
)

// Request describes media to transcribe.
type Request struct {
	// JobName is generated from OutputKey when empty.
	JobName      string
	Document     core.DocumentIdentity
	MediaURI     string
	OutputBucket string
	OutputKey    string
	MediaFormat  string
	LanguageCode string
}

// Orchestrator submits a transcription job and waits for its transcript.
type Orchestrator struct {
	service      Service
	objects      storage.ObjectStore
	pollInterval time.Duration
	maxAttempts  int
	languageCode string
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPollInterval sets the wait between status queries.
// Default is DefaultPollInterval. Zero polls back to back.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			return fmt.Errorf("%w: interval %s", ErrInvalidPollPolicy, d)
		}
		o.pollInterval = d
		return nil
	}
}

// WithMaxAttempts sets how many status queries are made before giving up.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return fmt.Errorf("%w: %d attempts", ErrInvalidPollPolicy, n)
		}
		o.maxAttempts = n
		return nil
	}
}

// WithLanguageCode sets the language used when a request does not name one.
// Default is DefaultLanguageCode.
func WithLanguageCode(code string) Option {
	return func(o *Orchestrator) error {
		if code != "" {
			o.languageCode = code
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an Orchestrator. Results are read from, and
// cleaned up in, objects.
func NewOrchestrator(service Service, objects storage.ObjectStore, opts ...Option) (*Orchestrator, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}

	o := &Orchestrator{
		service:      service,
		objects:      objects,
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		languageCode: DefaultLanguageCode,
		logger:       slog.Default().With("component", "transcription"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// SubmitAndAwait runs a job to completion and returns its transcript.
func (o *Orchestrator) SubmitAndAwait(ctx context.Context, req Request) (string, error) {
	return o.SubmitAndAwaitWithObserver(ctx, req, nil)
}

// SubmitAndAwaitWithObserver runs a job like SubmitAndAwait, reporting every
// status change and poll attempt to observer.
func (o *Orchestrator) SubmitAndAwaitWithObserver(ctx context.Context, req Request, observer JobObserver) (string, error) {
	if observer == nil {
		observer = &noopObserver{}
	}

	spec := JobSpec{
		Name:         req.JobName,
		MediaURI:     req.MediaURI,
		MediaFormat:  req.MediaFormat,
		LanguageCode: req.LanguageCode,
		OutputBucket: req.OutputBucket,
	}
	if spec.Name == "" {
		spec.Name = JobName(req.OutputKey)
	}
	if spec.MediaFormat == "" {
		spec.MediaFormat = DefaultMediaFormat
	}
	if spec.LanguageCode == "" {
		spec.LanguageCode = o.languageCode
	}

	job := core.TranscriptionJob{
		Name:           spec.Name,
		Document:       req.Document,
		SourceMediaURI: spec.MediaURI,
		OutputLocation: req.OutputBucket + "/" + ResultKey(spec.Name),
	}
	update := func(status core.JobStatus, reason string) {
		job.Status = status
		job.FailureReason = reason
		observer.JobUpdated(ctx, job)
	}

	logger := o.logger.With("job", spec.Name)
	logger.Info("starting transcription job", "media", spec.MediaURI)
	if err := o.service.Submit(ctx, spec); err != nil {
		logger.Error("failed to start transcription job", "err", err)
		update(core.JobStatusFailed, err.Error())
		return "", fmt.Errorf("%w %s: %w", ErrSubmission, spec.Name, err)
	}
	update(core.JobStatusSubmitted, "")

	completed := false
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		state, err := o.service.Status(ctx, spec.Name)
		if err != nil {
			logger.Error("failed to query transcription job", "attempt", attempt, "err", err)
			update(core.JobStatusFailed, err.Error())
			return "", fmt.Errorf("query %s: %w", spec.Name, err)
		}
		job.AttemptCount = attempt
		logger.Debug("polled transcription job", "attempt", attempt, "status", state.Status)

		if state.Status == core.JobStatusCompleted {
			completed = true
			break
		}
		if state.Status == core.JobStatusFailed {
			update(core.JobStatusFailed, state.FailureReason)
			return "", fmt.Errorf("%w: %s: %s", ErrJobFailed, spec.Name, state.FailureReason)
		}
		if state.Status == core.JobStatusSubmitted {
			update(core.JobStatusSubmitted, "")
		} else {
			update(core.JobStatusInProgress, "")
		}

		if attempt == o.maxAttempts {
			break
		}
		if err := o.wait(ctx); err != nil {
			update(core.JobStatusFailed, err.Error())
			return "", err
		}
	}
	if !completed {
		wait := time.Duration(o.maxAttempts) * o.pollInterval
		update(core.JobStatusTimedOut, "")
		return "", fmt.Errorf("%w: %s after %d attempts (%s)", ErrTimedOut, spec.Name, o.maxAttempts, wait)
	}

	logger.Info("transcription job completed, fetching transcript")
	transcript, err := o.fetch(ctx, req.OutputBucket, ResultKey(spec.Name))
	if err != nil {
		logger.Error("error reading transcript", "err", err)
		update(core.JobStatusFailed, err.Error())
		return "", err
	}
	update(core.JobStatusCompleted, "")
	return transcript, nil
}

func (o *Orchestrator) wait(ctx context.Context) error {
	if o.pollInterval == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type transcriptResult struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// fetch reads and parses the raw result, then deletes it.
func (o *Orchestrator) fetch(ctx context.Context, bucket, key string) (string, error) {
	data, err := o.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %w", ErrResultUnreadable, bucket, key, err)
	}
	var result transcriptResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("%w: %s/%s: %w", ErrResultUnreadable, bucket, key, err)
	}
	if len(result.Results.Transcripts) == 0 {
		return "", fmt.Errorf("%w: %s/%s has no transcripts", ErrResultUnreadable, bucket, key)
	}

	if err := o.objects.DeleteObject(context.WithoutCancel(ctx), bucket, key); err != nil {
		o.logger.Warn("could not delete raw transcript", "bucket", bucket, "key", key, "err", err)
	} else {
		o.logger.Debug("deleted raw transcript", "bucket", bucket, "key", key)
	}
	return result.Results.Transcripts[0].Transcript, nil
}
