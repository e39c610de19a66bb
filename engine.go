// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package meetkb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/ai/bedrock"
	"github.com/poiesic/meetkb/ai/openai"
	"github.com/poiesic/meetkb/answer"
	"github.com/poiesic/meetkb/config"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/ingestion"
	"github.com/poiesic/meetkb/reembed"
	"github.com/poiesic/meetkb/storage"
	"github.com/poiesic/meetkb/storage/badger"
	"github.com/poiesic/meetkb/storage/s3"
	"github.com/poiesic/meetkb/summarize"
	"github.com/poiesic/meetkb/transcribe"
	"github.com/poiesic/meetkb/transcribe/awstranscribe"
	"github.com/poiesic/meetkb/vectorindex"
)

// Engine is the process context: every component, built once from a
// Config and shared by all requests. An Engine is safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	registry *config.Registry
	backend  *badger.Backend
	objects  storage.ObjectStore
	jobs     storage.JobRepository
	provider ai.Provider
	indexes  *vectorindex.Store
	merger   *vectorindex.Merger
	answerer *answer.Answerer
	pipeline *ingestion.Pipeline
	catalog  *ingestion.Catalog
	runner   *transcribe.Runner
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	objects  storage.ObjectStore
	jobs     storage.JobRepository
	service  transcribe.Service
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the AI config.
// The Engine closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithStores uses the given object store and job repository instead of
// opening the configured backend.
func WithStores(objects storage.ObjectStore, jobs storage.JobRepository) EngineOption {
	return func(o *engineOptions) {
		o.objects = objects
		o.jobs = jobs
	}
}

// WithTranscriptionService enables video uploads through service. Without
// it, Amazon Transcribe is used when the store is S3 and video uploads are
// rejected otherwise.
func WithTranscriptionService(service transcribe.Service) EngineOption {
	return func(o *engineOptions) {
		o.service = service
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine wires every component described by cfg. cfg is expected to
// have come from config.Load, which validates it.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		objects:  options.objects,
		jobs:     options.jobs,
		provider: options.provider,
		logger:   logger.With("component", "engine"),
	}
	if err := e.build(ctx, options.service, logger); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(ctx context.Context, service transcribe.Service, logger *slog.Logger) error {
	if err := e.openStores(ctx); err != nil {
		return err
	}
	if err := e.openProvider(ctx); err != nil {
		return err
	}

	timeouts := e.cfg.Timeouts
	embedder := withEmbedTimeout(e.provider.Embedder(), timeouts.Index)
	generator := withGenerateTimeout(e.provider.Generator(), timeouts.Generate)
	locks := storage.NewKeyLocker()

	var err error
	e.indexes, err = vectorindex.NewStore(e.objects, embedder, e.registry,
		vectorindex.WithKeyLocker(locks),
		vectorindex.WithStoreLogger(logger.With("component", "vector-store")))
	if err != nil {
		return err
	}
	e.merger, err = vectorindex.NewMerger(e.indexes, e.objects, e.registry,
		vectorindex.WithParallelism(e.cfg.Retrieval.Parallelism),
		vectorindex.WithMergerLogger(logger.With("component", "index-merger")))
	if err != nil {
		return err
	}
	e.answerer, err = answer.NewAnswerer(embedder, generator,
		answer.WithK(e.cfg.Retrieval.K),
		answer.WithLogger(logger.With("component", "answerer")))
	if err != nil {
		return err
	}
	summarizer, err := summarize.NewSummarizer(generator)
	if err != nil {
		return err
	}
	e.catalog, err = ingestion.NewCatalog(e.objects, e.registry)
	if err != nil {
		return err
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithKeyLocker(locks),
		ingestion.WithLogger(logger.With("component", "ingestion")),
	}
	if service == nil && e.cfg.Store.Kind == config.StoreS3 {
		service, err = awstranscribe.NewFromRegion(ctx, e.cfg.Store.Region)
		if err != nil {
			return err
		}
	}
	if service != nil {
		if err := e.startRunner(service, logger); err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, ingestion.WithTranscriptionRunner(e.runner))
	} else {
		e.logger.Info("no transcription service configured, video uploads are disabled")
	}

	e.pipeline, err = ingestion.NewPipeline(e.objects, e.registry, e.indexes, summarizer, pipelineOpts...)
	return err
}

func (e *Engine) openStores(ctx context.Context) error {
	if e.objects != nil && e.jobs != nil {
		return nil
	}

	// Job records always live in badger; objects follow the store kind.
	backend, err := badger.OpenBackend(e.cfg.Store.Path, false)
	if err != nil {
		return fmt.Errorf("open store at %s: %w", e.cfg.Store.Path, err)
	}
	e.backend = backend
	if e.jobs == nil {
		e.jobs = badger.NewJobRepository(backend)
	}
	if e.objects != nil {
		return nil
	}
	switch e.cfg.Store.Kind {
	case config.StoreS3:
		e.objects, err = s3.NewFromRegion(ctx, e.cfg.Store.Region)
		return err
	default:
		e.objects = badger.NewObjectStore(backend)
		return nil
	}
}

func (e *Engine) openProvider(ctx context.Context) error {
	if e.provider != nil {
		return nil
	}
	var err error
	switch e.cfg.AI.Kind {
	case ai.KindOpenAI:
		e.provider, err = openai.NewProvider(&e.cfg.AI)
	case ai.KindBedrock:
		e.provider, err = bedrock.NewProvider(ctx, &e.cfg.AI)
	default:
		err = fmt.Errorf("%w %q", ai.ErrUnknownProviderKind, e.cfg.AI.Kind)
	}
	return err
}

func (e *Engine) startRunner(service transcribe.Service, logger *slog.Logger) error {
	tc := e.cfg.Transcription
	orchestrator, err := transcribe.NewOrchestrator(service, e.objects,
		transcribe.WithPollInterval(tc.PollInterval),
		transcribe.WithMaxAttempts(tc.MaxAttempts),
		transcribe.WithLanguageCode(tc.LanguageCode),
		transcribe.WithLogger(logger.With("component", "transcription")))
	if err != nil {
		return err
	}
	e.runner, err = transcribe.NewRunner(orchestrator, e.jobs,
		transcribe.WithWorkers(tc.Workers),
		transcribe.WithRunnerLogger(logger.With("component", "transcription-runner")))
	return err
}

// KnowledgeBases returns the configured knowledge base ids.
func (e *Engine) KnowledgeBases() []string {
	return e.registry.IDs()
}

// Upload ingests one file. Video uploads return a pending result while the
// transcript is produced in the background.
func (e *Engine) Upload(ctx context.Context, upload ingestion.Upload) (*ingestion.Result, error) {
	return e.pipeline.Ingest(ctx, upload)
}

// Ask answers question against the listed documents of a knowledge base.
// Validation and index loading failures are returned as errors; anything
// that goes wrong while answering is reported in the Result.
func (e *Engine) Ask(ctx context.Context, kbID string, keys []string, question string) (answer.Result, error) {
	if err := core.ValidateQuestion(question); err != nil {
		return answer.Result{}, err
	}

	loadCtx, cancel := withTimeout(ctx, e.cfg.Timeouts.Index)
	merged, summary, err := e.merger.LoadMany(loadCtx, kbID, keys)
	cancel()
	if err != nil {
		return answer.Result{}, err
	}
	return e.answerer.Answer(ctx, summary, merged, question), nil
}

// AskDocument answers question about one single-document upload, using the
// summary the caller received when uploading it.
func (e *Engine) AskDocument(ctx context.Context, summary, key, question string) (answer.Result, error) {
	if err := core.ValidateQuestion(question); err != nil {
		return answer.Result{}, err
	}
	if err := core.ValidateDocumentKey(key); err != nil {
		return answer.Result{}, err
	}

	loadCtx, cancel := withTimeout(ctx, e.cfg.Timeouts.Index)
	idx, err := e.indexes.Load(loadCtx, core.DocumentIdentity{Key: key})
	cancel()
	if err != nil {
		return answer.Result{}, err
	}
	return e.answerer.Answer(ctx, summary, idx, question), nil
}

// ListFiles returns the document keys known to a knowledge base.
func (e *Engine) ListFiles(ctx context.Context, kbID string) ([]string, error) {
	return e.catalog.ListFiles(ctx, kbID)
}

// ListSummaries returns the summaries stored for a knowledge base.
func (e *Engine) ListSummaries(ctx context.Context, kbID string) ([]ingestion.SummaryEntry, error) {
	return e.catalog.ListSummaries(ctx, kbID)
}

// JobStatus returns the persisted record of a transcription job.
func (e *Engine) JobStatus(ctx context.Context, name string) (*core.TranscriptionJob, error) {
	status := e.jobs.GetJob
	if e.runner != nil {
		status = e.runner.Status
	}
	job, err := status(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", name, err)
	}
	return job, nil
}

// Jobs returns every persisted transcription job record.
func (e *Engine) Jobs(ctx context.Context) ([]*core.TranscriptionJob, error) {
	return e.jobs.ListJobs(ctx)
}

// WaitForTranscriptions blocks until every background transcription job
// started by this Engine has finished and its document has been indexed.
func (e *Engine) WaitForTranscriptions() {
	if e.runner != nil {
		e.runner.Wait()
	}
}

// Reembed rebuilds every index stamped with another embedding model.
func (e *Engine) Reembed(ctx context.Context, cfg *reembed.Config, progress io.Writer) (reembed.Stats, error) {
	r, err := reembed.NewReembedder(e.indexes, e.registry.IDs(), cfg, progress)
	if err != nil {
		return reembed.Stats{}, err
	}
	defer r.Close()
	return r.Run(ctx)
}

// Close stops background transcription waits and releases the provider
// and storage. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if e.runner != nil {
			e.runner.Close()
		}
		if e.merger != nil {
			e.merger.Release()
		}
		if e.provider != nil {
			if err := e.provider.Close(); err != nil {
				e.logger.Error("error closing AI provider", "err", err)
				errs = append(errs, err)
			}
		}
		if e.backend != nil {
			if err := e.backend.Close(); err != nil {
				e.logger.Error("error closing backend storage", "err", err)
				errs = append(errs, err)
			}
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}
