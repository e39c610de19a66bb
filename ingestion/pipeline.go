package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/meetkb/chunking"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/extract"
	"github.com/poiesic/meetkb/storage"
	"github.com/poiesic/meetkb/summarize"
	"github.com/poiesic/meetkb/transcribe"
	"github.com/poiesic/meetkb/vectorindex"
)

// Pipeline orchestrates the ingestion of uploaded meeting artifacts.
type Pipeline struct {
	objects           storage.ObjectStore
	kbs               core.Resolver
	indexes           *vectorindex.Store
	summarizer        *summarize.Summarizer
	runner            *transcribe.Runner
	locks             *storage.KeyLocker
	contextChunker    *chunking.Chunker
	transcriptChunker *chunking.Chunker
	logger            *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTranscriptionRunner enables video uploads.
// Without it video uploads fail with ErrTranscriptionUnavailable.
func WithTranscriptionRunner(runner *transcribe.Runner) Option {
	return func(p *Pipeline) error {
		p.runner = runner
		return nil
	}
}

// WithKeyLocker shares the per-document lock with the index store.
// Default is a private locker.
func WithKeyLocker(locks *storage.KeyLocker) Option {
	return func(p *Pipeline) error {
		if locks != nil {
			p.locks = locks
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	objects storage.ObjectStore,
	kbs core.Resolver,
	indexes *vectorindex.Store,
	summarizer *summarize.Summarizer,
	opts ...Option,
) (*Pipeline, error) {
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}
	if kbs == nil {
		return nil, ErrResolverRequired
	}
	if indexes == nil {
		return nil, ErrIndexStoreRequired
	}
	if summarizer == nil {
		return nil, ErrSummarizerRequired
	}

	contextChunker, err := chunking.New(chunking.ContextPreset)
	if err != nil {
		return nil, err
	}
	transcriptChunker, err := chunking.New(chunking.TranscriptPreset)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		objects:           objects,
		kbs:               kbs,
		indexes:           indexes,
		summarizer:        summarizer,
		locks:             storage.NewKeyLocker(),
		contextChunker:    contextChunker,
		transcriptChunker: transcriptChunker,
		logger:            slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Upload is one uploaded file. An empty KnowledgeBaseID selects
// single-document mode.
type Upload struct {
	KnowledgeBaseID string
	Filename        string
	Data            []byte
}

// Result describes an ingested document. For video uploads Pending is set
// and only Document, Kind and JobName are known; the rest is produced once
// the transcription job completes.
type Result struct {
	Document   core.DocumentIdentity
	Kind       MediaKind
	UploadURI  string
	Transcript string
	Summary    string
	Chunks     int
	JobName    string
	Pending    bool
}

// Ingest stores an upload and derives its transcript, summary and index.
// Re-uploading a document replaces everything derived from the earlier one.
func (p *Pipeline) Ingest(ctx context.Context, upload Upload) (*Result, error) {
	if upload.Filename == "" || len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrEmptyUpload)
	}
	kb, err := p.kbs.Resolve(upload.KnowledgeBaseID)
	if err != nil {
		return nil, err
	}
	kind := Classify(upload.Filename)
	if kind == MediaUnknown {
		return nil, fmt.Errorf("%w: %w: %s", core.ErrValidation, ErrUnsupportedMedia, upload.Filename)
	}
	if kind == MediaVideo && p.runner == nil {
		return nil, ErrTranscriptionUnavailable
	}

	id := core.DocumentIdentity{
		KnowledgeBaseID: upload.KnowledgeBaseID,
		Key:             core.DocumentKeyFromFilename(upload.Filename),
	}
	if err := core.ValidateDocumentKey(id.Key); err != nil {
		return nil, err
	}
	logger := p.logger.With("document", id.String(), "kind", kind)

	ctx, unlock, err := p.locks.Lock(ctx, id.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	uploadKey := storage.UploadKey(kb.Prefix, upload.Filename)
	if err := p.objects.PutObject(ctx, kb.Buckets.Uploads, uploadKey, upload.Data); err != nil {
		logger.Error("upload failed", "err", err)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	uploadURI := "s3://" + kb.Buckets.Uploads + "/" + uploadKey
	logger.Debug("stored upload", "uri", uploadURI)

	if kind == MediaVideo {
		return p.startTranscription(ctx, kb, id, uploadURI)
	}

	text, err := extractors[kind].extract(ctx, upload)
	if err != nil {
		logger.Error("text extraction failed", "err", err)
		return nil, err
	}

	result, err := p.process(ctx, kb, id, text)
	if err != nil {
		return nil, err
	}
	result.Kind = kind
	result.UploadURI = uploadURI
	return result, nil
}

func (p *Pipeline) startTranscription(ctx context.Context, kb *core.KnowledgeBase, id core.DocumentIdentity, uploadURI string) (*Result, error) {
	req := transcribe.Request{
		Document:     id,
		MediaURI:     uploadURI,
		OutputBucket: kb.Buckets.Transcripts,
		OutputKey:    id.Key + storage.TranscriptExt,
	}
	jobName, err := p.runner.Start(ctx, req, p.transcriptionDone)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document:  id,
		Kind:      MediaVideo,
		UploadURI: uploadURI,
		JobName:   jobName,
		Pending:   true,
	}, nil
}

// transcriptionDone finishes a video upload once its transcript arrives.
func (p *Pipeline) transcriptionDone(ctx context.Context, job core.TranscriptionJob, transcript string, err error) {
	logger := p.logger.With("document", job.Document.String(), "job", job.Name)
	if err != nil {
		logger.Error("transcription failed", "status", job.Status, "err", err)
		return
	}
	kb, err := p.kbs.Resolve(job.Document.KnowledgeBaseID)
	if err != nil {
		logger.Error("knowledge base no longer configured", "err", err)
		return
	}

	ctx, unlock, err := p.locks.Lock(ctx, job.Document.String())
	if err != nil {
		logger.Error("could not lock document", "err", err)
		return
	}
	defer unlock()

	text := extract.Normalize([]byte(transcript), extract.FormatPlain)
	if _, err := p.process(ctx, kb, job.Document, text); err != nil {
		logger.Error("processing transcript failed", "err", err)
	}
}

// process stores the transcript and summary and builds the index. The
// caller holds the document lock.
func (p *Pipeline) process(ctx context.Context, kb *core.KnowledgeBase, id core.DocumentIdentity, text string) (*Result, error) {
	logger := p.logger.With("document", id.String())
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	transcriptKey := storage.TranscriptKey(kb.Prefix, id.Key)
	if err := p.objects.PutObject(ctx, kb.Buckets.Transcripts, transcriptKey, []byte(text)); err != nil {
		return nil, fmt.Errorf("store transcript: %w", err)
	}
	logger.Debug("stored transcript", "bucket", kb.Buckets.Transcripts, "key", transcriptKey)

	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	summaryKey := storage.SummaryKey(kb.Prefix, id.Key)
	if err := p.objects.PutObject(ctx, kb.Buckets.Summaries, summaryKey, []byte(summary)); err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}
	logger.Debug("stored summary", "bucket", kb.Buckets.Summaries, "key", summaryKey)

	// knowledge base documents index the summary alongside the transcript
	chunker, source := p.transcriptChunker, text
	if id.KnowledgeBaseID != "" {
		chunker, source = p.contextChunker, text+"\n"+summary
	}
	chunks, err := chunker.Chunk(source)
	if err != nil {
		return nil, err
	}
	if err := p.indexes.BuildAndPersist(ctx, id, chunks); err != nil {
		return nil, err
	}

	logger.Info("document ingested", "chunks", len(chunks))
	return &Result{
		Document:   id,
		Transcript: text,
		Summary:    summary,
		Chunks:     len(chunks),
	}, nil
}
