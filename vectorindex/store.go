package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

const defaultEmbedBatchSize = 32

// Store builds, persists and loads per-document vector indexes. Each index
// lives in the embeddings bucket as {prefix}/{key}.index.faiss and
// {prefix}/{key}.index.pkl.
type Store struct {
	objects   storage.ObjectStore
	embedder  ai.Embedder
	kbs       core.Resolver
	locks     *storage.KeyLocker
	batchSize int
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithKeyLocker shares a per-document lock with other writers.
// Default is a private locker.
func WithKeyLocker(locks *storage.KeyLocker) StoreOption {
	return func(s *Store) error {
		if locks != nil {
			s.locks = locks
		}
		return nil
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per call.
func WithEmbedBatchSize(size int) StoreOption {
	return func(s *Store) error {
		if size < 1 {
			return fmt.Errorf("embed batch size must be positive, got %d", size)
		}
		s.batchSize = size
		return nil
	}
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// NewStore creates a Store.
func NewStore(objects storage.ObjectStore, embedder ai.Embedder, kbs core.Resolver, opts ...StoreOption) (*Store, error) {
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if kbs == nil {
		return nil, ErrResolverRequired
	}
	s := &Store{
		objects:   objects,
		embedder:  embedder,
		kbs:       kbs,
		locks:     storage.NewKeyLocker(),
		batchSize: defaultEmbedBatchSize,
		logger:    slog.Default().With("component", "vector-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Embedder returns the embedder indexes are built and queried with.
func (s *Store) Embedder() ai.Embedder {
	return s.embedder
}

// Build embeds chunks and returns an in-memory index attributed to id.
func (s *Store) Build(ctx context.Context, id core.DocumentIdentity, chunks []string) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	idx := New(s.embedder.Model())
	for start := 0; start < len(chunks); start += s.batchSize {
		batch := chunks[start:min(start+s.batchSize, len(chunks))]

		s.logger.Debug("embedding chunks", "document", id.String(), "offset", start, "count", len(batch))
		vectors, err := s.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed chunks of %s: %w", id, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}
		for i, text := range batch {
			chunk := core.Chunk{
				Id:     core.IDFromContent(fmt.Sprintf("%s#%d", id, start+i)),
				Source: id,
				Text:   text,
			}
			if err := idx.Add(chunk, vectors[i]); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}

// BuildAndPersist embeds chunks and persists the resulting index for id.
func (s *Store) BuildAndPersist(ctx context.Context, id core.DocumentIdentity, chunks []string) error {
	idx, err := s.Build(ctx, id, chunks)
	if err != nil {
		return err
	}
	return s.Persist(ctx, id, idx)
}

// Persist uploads both sub-artifacts of idx for id. Both uploads are
// attempted; if either fails, whatever was written is deleted best effort
// and ErrPersist is returned.
func (s *Store) Persist(ctx context.Context, id core.DocumentIdentity, idx *Index) error {
	if idx.Len() == 0 {
		return ErrNoChunks
	}
	kb, err := s.kbs.Resolve(id.KnowledgeBaseID)
	if err != nil {
		return err
	}
	artifacts, err := Encode(idx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	ctx, unlock, err := s.locks.Lock(ctx, id.String())
	if err != nil {
		return err
	}
	defer unlock()

	var (
		written []string
		errs    []error
	)
	for _, suffix := range storage.IndexSuffixes {
		key := storage.IndexKey(kb.Prefix, id.Key, suffix)
		if err := s.objects.PutObject(ctx, kb.Buckets.Embeddings, key, artifacts[storage.IndexLocalName(suffix)]); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, key)
	}
	if len(errs) == 0 {
		s.logger.Info("persisted index", "document", id.String(), "chunks", idx.Len(), "model", idx.Model())
		return nil
	}

	for _, key := range written {
		if err := s.objects.DeleteObject(context.WithoutCancel(ctx), kb.Buckets.Embeddings, key); err != nil {
			s.logger.Warn("failed to remove partial index artifact", "bucket", kb.Buckets.Embeddings, "key", key, "err", err)
		}
	}
	return fmt.Errorf("%w for %s: %w", ErrPersist, id, errors.Join(errs...))
}

// Load downloads and decodes the index for id and checks it was built with
// the active embedding model.
func (s *Store) Load(ctx context.Context, id core.DocumentIdentity) (*Index, error) {
	idx, err := s.Inspect(ctx, id)
	if err != nil {
		return nil, err
	}
	if idx.Model() != s.embedder.Model() {
		return nil, fmt.Errorf("%w: %s built with %q, active model is %q", ErrModelMismatch, id, idx.Model(), s.embedder.Model())
	}
	return idx, nil
}

// Inspect loads the index for id without checking its model stamp.
func (s *Store) Inspect(ctx context.Context, id core.DocumentIdentity) (*Index, error) {
	kb, err := s.kbs.Resolve(id.KnowledgeBaseID)
	if err != nil {
		return nil, err
	}

	files := make(Artifacts, len(storage.IndexSuffixes))
	for _, suffix := range storage.IndexSuffixes {
		key := storage.IndexKey(kb.Prefix, id.Key, suffix)
		s.logger.Debug("downloading index artifact", "bucket", kb.Buckets.Embeddings, "key", key)
		data, err := s.objects.GetObject(ctx, kb.Buckets.Embeddings, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s: %w", ErrIncompleteIndex, key, err)
			}
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		files[storage.IndexLocalName(suffix)] = data
	}

	idx, err := Decode(files)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return idx, nil
}

// Delete removes both sub-artifacts of the index for id.
func (s *Store) Delete(ctx context.Context, id core.DocumentIdentity) error {
	kb, err := s.kbs.Resolve(id.KnowledgeBaseID)
	if err != nil {
		return err
	}
	ctx, unlock, err := s.locks.Lock(ctx, id.String())
	if err != nil {
		return err
	}
	defer unlock()

	var errs []error
	for _, suffix := range storage.IndexSuffixes {
		if err := s.objects.DeleteObject(ctx, kb.Buckets.Embeddings, storage.IndexKey(kb.Prefix, id.Key, suffix)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns the document keys with a vectors sub-artifact in kbID.
func (s *Store) List(ctx context.Context, kbID string) ([]string, error) {
	kb, err := s.kbs.Resolve(kbID)
	if err != nil {
		return nil, err
	}
	objects, err := s.objects.ListObjects(ctx, kb.Buckets.Embeddings, kb.Prefix+"/")
	if err != nil {
		return nil, err
	}
	suffix := ".index." + storage.IndexVectorsSuffix
	var keys []string
	for _, obj := range objects {
		if key, ok := storage.DocumentKeyFromObject(kb.Prefix, obj, suffix); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
