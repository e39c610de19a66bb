package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/vectorindex"
)

// Outcome is what happened to one index.
type Outcome int

const (
	// Current means the index already carries the active model stamp.
	Current Outcome = iota
	// Rebuilt means the index was re-embedded and persisted.
	Rebuilt
	// Unreadable means the stored index is incomplete or corrupt and was left alone.
	Unreadable
)

// Stats counts outcomes over a run.
type Stats struct {
	Checked    int
	Rebuilt    int
	Current    int
	Unreadable int
}

func (s *Stats) add(o Outcome) {
	s.Checked++
	switch o {
	case Rebuilt:
		s.Rebuilt++
	case Current:
		s.Current++
	case Unreadable:
		s.Unreadable++
	}
}

// BatchProcessor re-embeds the indexes of a batch of documents.
type BatchProcessor struct {
	store          *vectorindex.Store
	maxRetries     int
	retryBaseDelay time.Duration
	force          bool
	pool           *ants.Pool
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding or upload
// retryBaseDelay: base delay for exponential backoff
// pool: runs documents of a batch concurrently; nil processes them in order
func NewBatchProcessor(store *vectorindex.Store, maxRetries int, retryBaseDelay time.Duration, force bool, pool *ants.Pool) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		force:          force,
		pool:           pool,
		logger:         slog.Default().With("component", "reembed"),
	}
}

// Process handles every document in docs and returns the per-outcome
// counts. All documents are attempted; failures are joined.
func (bp *BatchProcessor) Process(ctx context.Context, docs []core.DocumentIdentity) (Stats, error) {
	var stats Stats
	if len(docs) == 0 {
		return stats, nil
	}

	outcomes := make([]Outcome, len(docs))
	errs := make([]error, len(docs))

	if bp.pool == nil {
		for i, doc := range docs {
			outcomes[i], errs[i] = bp.processOne(ctx, doc)
		}
	} else {
		var wg sync.WaitGroup
		for i, doc := range docs {
			wg.Add(1)
			if err := bp.pool.Submit(func() {
				defer wg.Done()
				outcomes[i], errs[i] = bp.processOne(ctx, doc)
			}); err != nil {
				wg.Done()
				errs[i] = fmt.Errorf("submit %s: %w", doc, err)
			}
		}
		wg.Wait()
	}

	for i := range docs {
		if errs[i] == nil {
			stats.add(outcomes[i])
		}
	}
	return stats, errors.Join(errs...)
}

func (bp *BatchProcessor) processOne(ctx context.Context, doc core.DocumentIdentity) (Outcome, error) {
	idx, err := bp.store.Inspect(ctx, doc)
	if err != nil {
		if errors.Is(err, vectorindex.ErrIncompleteIndex) || errors.Is(err, vectorindex.ErrCorruptIndex) {
			bp.logger.Warn("skipping unreadable index", "document", doc.String(), "err", err)
			return Unreadable, nil
		}
		return Current, fmt.Errorf("inspect %s: %w", doc, err)
	}

	active := bp.store.Embedder().Model()
	if idx.Model() == active && !bp.force {
		return Current, nil
	}

	texts := make([]string, idx.Len())
	for i, entry := range idx.Entries() {
		texts[i] = entry.Chunk.Text
	}

	var rebuilt *vectorindex.Index
	err = RetryWithBackoff(ctx, func() error {
		var err error
		rebuilt, err = bp.store.Build(ctx, doc, texts)
		if errors.Is(err, vectorindex.ErrNoChunks) || errors.Is(err, vectorindex.ErrDimensionMismatch) {
			return Permanent(err)
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return Current, fmt.Errorf("failed to re-embed %s after %d attempts: %w", doc, bp.maxRetries, err)
	}

	err = RetryWithBackoff(ctx, func() error {
		return bp.store.Persist(ctx, doc, rebuilt)
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return Current, fmt.Errorf("failed to persist %s: %w", doc, err)
	}

	bp.logger.Info("re-embedded index", "document", doc.String(), "from", idx.Model(), "to", active, "chunks", rebuilt.Len())
	return Rebuilt, nil
}
