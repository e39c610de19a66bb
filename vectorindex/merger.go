package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

// MissingSummary stands in for a summary that could not be read.
const MissingSummary = "(No summary available)"

// Merger loads several documents of one knowledge base into a single
// request-scoped index plus a combined summary.
type Merger struct {
	store       *Store
	objects     storage.ObjectStore
	kbs         core.Resolver
	parallelism int
	pool        *ants.Pool
	logger      *slog.Logger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger) error

// WithParallelism sets how many documents load concurrently.
// Default is 1 (sequential). Results do not depend on this setting.
func WithParallelism(n int) MergerOption {
	return func(m *Merger) error {
		if n < 1 {
			n = 1
		}
		m.parallelism = n
		return nil
	}
}

// WithMergerLogger sets a custom logger.
func WithMergerLogger(logger *slog.Logger) MergerOption {
	return func(m *Merger) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// NewMerger creates a Merger reading indexes through store and summaries
// through objects.
func NewMerger(store *Store, objects storage.ObjectStore, kbs core.Resolver, opts ...MergerOption) (*Merger, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if objects == nil {
		return nil, ErrObjectStoreRequired
	}
	if kbs == nil {
		return nil, ErrResolverRequired
	}
	m := &Merger{
		store:       store,
		objects:     objects,
		kbs:         kbs,
		parallelism: 1,
		logger:      slog.Default().With("component", "index-merger"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.parallelism > 1 {
		pool, err := ants.NewPool(m.parallelism)
		if err != nil {
			return nil, err
		}
		m.pool = pool
	}
	return m, nil
}

// Release frees the load pool, if any.
func (m *Merger) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}

type loaded struct {
	index   *Index
	summary string
	err     error
}

// LoadMany loads the index and summary of every key in kbID. The first
// index initializes the merged index and each subsequent one is folded in,
// always in key order. Any index failure fails the whole call; summaries
// that cannot be read are replaced with MissingSummary.
//
// The combined summary has one "\n\n--- Summary for {key} ---\n{text}"
// section per key.
func (m *Merger) LoadMany(ctx context.Context, kbID string, keys []string) (*Index, string, error) {
	if kbID == "" {
		return nil, "", fmt.Errorf("%w: %w: knowledge base id is empty", core.ErrValidation, core.ErrUnknownKnowledgeBase)
	}
	kb, err := m.kbs.Resolve(kbID)
	if err != nil {
		return nil, "", err
	}
	if len(keys) == 0 {
		return nil, "", fmt.Errorf("%w: %w", core.ErrValidation, core.ErrNoDocuments)
	}
	for _, key := range keys {
		if err := core.ValidateDocumentKey(key); err != nil {
			return nil, "", err
		}
	}

	results, err := m.loadAll(ctx, kb, keys)
	if err != nil {
		return nil, "", err
	}

	var merged *Index
	var summary strings.Builder
	for i, key := range keys {
		r := results[i]
		if merged == nil {
			merged = r.index
		} else if err := merged.Merge(r.index); err != nil {
			return nil, "", fmt.Errorf("merge %s: %w", key, err)
		}
		fmt.Fprintf(&summary, "\n\n--- Summary for %s ---\n%s", key, r.summary)
	}

	m.logger.Debug("merged indexes", "kb", kbID, "documents", len(keys), "chunks", merged.Len())
	return merged, summary.String(), nil
}

func (m *Merger) loadAll(ctx context.Context, kb *core.KnowledgeBase, keys []string) ([]loaded, error) {
	results := make([]loaded, len(keys))

	if m.pool == nil {
		for i, key := range keys {
			results[i] = m.loadOne(ctx, kb, key)
			if results[i].err != nil {
				return nil, results[i].err
			}
		}
		return results, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			results[i] = m.loadOne(ctx, kb, key)
			if results[i].err != nil {
				cancel(results[i].err)
			}
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("submit load of %s: %w", key, err))
			break
		}
	}
	wg.Wait()

	// the cause is the first failure observed
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Merger) loadOne(ctx context.Context, kb *core.KnowledgeBase, key string) loaded {
	id := core.DocumentIdentity{KnowledgeBaseID: kb.ID, Key: key}
	idx, err := m.store.Load(ctx, id)
	if err != nil {
		return loaded{err: fmt.Errorf("load index %s: %w", id, err)}
	}
	return loaded{index: idx, summary: m.summary(ctx, kb, key)}
}

func (m *Merger) summary(ctx context.Context, kb *core.KnowledgeBase, key string) string {
	summaryKey := storage.SummaryKey(kb.Prefix, key)
	data, err := m.objects.GetObject(ctx, kb.Buckets.Summaries, summaryKey)
	if err != nil {
		m.logger.Warn("could not load summary", "bucket", kb.Buckets.Summaries, "key", summaryKey, "err", err)
		return MissingSummary
	}
	return string(data)
}
