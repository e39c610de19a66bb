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

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/vectorindex"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of indexes to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of indexes)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Workers is how many indexes of a batch are rebuilt concurrently
	Workers int

	// Force rebuilds indexes that already carry the active model stamp
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Workers:        1,
	}
}

// Reembedder rebuilds every stale index reachable from a set of knowledge bases.
type Reembedder struct {
	store     *vectorindex.Store
	config    *Config
	progress  io.Writer
	pool      *ants.Pool
	processor *BatchProcessor
	iterator  *DocumentIterator
}

// NewReembedder creates a new reembedder over kbIDs plus the single-upload
// namespace. Indexes are rebuilt with store's embedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store *vectorindex.Store, kbIDs []string, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	var pool *ants.Pool
	if config.Workers > 1 {
		var err error
		pool, err = ants.NewPool(config.Workers)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
	}

	return &Reembedder{
		store:     store,
		config:    config,
		progress:  progress,
		pool:      pool,
		processor: NewBatchProcessor(store, config.MaxRetries, config.RetryDelay, config.Force, pool),
		iterator:  NewDocumentIterator(store, kbIDs, config.BatchSize),
	}, nil
}

// Close releases the worker pool, if any.
func (r *Reembedder) Close() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Run checks every persisted index and rebuilds those built with another
// embedding model. A batch with failures stops the run after the whole
// batch has been attempted.
func (r *Reembedder) Run(ctx context.Context) (Stats, error) {
	var total Stats

	docs, err := r.iterator.Documents(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to list indexes: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintf(r.progress, "No indexes found (0 documents)\n")
		return total, nil
	}

	fmt.Fprintf(r.progress, "Checking %d indexes against model %s (batch size: %d)\n",
		len(docs), r.store.Embedder().Model(), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, len(docs), r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, docs, func(batch []core.DocumentIdentity) error {
		stats, err := r.processor.Process(ctx, batch)
		total.Checked += stats.Checked
		total.Rebuilt += stats.Rebuilt
		total.Current += stats.Current
		total.Unreadable += stats.Unreadable
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		fmt.Fprintln(r.progress)
		return total, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Checked %d indexes in %v: %d rebuilt, %d current, %d unreadable\n",
		total.Checked, elapsed.Round(time.Millisecond), total.Rebuilt, total.Current, total.Unreadable)

	return total, nil
}
