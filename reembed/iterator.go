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

	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/vectorindex"
)

const (
	// DefaultBatchSize is the default number of indexes handled per batch
	DefaultBatchSize = 10
)

// DocumentIterator walks every persisted index in a set of knowledge bases
// in batches. The single-upload namespace is always included.
type DocumentIterator struct {
	store     *vectorindex.Store
	kbIDs     []string
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// batchSize: number of documents per batch (DefaultBatchSize when <= 0)
func NewDocumentIterator(store *vectorindex.Store, kbIDs []string, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ids := make([]string, 0, len(kbIDs)+1)
	seen := make(map[string]bool, len(kbIDs)+1)
	for _, id := range append(append(ids, kbIDs...), "") {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return &DocumentIterator{
		store:     store,
		kbIDs:     ids,
		batchSize: batchSize,
	}
}

// Documents lists the identity of every persisted index, knowledge base by
// knowledge base in the order they were given.
func (it *DocumentIterator) Documents(ctx context.Context) ([]core.DocumentIdentity, error) {
	var docs []core.DocumentIdentity
	for _, kbID := range it.kbIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys, err := it.store.List(ctx, kbID)
		if err != nil {
			return nil, fmt.Errorf("list indexes of %q: %w", kbID, err)
		}
		for _, key := range keys {
			docs = append(docs, core.DocumentIdentity{KnowledgeBaseID: kbID, Key: key})
		}
	}
	return docs, nil
}

// ForEach calls fn with consecutive batches of docs.
// Iteration stops on first error from fn.
// Context cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, docs []core.DocumentIdentity, fn func([]core.DocumentIdentity) error) error {
	for i := 0; i < len(docs); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(docs[i:min(i+it.batchSize, len(docs))]); err != nil {
			return err
		}
	}
	return ctx.Err()
}
