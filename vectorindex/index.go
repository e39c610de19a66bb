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

package vectorindex

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/core"
)

// Entry is one indexed chunk with its unit-length embedding.
type Entry struct {
	Chunk  core.Chunk
	Vector []float32
}

// Match is a search hit.
type Match struct {
	Chunk core.Chunk
	Score float32
}

// Index is an ordered set of chunk embeddings stamped with the embedding
// model that produced them. Search is exact; indexes here cover one
// request's worth of documents.
//
// An Index is not safe for concurrent mutation.
type Index struct {
	model      string
	dimensions int
	entries    []Entry
}

// New creates an empty index for vectors produced by model.
func New(model string) *Index {
	return &Index{model: model}
}

// Model returns the embedding model stamp.
func (idx *Index) Model() string {
	return idx.model
}

// Dimensions returns the vector dimension, or 0 for an empty index.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Add appends chunk with a normalized copy of vector.
func (idx *Index) Add(chunk core.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for chunk %d", ErrDimensionMismatch, chunk.Id)
	}
	if idx.dimensions == 0 && len(idx.entries) == 0 {
		idx.dimensions = len(vector)
	}
	if len(vector) != idx.dimensions {
		return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vector), idx.dimensions)
	}
	idx.entries = append(idx.entries, Entry{Chunk: chunk, Vector: normalize(vector)})
	return nil
}

// Search returns up to k entries most similar to vector by cosine
// similarity, highest first. Equal scores are ordered by source document,
// then chunk text, then chunk id, so results do not depend on the order
// indexes were merged.
func (idx *Index) Search(vector []float32, k int) ([]Match, error) {
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), idx.dimensions)
	}
	query := normalize(vector)

	matches := make([]Match, len(idx.entries))
	for i, entry := range idx.entries {
		matches[i] = Match{Chunk: entry.Chunk, Score: dotProduct(query, entry.Vector)}
	}

	// Sort by similarity descending
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.Source.String(), b.Chunk.Source.String()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chunk.Text, b.Chunk.Text); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.Id, b.Chunk.Id)
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// SearchText embeds text with embedder and searches. The embedder must be
// the model the index was built with.
func (idx *Index) SearchText(ctx context.Context, embedder ai.Embedder, text string, k int) ([]Match, error) {
	if embedder.Model() != idx.model {
		return nil, fmt.Errorf("%w: index built with %q, query uses %q", ErrModelMismatch, idx.model, embedder.Model())
	}
	vector, err := embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return idx.Search(vector, k)
}

// Merge appends other's entries, keeping their source identities.
func (idx *Index) Merge(other *Index) error {
	if other.Len() == 0 {
		return nil
	}
	if other.model != idx.model {
		return fmt.Errorf("%w: cannot merge %q into %q", ErrModelMismatch, other.model, idx.model)
	}
	if idx.Len() == 0 {
		idx.dimensions = other.dimensions
	} else if other.dimensions != idx.dimensions {
		return fmt.Errorf("%w: cannot merge %d into %d", ErrDimensionMismatch, other.dimensions, idx.dimensions)
	}
	idx.entries = append(idx.entries, other.entries...)
	return nil
}

// normalize returns a unit-length copy of v. Zero vectors are copied as is.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range min(len(a), len(b)) {
		sum += a[i] * b[i]
	}
	return sum
}
