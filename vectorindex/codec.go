package vectorindex

import (
	"fmt"

	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
)

// Artifacts holds encoded sub-artifacts keyed by local name
// (storage.IndexLocalName of each suffix).
type Artifacts map[string][]byte

// Encode serializes idx into its vectors and docstore sub-artifacts. The
// docstore carries a checksum of the vectors so a mismatched pair is
// detected on decode.
func Encode(idx *Index) (Artifacts, error) {
	vectors := make([][]float32, len(idx.entries))
	docstore := &storage.IndexDocstore{
		Model:      idx.model,
		Dimensions: idx.dimensions,
		Entries:    make([]storage.IndexEntry, len(idx.entries)),
	}
	for i, entry := range idx.entries {
		vectors[i] = entry.Vector
		docstore.Entries[i] = storage.IndexEntry{
			Id:              entry.Chunk.Id,
			KnowledgeBaseID: entry.Chunk.Source.KnowledgeBaseID,
			Key:             entry.Chunk.Source.Key,
			Text:            entry.Chunk.Text,
		}
	}

	vectorBytes, err := storage.MarshalIndexVectors(vectors)
	if err != nil {
		return nil, err
	}
	docstore.Checksum = core.Checksum(vectorBytes)

	return Artifacts{
		storage.IndexLocalName(storage.IndexVectorsSuffix):  vectorBytes,
		storage.IndexLocalName(storage.IndexDocstoreSuffix): storage.MarshalIndexDocstore(docstore),
	}, nil
}

// Decode rebuilds an index from its sub-artifacts.
func Decode(files Artifacts) (*Index, error) {
	raw := make(map[string][]byte, len(storage.IndexSuffixes))
	for _, suffix := range storage.IndexSuffixes {
		data, ok := files[storage.IndexLocalName(suffix)]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteIndex, storage.IndexLocalName(suffix))
		}
		raw[suffix] = data
	}

	vectorBytes := raw[storage.IndexVectorsSuffix]
	docstore, err := storage.UnmarshalIndexDocstore(raw[storage.IndexDocstoreSuffix])
	if err != nil {
		return nil, fmt.Errorf("%w: docstore: %w", ErrCorruptIndex, err)
	}
	if sum := core.Checksum(vectorBytes); sum != docstore.Checksum {
		return nil, fmt.Errorf("%w: vectors checksum %x does not match docstore %x", ErrCorruptIndex, sum, docstore.Checksum)
	}
	vectors, err := storage.UnmarshalIndexVectors(vectorBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: vectors: %w", ErrCorruptIndex, err)
	}
	if len(vectors) != len(docstore.Entries) {
		return nil, fmt.Errorf("%w: %d vectors for %d entries", ErrCorruptIndex, len(vectors), len(docstore.Entries))
	}

	idx := &Index{
		model:      docstore.Model,
		dimensions: docstore.Dimensions,
		entries:    make([]Entry, len(vectors)),
	}
	for i, e := range docstore.Entries {
		if len(vectors[i]) != idx.dimensions {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrCorruptIndex, i, len(vectors[i]), idx.dimensions)
		}
		idx.entries[i] = Entry{
			Chunk: core.Chunk{
				Id:     e.Id,
				Source: core.DocumentIdentity{KnowledgeBaseID: e.KnowledgeBaseID, Key: e.Key},
				Text:   e.Text,
			},
			Vector: vectors[i],
		}
	}
	return idx, nil
}
