package vectorindex

import "errors"

var (
	// ErrNoChunks is returned when an index would be built from no text.
	ErrNoChunks = errors.New("no chunks to index")

	// ErrPersist indicates the index sub-artifacts could not all be written.
	ErrPersist = errors.New("failed to persist index")

	// ErrIncompleteIndex indicates a sub-artifact is missing from storage.
	ErrIncompleteIndex = errors.New("incomplete index")

	// ErrCorruptIndex indicates sub-artifacts that cannot be decoded or that
	// were not written together.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrModelMismatch indicates an index built with a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch indicates vectors of differing dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrObjectStoreRequired is returned when an object store is not provided.
	ErrObjectStoreRequired = errors.New("object store required")

	// ErrStoreRequired is returned when a vector index store is not provided.
	ErrStoreRequired = errors.New("vector index store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrResolverRequired is returned when a knowledge base resolver is not provided.
	ErrResolverRequired = errors.New("knowledge base resolver required")
)
