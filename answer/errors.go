package answer

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrNoIndex is reported when there is no index to retrieve from.
	ErrNoIndex = errors.New("no index to retrieve from")
)
