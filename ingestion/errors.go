package ingestion

import "errors"

var (
	// ErrObjectStoreRequired is returned when an object store is not provided.
	ErrObjectStoreRequired = errors.New("object store required")

	// ErrResolverRequired is returned when a knowledge base resolver is not provided.
	ErrResolverRequired = errors.New("knowledge base resolver required")

	// ErrIndexStoreRequired is returned when a vector index store is not provided.
	ErrIndexStoreRequired = errors.New("vector index store required")

	// ErrSummarizerRequired is returned when a summarizer is not provided.
	ErrSummarizerRequired = errors.New("summarizer required")

	// ErrUnsupportedMedia is returned for uploads whose kind cannot be processed.
	ErrUnsupportedMedia = errors.New("unsupported file type")

	// ErrTranscriptionUnavailable is returned for video uploads when no
	// transcription runner is configured.
	ErrTranscriptionUnavailable = errors.New("transcription unavailable")

	// ErrEmptyTranscript is returned when an upload yields no text.
	ErrEmptyTranscript = errors.New("transcript extraction produced no text")

	// ErrEmptyUpload is returned when an upload has no name or no content.
	ErrEmptyUpload = errors.New("upload is empty")
)
