package storage

import (
	"context"

	"github.com/poiesic/meetkb/core"
)

// ObjectStore is a flat bucket/key blob store. Every write is a full,
// atomic replace of the object.
// Implementations must be thread-safe and support concurrent access.
type ObjectStore interface {
	// PutObject stores data under bucket/key, replacing any previous object.
	PutObject(ctx context.Context, bucket, key string, data []byte) error

	// GetObject retrieves the object at bucket/key.
	// Returns ErrNotFound if it doesn't exist.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	// DeleteObject removes bucket/key. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, key string) error

	// ListObjects returns the keys in bucket starting with prefix, in
	// lexicographic order.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// JobRepository persists transcription job records so background
// progress can be observed.
type JobRepository interface {
	// SaveJob inserts or replaces the record for job.Name.
	// Sets CreatedAt on first save and refreshes UpdatedAt.
	SaveJob(ctx context.Context, job *core.TranscriptionJob) error

	// GetJob retrieves a job record by name.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, name string) (*core.TranscriptionJob, error)

	// ListJobs returns every job record ordered by name.
	ListJobs(ctx context.Context) ([]*core.TranscriptionJob, error)

	// DeleteJob removes a job record. Returns ErrNotFound if it doesn't exist.
	DeleteJob(ctx context.Context, name string) error
}
