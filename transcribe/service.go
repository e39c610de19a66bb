package transcribe

import (
	"context"

	"github.com/poiesic/meetkb/core"
)

// JobSpec describes a speech-to-text job to start.
type JobSpec struct {
	Name         string
	MediaURI     string
	MediaFormat  string
	LanguageCode string
	OutputBucket string
}

// JobState is a job's status as reported by the service.
type JobState struct {
	Status        core.JobStatus
	FailureReason string
}

// Service is an asynchronous speech-to-text job service. A finished job
// writes its result to {OutputBucket}/{Name}.json.
type Service interface {
	Submit(ctx context.Context, spec JobSpec) error
	Status(ctx context.Context, name string) (JobState, error)
}

// JobObserver receives every status transition and poll attempt of a job.
type JobObserver interface {
	JobUpdated(ctx context.Context, job core.TranscriptionJob)
}

// noopObserver is a no-op implementation of JobObserver
type noopObserver struct{}

var _ JobObserver = (*noopObserver)(nil)

func (n *noopObserver) JobUpdated(_ context.Context, _ core.TranscriptionJob) {}
