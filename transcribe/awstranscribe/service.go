// Package awstranscribe implements transcribe.Service on Amazon Transcribe.
package awstranscribe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/poiesic/meetkb/core"
	meettranscribe "github.com/poiesic/meetkb/transcribe"
)

// API is the subset of the Transcribe client the service uses.
type API interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Service adapts Amazon Transcribe batch jobs.
type Service struct {
	client API
	logger *slog.Logger
}

var _ meettranscribe.Service = (*Service)(nil)

// New wraps a Transcribe client.
//
// Returns transcribe.Service interface to enforce abstraction.
func New(client API) meettranscribe.Service {
	return &Service{
		client: client,
		logger: slog.Default().With("component", "aws-transcribe"),
	}
}

// NewFromRegion builds a client from the default AWS credential chain.
func NewFromRegion(ctx context.Context, region string) (meettranscribe.Service, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(transcribe.NewFromConfig(cfg)), nil
}

// Submit starts a transcription job writing its result to spec.OutputBucket.
func (s *Service) Submit(ctx context.Context, spec meettranscribe.JobSpec) error {
	s.logger.Debug("starting transcription job", "job", spec.Name, "media", spec.MediaURI)
	_, err := s.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(spec.Name),
		Media:                &types.Media{MediaFileUri: aws.String(spec.MediaURI)},
		MediaFormat:          types.MediaFormat(spec.MediaFormat),
		LanguageCode:         types.LanguageCode(spec.LanguageCode),
		OutputBucketName:     aws.String(spec.OutputBucket),
	})
	return err
}

// Status reports the job's current state.
func (s *Service) Status(ctx context.Context, name string) (meettranscribe.JobState, error) {
	out, err := s.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	if err != nil {
		return meettranscribe.JobState{}, err
	}
	if out.TranscriptionJob == nil {
		return meettranscribe.JobState{}, fmt.Errorf("transcription job %s: empty response", name)
	}

	job := out.TranscriptionJob
	return meettranscribe.JobState{
		Status:        mapStatus(job.TranscriptionJobStatus),
		FailureReason: aws.ToString(job.FailureReason),
	}, nil
}

func mapStatus(status types.TranscriptionJobStatus) core.JobStatus {
	switch status {
	case types.TranscriptionJobStatusQueued:
		return core.JobStatusSubmitted
	case types.TranscriptionJobStatusCompleted:
		return core.JobStatusCompleted
	case types.TranscriptionJobStatusFailed:
		return core.JobStatusFailed
	default:
		return core.JobStatusInProgress
	}
}
