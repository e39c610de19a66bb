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

package transcribe

import "errors"

var (
	// ErrServiceRequired is returned when a speech-to-text service is not provided.
	ErrServiceRequired = errors.New("transcription service required")

	// ErrObjectStoreRequired is returned when an object store is not provided.
	ErrObjectStoreRequired = errors.New("object store required")

	// ErrJobRepositoryRequired is returned when a job repository is not provided.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrOrchestratorRequired is returned when an orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("orchestrator required")

	// ErrSubmission indicates the service rejected the job. It is never retried.
	ErrSubmission = errors.New("failed to submit transcription job")

	// ErrJobFailed indicates the service reported the job as failed.
	ErrJobFailed = errors.New("transcription job failed")

	// ErrTimedOut indicates the job did not finish within the polling budget.
	ErrTimedOut = errors.New("transcription job timed out")

	// ErrResultUnreadable indicates the finished transcript could not be read or parsed.
	ErrResultUnreadable = errors.New("transcription result unreadable")

	// ErrInvalidPollPolicy indicates a negative interval or non-positive attempt count.
	ErrInvalidPollPolicy = errors.New("invalid poll policy")
)
