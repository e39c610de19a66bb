package transcribe

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
	"github.com/poiesic/meetkb/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultJSON = `{"jobName":"x","results":{"transcripts":[{"transcript":"We discussed the Q3 budget."}],"items":[]}}`

// fakeService replays scripted states and, on completion, writes the result
// object the way the real service does.
type fakeService struct {
	objects   storage.ObjectStore
	states    []JobState
	submitErr error
	statusErr error
	result    string

	mu       sync.Mutex
	submits  []JobSpec
	statuses int
}

func (f *fakeService) Submit(ctx context.Context, spec JobSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, spec)
	return f.submitErr
}

func (f *fakeService) Status(ctx context.Context, name string) (JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
	if f.statusErr != nil {
		return JobState{}, f.statusErr
	}
	state := JobState{Status: core.JobStatusInProgress}
	if len(f.states) > 0 {
		state = f.states[0]
		f.states = f.states[1:]
	}
	if state.Status == core.JobStatusCompleted && f.result != "" {
		spec := f.submits[len(f.submits)-1]
		if err := f.objects.PutObject(ctx, spec.OutputBucket, ResultKey(name), []byte(f.result)); err != nil {
			return JobState{}, err
		}
	}
	return state, nil
}

func (f *fakeService) statusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses
}

type recordingObserver struct {
	mu   sync.Mutex
	jobs []core.TranscriptionJob
}

func (r *recordingObserver) JobUpdated(_ context.Context, job core.TranscriptionJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *recordingObserver) statuses() []core.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.JobStatus, len(r.jobs))
	for i, j := range r.jobs {
		out[i] = j.Status
	}
	return out
}

func newStores(t *testing.T) (storage.ObjectStore, storage.JobRepository) {
	t.Helper()
	objects, jobs, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return objects, jobs
}

func newOrchestrator(t *testing.T, svc *fakeService, objects storage.ObjectStore, attempts int) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(svc, objects, WithPollInterval(0), WithMaxAttempts(attempts))
	require.NoError(t, err)
	return o
}

func states(statuses ...core.JobStatus) []JobState {
	out := make([]JobState, len(statuses))
	for i, s := range statuses {
		out[i] = JobState{Status: s}
	}
	return out
}

var testRequest = Request{
	Document:     core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "kickoff"},
	MediaURI:     "s3://uploads/sales/kickoff.mp4",
	OutputBucket: "transcripts",
	OutputKey:    "kickoff.txt",
}

func TestJobName(t *testing.T) {
	name := JobName("weekly sync (final).txt")
	assert.Regexp(t, regexp.MustCompile(`^weekly-sync--final--[0-9a-f]{8}$`), name)
	assert.NotEqual(t, name, JobName("weekly sync (final).txt"))

	assert.Regexp(t, regexp.MustCompile(`^transcription-job-[0-9a-f-]{36}$`), JobName(""))
	assert.Regexp(t, regexp.MustCompile(`^archive\.tar-[0-9a-f]{8}$`), JobName("archive.tar.gz"))
	assert.Equal(t, "x.json", ResultKey("x"))
}

func TestNewOrchestrator(t *testing.T) {
	objects, _ := newStores(t)

	_, err := NewOrchestrator(nil, objects)
	assert.ErrorIs(t, err, ErrServiceRequired)
	_, err = NewOrchestrator(&fakeService{}, nil)
	assert.ErrorIs(t, err, ErrObjectStoreRequired)
	_, err = NewOrchestrator(&fakeService{}, objects, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidPollPolicy)
	_, err = NewOrchestrator(&fakeService{}, objects, WithPollInterval(-1))
	assert.ErrorIs(t, err, ErrInvalidPollPolicy)
}

func TestSubmitAndAwait_Completed(t *testing.T) {
	ctx := context.Background()
	objects, _ := newStores(t)
	svc := &fakeService{
		objects: objects,
		states:  states(core.JobStatusSubmitted, core.JobStatusInProgress, core.JobStatusCompleted),
		result:  resultJSON,
	}
	o := newOrchestrator(t, svc, objects, 10)
	observer := &recordingObserver{}

	transcript, err := o.SubmitAndAwaitWithObserver(ctx, testRequest, observer)
	require.NoError(t, err)
	assert.Equal(t, "We discussed the Q3 budget.", transcript)
	assert.Equal(t, 3, svc.statusCalls())

	require.Len(t, svc.submits, 1)
	spec := svc.submits[0]
	assert.Equal(t, DefaultMediaFormat, spec.MediaFormat)
	assert.Equal(t, DefaultLanguageCode, spec.LanguageCode)
	assert.Equal(t, "transcripts", spec.OutputBucket)

	// the raw result is cleaned up
	_, err = objects.GetObject(ctx, "transcripts", ResultKey(spec.Name))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, []core.JobStatus{
		core.JobStatusSubmitted,
		core.JobStatusSubmitted,
		core.JobStatusInProgress,
		core.JobStatusCompleted,
	}, observer.statuses())
	last := observer.jobs[len(observer.jobs)-1]
	assert.Equal(t, 3, last.AttemptCount)
	assert.Equal(t, testRequest.Document, last.Document)
	assert.Equal(t, "transcripts/"+spec.Name+".json", last.OutputLocation)
}

func TestSubmitAndAwait_TimesOutAfterExactlyMaxAttempts(t *testing.T) {
	objects, _ := newStores(t)
	svc := &fakeService{objects: objects}
	o := newOrchestrator(t, svc, objects, 7)
	observer := &recordingObserver{}

	_, err := o.SubmitAndAwaitWithObserver(context.Background(), testRequest, observer)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.NotErrorIs(t, err, ErrJobFailed)
	assert.Equal(t, 7, svc.statusCalls())

	statuses := observer.statuses()
	assert.Equal(t, core.JobStatusTimedOut, statuses[len(statuses)-1])
	assert.Equal(t, 7, observer.jobs[len(observer.jobs)-1].AttemptCount)
}

func TestSubmitAndAwait_Failed(t *testing.T) {
	objects, _ := newStores(t)
	svc := &fakeService{
		objects: objects,
		states:  []JobState{{Status: core.JobStatusInProgress}, {Status: core.JobStatusFailed, FailureReason: "unsupported codec"}},
	}
	o := newOrchestrator(t, svc, objects, 10)

	_, err := o.SubmitAndAwait(context.Background(), testRequest)
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "unsupported codec")
	assert.Equal(t, 2, svc.statusCalls())
}

func TestSubmitAndAwait_SubmissionFailureNotRetried(t *testing.T) {
	objects, _ := newStores(t)
	svc := &fakeService{objects: objects, submitErr: errors.New("access denied")}
	o := newOrchestrator(t, svc, objects, 10)

	_, err := o.SubmitAndAwait(context.Background(), testRequest)
	require.ErrorIs(t, err, ErrSubmission)
	assert.Len(t, svc.submits, 1)
	assert.Equal(t, 0, svc.statusCalls())
}

func TestSubmitAndAwait_StatusErrorIsFatal(t *testing.T) {
	objects, _ := newStores(t)
	statusErr := errors.New("throttled")
	svc := &fakeService{objects: objects, statusErr: statusErr}
	o := newOrchestrator(t, svc, objects, 10)

	_, err := o.SubmitAndAwait(context.Background(), testRequest)
	require.ErrorIs(t, err, statusErr)
	assert.Equal(t, 1, svc.statusCalls())
}

func TestSubmitAndAwait_UnreadableResult(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{"missing", ""},
		{"malformed", "{not json"},
		{"no transcripts", `{"results":{"transcripts":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects, _ := newStores(t)
			svc := &fakeService{objects: objects, states: states(core.JobStatusCompleted), result: tt.result}
			o := newOrchestrator(t, svc, objects, 3)

			_, err := o.SubmitAndAwait(context.Background(), testRequest)
			assert.ErrorIs(t, err, ErrResultUnreadable)
			assert.Equal(t, 1, svc.statusCalls())
		})
	}
}

func TestSubmitAndAwait_ContextCanceled(t *testing.T) {
	objects, _ := newStores(t)
	svc := &fakeService{objects: objects}
	o, err := NewOrchestrator(svc, objects, WithPollInterval(time.Hour), WithMaxAttempts(5))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	observer := &recordingObserver{}
	errCh := make(chan error, 1)
	go func() {
		_, err := o.SubmitAndAwaitWithObserver(ctx, testRequest, observer)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return svc.statusCalls() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("orchestrator did not stop after cancellation")
	}
}
