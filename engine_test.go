package meetkb

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/meetkb/ai"
	"github.com/poiesic/meetkb/ai/mock"
	"github.com/poiesic/meetkb/config"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/ingestion"
	"github.com/poiesic/meetkb/reembed"
	"github.com/poiesic/meetkb/storage"
	"github.com/poiesic/meetkb/storage/badger"
	"github.com/poiesic/meetkb/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSummary = "# Budget review\nFinance approves on Friday."
	testAnswer  = "Finance signs off on Friday."
)

type testRig struct {
	engine    *Engine
	objects   storage.ObjectStore
	generator *mock.MockGenerator
	embedder  *mock.MockEmbedder
}

// scriptedService completes every job on its first status query and writes
// the result where a real service would.
type scriptedService struct {
	objects    storage.ObjectStore
	transcript string

	mu        sync.Mutex
	submitted []transcribe.JobSpec
}

func (s *scriptedService) Submit(ctx context.Context, spec transcribe.JobSpec) error {
	s.mu.Lock()
	s.submitted = append(s.submitted, spec)
	s.mu.Unlock()

	body, err := json.Marshal(map[string]any{
		"results": map[string]any{
			"transcripts": []map[string]string{{"transcript": s.transcript}},
		},
	})
	if err != nil {
		return err
	}
	return s.objects.PutObject(ctx, spec.OutputBucket, transcribe.ResultKey(spec.Name), body)
}

func (s *scriptedService) Status(ctx context.Context, name string) (transcribe.JobState, error) {
	return transcribe.JobState{Status: core.JobStatusCompleted}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.KnowledgeBases = map[string]core.KnowledgeBase{
		"sales": {Prefix: "sales", Buckets: cfg.Defaults.Buckets},
	}
	cfg.Transcription.PollInterval = 0
	cfg.Transcription.MaxAttempts = 3
	return cfg
}

func newTestRig(t *testing.T, withTranscription bool) *testRig {
	t.Helper()
	objects, jobs, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	generator := &mock.MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
			if strings.Contains(prompt, "<context>") {
				return testAnswer, nil
			}
			return testSummary, nil
		},
	}

	opts := []EngineOption{
		WithProvider(mock.NewMockProviderWithServices(embedder, generator)),
		WithStores(objects, jobs),
	}
	if withTranscription {
		opts = append(opts, WithTranscriptionService(&scriptedService{
			objects:    objects,
			transcript: "The Q3 budget needs finance approval by Friday.",
		}))
	}

	engine, err := NewEngine(context.Background(), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return &testRig{engine: engine, objects: objects, generator: generator, embedder: embedder}
}

func TestNewEngine_RequiresConfig(t *testing.T) {
	_, err := NewEngine(context.Background(), nil)
	assert.ErrorIs(t, err, ErrConfigRequired)
}

func TestEngine_UploadAndAsk(t *testing.T) {
	rig := newTestRig(t, false)
	ctx := context.Background()

	for _, name := range []string{"q3_budget review.txt", "q3_staffing.txt"} {
		res, err := rig.engine.Upload(ctx, ingestion.Upload{
			KnowledgeBaseID: "sales",
			Filename:        name,
			Data:            []byte("The Q3 budget needs finance approval by Friday."),
		})
		require.NoError(t, err)
		assert.False(t, res.Pending)
		assert.Equal(t, testSummary, res.Summary)
	}

	files, err := rig.engine.ListFiles(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"q3_budget-review", "q3_staffing"}, files)

	summaries, err := rig.engine.ListSummaries(ctx, "sales")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, testSummary, summaries[0].SummaryMarkdown)

	result, err := rig.engine.Ask(ctx, "sales", files, "When does finance approve the budget?")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, testAnswer, result.Text)

	prompt := rig.generator.LastPrompt()
	assert.Contains(t, prompt, "--- Summary for q3_budget-review ---")
	assert.Contains(t, prompt, "--- Summary for q3_staffing ---")
	assert.Contains(t, prompt, "approval by Friday")
}

func TestEngine_AskDocument(t *testing.T) {
	rig := newTestRig(t, false)
	ctx := context.Background()

	res, err := rig.engine.Upload(ctx, ingestion.Upload{
		Filename: "standup.txt",
		Data:     []byte("Deploy is frozen until the audit closes."),
	})
	require.NoError(t, err)
	assert.Equal(t, "", res.Document.KnowledgeBaseID)

	result, err := rig.engine.AskDocument(ctx, res.Summary, res.Document.Key, "Why is deploy frozen?")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Contains(t, rig.generator.LastPrompt(), "audit closes")
	assert.Contains(t, rig.generator.LastPrompt(), testSummary)
}

func TestEngine_AskValidation(t *testing.T) {
	rig := newTestRig(t, false)
	ctx := context.Background()

	_, err := rig.engine.Ask(ctx, "sales", []string{"q3"}, "   ")
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)

	_, err = rig.engine.Ask(ctx, "marketing", []string{"q3"}, "anything?")
	assert.ErrorIs(t, err, core.ErrUnknownKnowledgeBase)

	_, err = rig.engine.Ask(ctx, "sales", nil, "anything?")
	assert.ErrorIs(t, err, core.ErrNoDocuments)

	_, err = rig.engine.AskDocument(ctx, "", "", "anything?")
	assert.ErrorIs(t, err, core.ErrEmptyDocumentKey)

	assert.Equal(t, 0, rig.generator.CallCount(), "validation happens before any generation")
}

func TestEngine_AskMissingIndex(t *testing.T) {
	rig := newTestRig(t, false)

	_, err := rig.engine.Ask(context.Background(), "sales", []string{"never_uploaded"}, "anything?")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_VideoWithoutTranscription(t *testing.T) {
	rig := newTestRig(t, false)

	_, err := rig.engine.Upload(context.Background(), ingestion.Upload{
		KnowledgeBaseID: "sales",
		Filename:        "kickoff.mp4",
		Data:            []byte{0, 0, 0, 24},
	})
	assert.ErrorIs(t, err, ingestion.ErrTranscriptionUnavailable)
}

func TestEngine_VideoUpload(t *testing.T) {
	rig := newTestRig(t, true)
	ctx := context.Background()

	res, err := rig.engine.Upload(ctx, ingestion.Upload{
		KnowledgeBaseID: "sales",
		Filename:        "kickoff.mp4",
		Data:            []byte{0, 0, 0, 24},
	})
	require.NoError(t, err)
	require.True(t, res.Pending)
	require.NotEmpty(t, res.JobName)

	rig.engine.WaitForTranscriptions()

	job, err := rig.engine.JobStatus(ctx, res.JobName)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, job.Status)
	assert.Equal(t, res.Document, job.Document)

	jobs, err := rig.engine.Jobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	files, err := rig.engine.ListFiles(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"kickoff"}, files)

	result, err := rig.engine.Ask(ctx, "sales", files, "When is approval due?")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Contains(t, rig.generator.LastPrompt(), "approval by Friday")
}

func TestEngine_JobStatusUnknown(t *testing.T) {
	rig := newTestRig(t, false)

	_, err := rig.engine.JobStatus(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_Reembed(t *testing.T) {
	rig := newTestRig(t, false)
	ctx := context.Background()

	_, err := rig.engine.Upload(ctx, ingestion.Upload{
		KnowledgeBaseID: "sales",
		Filename:        "q3_budget.txt",
		Data:            []byte("The Q3 budget needs finance approval by Friday."),
	})
	require.NoError(t, err)

	stats, err := rig.engine.Reembed(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, reembed.Stats{Checked: 1, Current: 1}, stats)

	rig.embedder.ModelName = "next-embedding-model"
	_, err = rig.engine.Ask(ctx, "sales", []string{"q3_budget"}, "When?")
	require.Error(t, err, "stale index must not be queried with a new model")

	stats, err = rig.engine.Reembed(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rebuilt)

	result, err := rig.engine.Ask(ctx, "sales", []string{"q3_budget"}, "When?")
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestEngine_KnowledgeBases(t *testing.T) {
	rig := newTestRig(t, false)
	assert.Equal(t, []string{"sales"}, rig.engine.KnowledgeBases())
}

func TestEngine_CloseIdempotent(t *testing.T) {
	rig := newTestRig(t, true)
	require.NoError(t, rig.engine.Close())
	require.NoError(t, rig.engine.Close())
}
