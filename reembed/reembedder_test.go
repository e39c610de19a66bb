package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		Workers:        1,
	}
}

func TestReembedder_Run(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	stale := env.persist(t, env.old, "sales", "q1_review", "pipeline grew", "two new logos")
	env.persist(t, env.current, "sales", "q2_review", "already current")
	single := env.persist(t, env.old, "", "one_off", "a single upload")

	var buf bytes.Buffer
	r, err := NewReembedder(env.current, env.registry.IDs(), testConfig(), &buf)
	require.NoError(t, err)
	defer r.Close()

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Checked: 3, Rebuilt: 2, Current: 1}, stats)

	_, err = env.current.Load(ctx, stale)
	require.NoError(t, err)
	_, err = env.current.Load(ctx, single)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Checking 3 indexes")
	assert.Contains(t, output, "3/3", "should show completion")
	assert.Contains(t, output, "2 rebuilt, 1 current, 0 unreadable")
}

func TestReembedder_SecondRunIsNoop(t *testing.T) {
	env := setupTestEnv(t)
	env.persist(t, env.old, "ops", "standup", "deploy went out")

	r, err := NewReembedder(env.current, []string{"ops"}, testConfig(), nil)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Rebuilt)

	second, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Checked: 1, Current: 1}, second)
}

func TestReembedder_NoIndexes(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	r, err := NewReembedder(env.current, env.registry.IDs(), DefaultConfig(), &buf)
	require.NoError(t, err)
	defer r.Close()

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Contains(t, buf.String(), "No indexes found")
}

func TestReembedder_Workers(t *testing.T) {
	env := setupTestEnv(t)
	for _, key := range []string{"a", "b", "c", "d"} {
		env.persist(t, env.old, "sales", key, "notes "+key)
	}

	cfg := testConfig()
	cfg.Workers = 4
	cfg.BatchSize = 3
	r, err := NewReembedder(env.current, []string{"sales"}, cfg, nil)
	require.NoError(t, err)
	defer r.Close()

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rebuilt)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	env := setupTestEnv(t)
	env.persist(t, env.old, "sales", "q1_review", "cannot be rebuilt")

	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	var buf bytes.Buffer
	r, err := NewReembedder(env.current, []string{"sales"}, testConfig(), &buf)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	env := setupTestEnv(t)
	env.persist(t, env.old, "sales", "q1_review", "one")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewReembedder(env.current, []string{"sales"}, testConfig(), nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReembedder_RequiresStore(t *testing.T) {
	_, err := NewReembedder(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, DefaultBatchSize, config.BatchSize)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, time.Second, config.RetryDelay)
	assert.Equal(t, 1, config.Workers)
	assert.False(t, config.Force)
}
