package vectorindex

import (
	"context"
	"testing"

	"github.com/poiesic/meetkb/ai/mock"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const q3Transcript = "We discussed the Q3 budget. Action: finance to send numbers by Friday."

func TestNewStore_RequiresCollaborators(t *testing.T) {
	objects := newTestObjects(t)
	reg := newTestRegistry(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewStore(nil, embedder, reg)
	assert.ErrorIs(t, err, ErrObjectStoreRequired)
	_, err = NewStore(objects, nil, reg)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewStore(objects, embedder, nil)
	assert.ErrorIs(t, err, ErrResolverRequired)
	_, err = NewStore(objects, embedder, reg, WithEmbedBatchSize(0))
	assert.Error(t, err)
}

func TestStore_BuildAndLoad(t *testing.T) {
	ctx := context.Background()
	objects := newTestObjects(t)
	store, _ := newTestStore(t, objects)
	id := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "kickoff"}

	chunks := []string{"alpha beta", "gamma delta", "epsilon"}
	require.NoError(t, store.BuildAndPersist(ctx, id, chunks))

	for _, suffix := range storage.IndexSuffixes {
		_, err := objects.GetObject(ctx, "embeddings", "sales/kickoff.index."+suffix)
		require.NoError(t, err, suffix)
	}

	idx, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, mock.DefaultModel, idx.Model())
	require.Equal(t, 3, idx.Len())
	for i, entry := range idx.Entries() {
		assert.Equal(t, chunks[i], entry.Chunk.Text)
		assert.Equal(t, id, entry.Chunk.Source)
	}

	keys, err := store.List(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"kickoff"}, keys)
}

func TestStore_RoundTripSearchMatchesInMemory(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t, newTestObjects(t))
	id := core.DocumentIdentity{Key: "notes"}

	chunks := []string{"budget review for the quarter", "hiring plan for engineering", "office move in spring"}
	built, err := store.Build(ctx, id, chunks)
	require.NoError(t, err)
	require.NoError(t, store.Persist(ctx, id, built))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)

	for _, question := range []string{"what about hiring?", "budget", "where is the office moving"} {
		want, err := built.SearchText(ctx, embedder, question, 2)
		require.NoError(t, err)
		got, err := loaded.SearchText(ctx, embedder, question, 2)
		require.NoError(t, err)
		assert.Equal(t, want, got, question)
	}
}

func TestStore_BatchesEmbeddings(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	store, err := NewStore(newTestObjects(t), embedder, newTestRegistry(t), WithEmbedBatchSize(2))
	require.NoError(t, err)

	idx, err := store.Build(context.Background(), core.DocumentIdentity{Key: "k"}, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, 3, embedder.CallCount())
}

func TestStore_NoChunks(t *testing.T) {
	store, _ := newTestStore(t, newTestObjects(t))

	err := store.BuildAndPersist(context.Background(), core.DocumentIdentity{Key: "k"}, nil)
	assert.ErrorIs(t, err, ErrNoChunks)
}

func TestStore_UnknownKnowledgeBase(t *testing.T) {
	store, _ := newTestStore(t, newTestObjects(t))

	err := store.BuildAndPersist(context.Background(), core.DocumentIdentity{KnowledgeBaseID: "nope", Key: "k"}, []string{"x"})
	assert.ErrorIs(t, err, core.ErrUnknownKnowledgeBase)
}

func TestStore_PersistFailureRemovesPartialIndex(t *testing.T) {
	ctx := context.Background()
	objects := &failingStore{ObjectStore: newTestObjects(t), failPut: ".index.pkl"}
	store, err := NewStore(objects, mock.NewMockEmbedder(), newTestRegistry(t))
	require.NoError(t, err)
	id := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "call"}

	err = store.BuildAndPersist(ctx, id, []string{"some text"})
	require.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, errInjected)

	assert.Equal(t, []string{"sales/call.index.faiss"}, objects.deleted)
	_, err = objects.GetObject(ctx, "embeddings", "sales/call.index.faiss")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrIncompleteIndex)
}

func TestStore_LoadIncomplete(t *testing.T) {
	ctx := context.Background()
	objects := newTestObjects(t)
	store, _ := newTestStore(t, objects)
	id := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "call"}

	_, err := store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrIncompleteIndex)

	require.NoError(t, store.BuildAndPersist(ctx, id, []string{"text"}))
	require.NoError(t, objects.DeleteObject(ctx, "embeddings", "sales/call.index.faiss"))

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrIncompleteIndex)
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	objects := newTestObjects(t)
	store, _ := newTestStore(t, objects)
	a := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "a"}
	b := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "b"}

	require.NoError(t, store.BuildAndPersist(ctx, a, []string{"first document"}))
	require.NoError(t, store.BuildAndPersist(ctx, b, []string{"second document", "with two chunks"}))

	vectors, err := objects.GetObject(ctx, "embeddings", "sales/b.index.faiss")
	require.NoError(t, err)
	require.NoError(t, objects.PutObject(ctx, "embeddings", "sales/a.index.faiss", vectors))

	_, err = store.Load(ctx, a)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestStore_LoadModelMismatch(t *testing.T) {
	ctx := context.Background()
	objects := newTestObjects(t)
	reg := newTestRegistry(t)
	id := core.DocumentIdentity{Key: "k"}

	old := mock.NewMockEmbedder()
	old.ModelName = "old-model"
	oldStore, err := NewStore(objects, old, reg)
	require.NoError(t, err)
	require.NoError(t, oldStore.BuildAndPersist(ctx, id, []string{"text"}))

	store, err := NewStore(objects, mock.NewMockEmbedder(), reg)
	require.NoError(t, err)

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrModelMismatch)

	idx, err := store.Inspect(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "old-model", idx.Model())
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, newTestObjects(t))
	id := core.DocumentIdentity{KnowledgeBaseID: "sales", Key: "call"}

	require.NoError(t, store.BuildAndPersist(ctx, id, []string{"text"}))
	require.NoError(t, store.Delete(ctx, id))

	keys, err := store.List(ctx, "sales")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_Q3Example(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t, newTestObjects(t))
	id := core.DocumentIdentity{Key: "q3-sync"}

	// a single chunk fits the 500/50 window
	require.NoError(t, store.BuildAndPersist(ctx, id, []string{q3Transcript}))

	idx, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	matches, err := idx.SearchText(ctx, embedder, "What is the action item?", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, q3Transcript, matches[0].Chunk.Text)
	assert.Greater(t, matches[0].Score, float32(0))
}
