package vectorindex

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/meetkb/ai/mock"
	"github.com/poiesic/meetkb/config"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/storage"
	"github.com/poiesic/meetkb/storage/badger"
	"github.com/stretchr/testify/require"
)

var testBuckets = core.Buckets{
	Uploads:     "uploads",
	Transcripts: "transcripts",
	Summaries:   "summaries",
	Embeddings:  "embeddings",
}

func newTestRegistry(t *testing.T) *config.Registry {
	t.Helper()
	reg, err := config.NewRegistry(testBuckets, map[string]core.KnowledgeBase{
		"sales": {Prefix: "sales", Buckets: testBuckets},
	})
	require.NoError(t, err)
	return reg
}

func newTestObjects(t *testing.T) storage.ObjectStore {
	t.Helper()
	objects, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return objects
}

func newTestStore(t *testing.T, objects storage.ObjectStore) (*Store, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	store, err := NewStore(objects, embedder, newTestRegistry(t))
	require.NoError(t, err)
	return store, embedder
}

// failingStore fails PutObject and GetObject for keys with a matching suffix.
type failingStore struct {
	storage.ObjectStore
	failPut string
	failGet string

	mu      sync.Mutex
	deleted []string
}

func (f *failingStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if f.failPut != "" && strings.HasSuffix(key, f.failPut) {
		return errInjected
	}
	return f.ObjectStore.PutObject(ctx, bucket, key, data)
}

func (f *failingStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.failGet != "" && strings.HasSuffix(key, f.failGet) {
		return nil, errInjected
	}
	return f.ObjectStore.GetObject(ctx, bucket, key)
}

func (f *failingStore) DeleteObject(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return f.ObjectStore.DeleteObject(ctx, bucket, key)
}

var errInjected = errors.New("injected failure")
