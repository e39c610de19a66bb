package badger

import (
	"context"
	"testing"

	"github.com/poiesic/meetkb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestObjectStore(t *testing.T) storage.ObjectStore {
	t.Helper()
	objects, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return objects
}

func TestObjectStore_PutGet(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "transcripts", "sales/standup.txt", []byte("hello")))

	data, err := store.GetObject(ctx, "transcripts", "sales/standup.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestObjectStore_PutReplaces(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "b", "k", []byte("first")))
	require.NoError(t, store.PutObject(ctx, "b", "k", []byte("second")))

	data, err := store.GetObject(ctx, "b", "k")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestObjectStore_GetMissing(t *testing.T) {
	store := newTestObjectStore(t)

	_, err := store.GetObject(context.Background(), "b", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestObjectStore_BucketsAreSeparate(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "a", "k", []byte("in a")))

	_, err := store.GetObject(ctx, "ab", "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestObjectStore_Delete(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "b", "k", []byte("x")))
	require.NoError(t, store.DeleteObject(ctx, "b", "k"))

	_, err := store.GetObject(ctx, "b", "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting again is not an error
	assert.NoError(t, store.DeleteObject(ctx, "b", "k"))
}

func TestObjectStore_List(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	for _, key := range []string{"sales/b.txt", "sales/a.txt", "hr/c.txt", "sales/a.md"} {
		require.NoError(t, store.PutObject(ctx, "transcripts", key, []byte(key)))
	}
	require.NoError(t, store.PutObject(ctx, "other", "sales/z.txt", []byte("z")))

	keys, err := store.ListObjects(ctx, "transcripts", "sales/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales/a.md", "sales/a.txt", "sales/b.txt"}, keys)

	all, err := store.ListObjects(ctx, "transcripts", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestObjectStore_InvalidLocation(t *testing.T) {
	store := newTestObjectStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		bucket string
		key    string
	}{
		{"empty bucket", "", "k"},
		{"empty key", "b", ""},
		{"colon in bucket", "a:b", "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.PutObject(ctx, tt.bucket, tt.key, []byte("x"))
			assert.ErrorIs(t, err, storage.ErrInvalidLocation)
		})
	}
}

func TestObjectStore_CanceledContext(t *testing.T) {
	store := newTestObjectStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.PutObject(ctx, "b", "k", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
