package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLocker_SerializesSameKey(t *testing.T) {
	locker := NewKeyLocker()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, unlock, err := locker.Lock(context.Background(), "sales/standup")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locker.held())
}

func TestKeyLocker_DistinctKeysIndependent(t *testing.T) {
	locker := NewKeyLocker()

	_, unlockA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		_, unlock, err := locker.Lock(context.Background(), "b")
		if err == nil {
			unlock()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyLocker_ReentrantWithOwningContext(t *testing.T) {
	locker := NewKeyLocker()

	owned, unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	done := make(chan struct{})
	go func() {
		_, inner, err := locker.Lock(owned, "a")
		if err == nil {
			inner()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("owning context blocked on its own key")
	}
}

func TestKeyLocker_ContextCanceledWhileWaiting(t *testing.T) {
	locker := NewKeyLocker()

	_, unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err = locker.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Eventually(t, func() bool { return locker.held() == 0 }, time.Second, time.Millisecond)

	// the key is usable again
	_, unlock, err = locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}

func TestKeyLocker_UnlockIdempotent(t *testing.T) {
	locker := NewKeyLocker()

	_, unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()

	assert.Equal(t, 0, locker.held())
}
