package storage

import (
	"context"
	"sync"
)

// KeyLocker provides mutual exclusion per document key within a process.
// Locks are re-entrant along a context chain: a context returned by Lock
// already owns the key, so nested calls with it do not block.
// Entries are dropped once no goroutine holds or waits on them.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// heldKey marks a key owned by the context chain.
type heldKey struct {
	locker *KeyLocker
	key    string
}

// NewKeyLocker creates an empty KeyLocker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx already owns it. It returns the
// context that owns key and the function releasing it. Waiting stops with
// ctx.Err() when ctx is done.
func (l *KeyLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	marker := heldKey{locker: l, key: key}
	if ctx.Value(marker) != nil {
		return ctx, func() {}, nil
	}

	l.mu.Lock()
	lock, exists := l.locks[key]
	if !exists {
		lock = &keyLock{}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(acquired)
	}()

	release := func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}

	select {
	case <-acquired:
	case <-ctx.Done():
		// hand the lock straight back once the waiter gets it
		go func() {
			<-acquired
			release()
		}()
		return ctx, nil, ctx.Err()
	}

	var once sync.Once
	return context.WithValue(ctx, marker, true), func() { once.Do(release) }, nil
}

// held returns the number of keys currently tracked.
func (l *KeyLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
