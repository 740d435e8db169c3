// Package locker serializes read-modify-write cycles per session key.
package locker

import (
	"context"
	"sync"
	"time"

	"ai-consulting-be/pkg/intelligence"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	// Lock blocks until key is held, ctx is done, or the wait timeout elapses.
	// A timeout yields intelligence.ErrLockTimeout.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// KeyedMutex is an in-process Locker. Entries are dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
	wait    time.Duration
}

type keyEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*keyEntry),
		wait:    wait,
	}
}

func (k *KeyedMutex) acquireEntry(key string) *keyEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyedMutex) releaseEntry(key string, e *keyEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (Unlock, error) {
	e := k.acquireEntry(key)

	var timeout <-chan time.Time
	if k.wait > 0 {
		timer := time.NewTimer(k.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.releaseEntry(key, e)
		return nil, ctx.Err()
	case <-timeout:
		k.releaseEntry(key, e)
		return nil, intelligence.ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.releaseEntry(key, e)
		})
	}, nil
}

// held reports how many keys currently have holders or waiters.
func (k *KeyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
