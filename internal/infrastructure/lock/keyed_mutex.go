package lock

import (
	"context"
	"sync"
)

// KeyedMutex serializes work per key. Billing uses it so two requests for
// the same contract-month (or the same invoice) never interleave inside one
// process; cross-process safety comes from optimistic locking at the
// repository layer.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // capacity 1, holds the lock token
	refs int
}

// NewKeyedMutex creates a KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free or the context
// is done. On success the caller must release with Unlock.
func (m *KeyedMutex) Lock(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		e.ch <- struct{}{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		m.release(key, e)
		return ctx.Err()
	}
}

// Unlock releases the mutex for key.
func (m *KeyedMutex) Unlock(key string) {
	m.mu.Lock()
	e, ok := m.locks[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	e.ch <- struct{}{}
	m.release(key, e)
}

// release drops one reference and removes the map entry once nobody waits.
func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs <= 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}
