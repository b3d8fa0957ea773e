// Package lock serialises work on one seat or one wallet at a time.
//
// Keys follow "seat:<id>" and "wallet:<holder id>". A caller that needs both
// takes the seat key first; nothing takes them in the other order.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrEmptyKey = errors.New("lock key must not be empty")

// Locker runs fn while holding the lock for key. The error from fn is
// returned as is.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func SeatKey(seatID string) string     { return "seat:" + seatID }
func WalletKey(holderID string) string { return "wallet:" + holderID }

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are dropped once nobody
// waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (m *KeyedMutex) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.drop(key, e)
		return ctx.Err()
	}
}

func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	e := m.entries[key]
	m.mu.Unlock()

	<-e.ch
	m.drop(key, e)
}

func (m *KeyedMutex) drop(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

func (m *KeyedMutex) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := m.acquire(ctx, key); err != nil {
		return err
	}
	defer m.release(key)

	return fn(ctx)
}
