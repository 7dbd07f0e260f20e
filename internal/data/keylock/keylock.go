// Package keylock provides in-process exclusive sections keyed by string.
package keylock

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
)

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker hands out one exclusive section per key. Entries are reference
// counted and dropped once nobody holds or waits for them.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock acquires every key in sorted order, so callers locking overlapping
// sets never deadlock each other. Duplicated keys are locked once. When ctx
// ends before all keys are held, the ones already taken are released.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			l.releaseAll(held)
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.releaseAll(held) })
	}, nil
}

func (l *Locker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.drop(key, e)
		return err
	}

	return nil
}

func (l *Locker) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[keys[i]]
		l.mu.Unlock()

		e.sem.Release(1)
		l.drop(keys[i], e)
	}
}

func (l *Locker) drop(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func normalize(keys []string) []string {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	return slices.Compact(keys)
}
