// Package lock serializes work per key, in process or across instances
// through Redis.
package lock

import (
	"context"
	"slices"
	"sync"
)

// Locker acquires a set of keys. Keys are taken in sorted order so callers
// locking overlapping sets cannot deadlock.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// sortedKeys returns the distinct keys in ascending order.
func sortedKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// lockAll acquires keys one by one and releases the ones already held when
// an acquisition fails.
func lockAll(ctx context.Context, keys []string, acquire func(context.Context, string) (func(), error)) (func(), error) {
	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, k := range sortedKeys(keys) {
		rel, err := acquire(ctx, k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, rel)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

// Local is an in-process keyed mutex.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]chan struct{})}
}

func (l *Local) Lock(ctx context.Context, keys ...string) (func(), error) {
	return lockAll(ctx, keys, l.acquire)
}

func (l *Local) acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
