package memory

import (
	"context"
	"errors"
	"sort"
	"time"
)

var errLockTimeout = errors.New("memory: lock acquisition timed out")

// keyedLocks provides per-key mutual exclusion with bounded acquisition.
// Keys are acquired in sorted order so two units sharing a scope can never
// deadlock on each other.
type keyedLocks struct {
	mu    chan struct{}
	locks map[string]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	l := &keyedLocks{
		mu:    make(chan struct{}, 1),
		locks: make(map[string]chan struct{}),
	}
	return l
}

func (l *keyedLocks) lockFor(key string) chan struct{} {
	l.mu <- struct{}{}
	defer func() { <-l.mu }()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// acquire takes every key or none. On success the returned func releases all
// of them; on timeout or context cancellation the already-held keys are
// released and errLockTimeout (or the context error) is returned.
func (l *keyedLocks) acquire(ctx context.Context, wait time.Duration, keys ...string) (func(), error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	held := make([]chan struct{}, 0, len(unique))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, key := range unique {
		ch := l.lockFor(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-deadline.C:
			releaseHeld()
			return nil, errLockTimeout
		case <-ctx.Done():
			releaseHeld()
			return nil, ctx.Err()
		}
	}
	return releaseHeld, nil
}
