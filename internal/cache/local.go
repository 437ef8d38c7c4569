package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"interntrack/internal/progress"
)

// LocalLocker is the single-process fallback for RedisLocker.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		ch, held := l.locks[key]
		if !held {
			ch = make(chan struct{})
			l.locks[key] = ch
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.locks, key)
				l.mu.Unlock()
				close(ch)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type localSnapshot struct {
	snap    progress.Snapshot
	expires time.Time
}

// LocalProgressCache keeps snapshots in process memory with the same
// generation rule as ProgressCache. It only suits a single process.
type LocalProgressCache struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]localSnapshot
	gens  map[uuid.UUID]int64
	ttl   time.Duration
	now   func() time.Time
}

var _ progress.Cache = (*LocalProgressCache)(nil)

func NewLocalProgressCache() *LocalProgressCache {
	return &LocalProgressCache{
		snaps: make(map[uuid.UUID]localSnapshot),
		gens:  make(map[uuid.UUID]int64),
		ttl:   progressTTL,
		now:   time.Now,
	}
}

func (c *LocalProgressCache) Get(_ context.Context, userID uuid.UUID) (progress.Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.snaps[userID]
	if !ok || !c.now().Before(e.expires) {
		delete(c.snaps, userID)
		return progress.Snapshot{}, false, nil
	}
	return e.snap, true, nil
}

func (c *LocalProgressCache) Generation(_ context.Context, userID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID], nil
}

func (c *LocalProgressCache) Set(_ context.Context, userID uuid.UUID, gen int64, snap progress.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		return nil
	}
	c.snaps[userID] = localSnapshot{snap: snap, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *LocalProgressCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	delete(c.snaps, userID)
	return nil
}

type hitWindow struct {
	count   int64
	resetAt time.Time
}

// LocalCounter is the single-process fallback for RedisCounter.
type LocalCounter struct {
	mu        sync.Mutex
	windows   map[string]hitWindow
	lastPrune time.Time
	now       func() time.Time
}

func NewLocalCounter() *LocalCounter {
	return &LocalCounter{windows: make(map[string]hitWindow), now: time.Now}
}

func (c *LocalCounter) Hit(_ context.Context, key string, d time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if now.Sub(c.lastPrune) >= d {
			c.prune(now)
		}
		w = hitWindow{resetAt: now.Add(d)}
	}
	w.count++
	c.windows[key] = w
	return w.count, nil
}

// prune drops finished windows. Callers hold mu.
func (c *LocalCounter) prune(now time.Time) {
	c.lastPrune = now
	for k, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, k)
		}
	}
}
