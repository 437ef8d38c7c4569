package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "compile:u1")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("Expected at most one holder at a time, got %d", maxInside)
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	unlock, _ := l.Lock(context.Background(), "k")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); err == nil {
		t.Errorf("Expected context error while key is held")
	}
	other, err := l.Lock(context.Background(), "other")
	if err != nil {
		t.Fatalf("Expected independent key to lock, got %v", err)
	}
	other()
}

func TestLocalCounterWindow(t *testing.T) {
	c := NewLocalCounter()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Hit(ctx, "ratelimit:auth:10.0.0.1", time.Minute)
		if err != nil {
			t.Fatalf("Hit failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected count %d, got %d", want, got)
		}
	}
	if got, _ := c.Hit(ctx, "ratelimit:auth:10.0.0.2", time.Minute); got != 1 {
		t.Errorf("Expected a separate count per key, got %d", got)
	}

	now = now.Add(time.Minute)
	if got, _ := c.Hit(ctx, "ratelimit:auth:10.0.0.1", time.Minute); got != 1 {
		t.Errorf("Expected the count to restart after the window, got %d", got)
	}
	if _, ok := c.windows["ratelimit:auth:10.0.0.2"]; ok {
		t.Errorf("Expected the finished window to be pruned")
	}
}
