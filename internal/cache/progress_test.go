package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"interntrack/internal/models"
	"interntrack/internal/progress"
	"interntrack/internal/store"
	"interntrack/internal/store/memory"
)

// pausingStore holds ListEntries open after the read has been taken, so a
// test can run writes between a fill's read and its cache write.
type pausingStore struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
}

func (s *pausingStore) ListEntries(ctx context.Context, userID uuid.UUID, f store.EntryFilter) ([]models.JournalEntry, error) {
	entries, err := s.Store.ListEntries(ctx, userID, f)
	if s.read != nil {
		s.read <- struct{}{}
		<-s.release
	}
	return entries, err
}

func TestFillDoesNotOverwriteNewerInvalidation(t *testing.T) {
	ctx := context.Background()
	st := &pausingStore{Store: memory.New(), read: make(chan struct{}), release: make(chan struct{})}
	svc := progress.NewService(st, NewLocalProgressCache(), zap.NewNop())
	userID := uuid.New()
	now := time.Now()

	eight := decimal.NewFromInt(8)
	entry, _, err := st.UpsertDraft(ctx, userID, models.NewDate(2026, 3, 2), store.DraftPatch{Hours: &eight}, now)
	if err != nil {
		t.Fatalf("UpsertDraft failed: %v", err)
	}

	done := make(chan progress.Snapshot)
	go func() {
		snap, err := svc.Snapshot(ctx, userID)
		if err != nil {
			t.Errorf("Snapshot failed: %v", err)
		}
		done <- snap
	}()

	<-st.read
	if _, err := st.FinishEntry(ctx, userID, entry.ID, now); err != nil {
		t.Fatalf("FinishEntry failed: %v", err)
	}
	if err := svc.Invalidate(ctx, userID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	close(st.release)

	if stale := <-done; !stale.TotalHours.IsZero() {
		t.Fatalf("Expected the racing fill to see the draft only, got %s", stale.TotalHours)
	}

	st.read = nil
	snap, err := svc.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.TotalHours.Equal(eight) || snap.DaysCompleted != 1 {
		t.Errorf("Expected 8 hours over 1 day after invalidation, got %s over %d", snap.TotalHours, snap.DaysCompleted)
	}
}

func TestLocalProgressCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewLocalProgressCache()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	userID := uuid.New()

	gen, _ := c.Generation(ctx, userID)
	c.Set(ctx, userID, gen, progress.Snapshot{DaysCompleted: 3})
	if snap, ok, _ := c.Get(ctx, userID); !ok || snap.DaysCompleted != 3 {
		t.Fatalf("Expected cached snapshot, got %+v (ok=%v)", snap, ok)
	}

	now = now.Add(progressTTL)
	if _, ok, _ := c.Get(ctx, userID); ok {
		t.Errorf("Expected snapshot to expire after %s", progressTTL)
	}
}

func TestLocalProgressCacheRejectsOldGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewLocalProgressCache()
	userID := uuid.New()

	gen, _ := c.Generation(ctx, userID)
	c.Invalidate(ctx, userID)
	c.Set(ctx, userID, gen, progress.Snapshot{DaysCompleted: 1})
	if _, ok, _ := c.Get(ctx, userID); ok {
		t.Errorf("Expected a fill from generation %d to be dropped", gen)
	}
}

func TestLockReleaseFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &RedisLocker{ttl: 2 * time.Minute, log: zap.New(core)}

	unlock := l.releaser("compile:u1", func(context.Context) error { return errors.New("connection reset") })
	unlock()

	entries := logs.FilterMessageSnippet("lock release failed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one release failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["key"]; got != "compile:u1" {
		t.Errorf("Expected key compile:u1, got %v", got)
	}
}
