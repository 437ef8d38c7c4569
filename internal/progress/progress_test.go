package progress

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interntrack/internal/models"
	"interntrack/internal/store"
	"interntrack/internal/store/memory"
)

func entry(date string, hours string, status models.EntryStatus) models.JournalEntry {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.JournalEntry{Date: d, Hours: decimal.RequireFromString(hours), Status: status}
}

func TestAggregateStreaks(t *testing.T) {
	entries := []models.JournalEntry{
		entry("2026-03-02", "8", models.StatusFinished),
		entry("2026-03-03", "8", models.StatusFinished),
		entry("2026-03-04", "8", models.StatusFinished),
		entry("2026-03-06", "4.5", models.StatusFinished),
	}
	snap := Aggregate(entries)
	if snap.CurrentStreak != 1 {
		t.Errorf("Expected current streak 1, got %d", snap.CurrentStreak)
	}
	if snap.LongestStreak != 3 {
		t.Errorf("Expected longest streak 3, got %d", snap.LongestStreak)
	}
	if !snap.TotalHours.Equal(decimal.RequireFromString("28.5")) {
		t.Errorf("Expected total 28.5, got %s", snap.TotalHours)
	}
	if snap.DaysCompleted != 4 {
		t.Errorf("Expected 4 days completed, got %d", snap.DaysCompleted)
	}
}

func TestAggregateIgnoresDrafts(t *testing.T) {
	entries := []models.JournalEntry{
		entry("2026-03-02", "8", models.StatusFinished),
		entry("2026-03-03", "24", models.StatusDraft),
		entry("2026-03-04", "8", models.StatusFinished),
	}
	snap := Aggregate(entries)
	if !snap.TotalHours.Equal(decimal.NewFromInt(16)) {
		t.Errorf("Expected total 16, got %s", snap.TotalHours)
	}
	// 03-03 is only a draft, so 03-02 and 03-04 are not consecutive finished days.
	if snap.LongestStreak != 1 || snap.CurrentStreak != 1 {
		t.Errorf("Expected streaks 1/1, got %d/%d", snap.CurrentStreak, snap.LongestStreak)
	}
}

func TestAggregateCurrentStreakEndsAtLatestEntry(t *testing.T) {
	entries := []models.JournalEntry{
		entry("2026-02-27", "8", models.StatusFinished),
		entry("2026-02-28", "8", models.StatusFinished),
		entry("2026-03-01", "8", models.StatusFinished),
		entry("2026-03-05", "8", models.StatusFinished),
		entry("2026-03-06", "8", models.StatusFinished),
	}
	snap := Aggregate(entries)
	if snap.CurrentStreak != 2 {
		t.Errorf("Expected current streak 2, got %d", snap.CurrentStreak)
	}
	if snap.LongestStreak != 3 {
		t.Errorf("Expected longest streak 3 across the month boundary, got %d", snap.LongestStreak)
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	base := []models.JournalEntry{
		entry("2026-03-01", "7.5", models.StatusFinished),
		entry("2026-03-02", "8", models.StatusFinished),
		entry("2026-03-03", "2", models.StatusDraft),
		entry("2026-03-04", "8.25", models.StatusFinished),
		entry("2026-03-05", "6", models.StatusFinished),
		entry("2026-03-06", "6", models.StatusFinished),
		entry("2026-03-10", "1", models.StatusFinished),
	}
	want := Aggregate(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.JournalEntry(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(shuffled)
		if !got.TotalHours.Equal(want.TotalHours) || got.CurrentStreak != want.CurrentStreak || got.LongestStreak != want.LongestStreak {
			t.Fatalf("Shuffle %d: expected %+v, got %+v", i, want, got)
		}
	}
	if want.LongestStreak != 3 || want.CurrentStreak != 1 {
		t.Errorf("Expected streaks 1/3, got %d/%d", want.CurrentStreak, want.LongestStreak)
	}
}

func TestPercentageAndRemaining(t *testing.T) {
	cases := []struct {
		total     string
		pct       string
		remaining string
		completed bool
	}{
		{"0", "0", "486", false},
		{"333.33", "68.6", "152.67", false},
		{"485.99", "100", "0.01", false},
		{"486", "100", "0", true},
		{"500", "100", "0", true},
	}
	for _, tc := range cases {
		total := decimal.RequireFromString(tc.total)
		if got := Percentage(total); !got.Equal(decimal.RequireFromString(tc.pct)) {
			t.Errorf("Percentage(%s): expected %s, got %s", tc.total, tc.pct, got)
		}
		if got := Remaining(total); !got.Equal(decimal.RequireFromString(tc.remaining)) {
			t.Errorf("Remaining(%s): expected %s, got %s", tc.total, tc.remaining, got)
		}
		if got := IsCompleted(total); got != tc.completed {
			t.Errorf("IsCompleted(%s): expected %v, got %v", tc.total, tc.completed, got)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil)
	if !snap.TotalHours.IsZero() || snap.CurrentStreak != 0 || snap.LongestStreak != 0 || snap.IsCompleted {
		t.Errorf("Expected zero snapshot, got %+v", snap)
	}
	if !snap.RemainingHours.Equal(TargetHours) {
		t.Errorf("Expected remaining %s, got %s", TargetHours, snap.RemainingHours)
	}
}

type countingCache struct {
	snaps       map[uuid.UUID]Snapshot
	sets        int
	invalidates int
}

func (c *countingCache) Get(_ context.Context, id uuid.UUID) (Snapshot, bool, error) {
	s, ok := c.snaps[id]
	return s, ok, nil
}

func (c *countingCache) Generation(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (c *countingCache) Set(_ context.Context, id uuid.UUID, _ int64, s Snapshot) error {
	c.sets++
	c.snaps[id] = s
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.invalidates++
	delete(c.snaps, id)
	return nil
}

func TestServiceUsesCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	cache := &countingCache{snaps: map[uuid.UUID]Snapshot{}}
	svc := NewService(st, cache, zap.NewNop())
	userID := uuid.New()
	now := time.Now()

	hours := decimal.NewFromInt(8)
	e, _, err := st.UpsertDraft(ctx, userID, models.NewDate(2026, 3, 2), store.DraftPatch{Hours: &hours}, now)
	if err != nil {
		t.Fatalf("UpsertDraft failed: %v", err)
	}
	if _, err := st.FinishEntry(ctx, userID, e.ID, now); err != nil {
		t.Fatalf("FinishEntry failed: %v", err)
	}

	first, err := svc.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !first.TotalHours.Equal(hours) {
		t.Fatalf("Expected 8 hours, got %s", first.TotalHours)
	}
	if _, err := svc.Snapshot(ctx, userID); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("Expected one cache fill, got %d", cache.sets)
	}

	e2, _, _ := st.UpsertDraft(ctx, userID, models.NewDate(2026, 3, 3), store.DraftPatch{Hours: &hours}, now)
	st.FinishEntry(ctx, userID, e2.ID, now)
	if err := svc.Invalidate(ctx, userID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	second, _ := svc.Snapshot(ctx, userID)
	if !second.TotalHours.Equal(decimal.NewFromInt(16)) || second.CurrentStreak != 2 {
		t.Errorf("Expected recomputed snapshot with 16 hours and streak 2, got %+v", second)
	}
}

func TestFreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	userID := uuid.New()
	cache := &countingCache{snaps: map[uuid.UUID]Snapshot{userID: {DaysCompleted: 99}}}
	svc := NewService(st, cache, zap.NewNop())

	cached, _ := svc.Snapshot(ctx, userID)
	if cached.DaysCompleted != 99 {
		t.Fatalf("Expected cached snapshot, got %+v", cached)
	}
	fresh, err := svc.Fresh(ctx, userID)
	if err != nil {
		t.Fatalf("Fresh failed: %v", err)
	}
	if fresh.DaysCompleted != 0 {
		t.Errorf("Expected store-backed snapshot with 0 days, got %d", fresh.DaysCompleted)
	}
	if cache.sets != 0 {
		t.Errorf("Expected Fresh not to fill the cache, got %d sets", cache.sets)
	}
}
