package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interntrack/internal/ai"
	"interntrack/internal/cache"
	"interntrack/internal/models"
	"interntrack/internal/progress"
	"interntrack/internal/store/memory"
)

type fakeAI struct {
	refined string
	aras    ai.ARAS
	err     error
	calls   int
}

func (f *fakeAI) Refine(ctx context.Context, content string) (string, int, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.refined, 42, nil
}

func (f *fakeAI) Structure(ctx context.Context, content string) (ai.ARAS, int, error) {
	f.calls++
	if f.err != nil {
		return ai.ARAS{}, 0, f.err
	}
	return f.aras, 84, nil
}

func (f *fakeAI) Model() string { return "test-model" }

type fakeRenderer struct {
	body  []byte
	delay time.Duration
}

func (r *fakeRenderer) Render(ctx context.Context, env models.ReportEnvelope) ([]byte, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.body, nil
}

// fixedCache always returns the same snapshot. It lets tests put progress
// and the store out of step.
type fixedCache struct{ snap progress.Snapshot }

func (c fixedCache) Get(context.Context, uuid.UUID) (progress.Snapshot, bool, error) {
	return c.snap, true, nil
}
func (c fixedCache) Generation(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (c fixedCache) Set(context.Context, uuid.UUID, int64, progress.Snapshot) error {
	return nil
}
func (c fixedCache) Invalidate(context.Context, uuid.UUID) error { return nil }

type env struct {
	store       *memory.Store
	ai          *fakeAI
	renderer    *fakeRenderer
	progress    *progress.Service
	journals    *JournalService
	compilation *CompilationService
	events      *EventService
	user        uuid.UUID
}

func newEnv(t *testing.T) *env {
	return newEnvWithCache(t, nil)
}

func newEnvWithCache(t *testing.T, c progress.Cache) *env {
	t.Helper()
	st := memory.New()
	e := &env{
		store:    st,
		ai:       &fakeAI{refined: "Refined text.", aras: ai.ARAS{Action: "a", Reflection: "r", Analysis: "n", Summary: "s"}},
		renderer: &fakeRenderer{body: []byte("%PDF-1.3 test")},
		user:     uuid.New(),
	}
	log := zap.NewNop()
	e.progress = progress.NewService(st, c, log)
	e.journals = NewJournalService(st, e.progress, e.ai, log)
	e.compilation = NewCompilationService(st, e.progress, e.renderer, cache.NewLocalLocker(), log)
	e.events = NewEventService(st, e.journals)
	return e
}

func hours(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func text(s string) *string { return &s }

// finishDay saves a draft with h hours on date and finishes it.
func (e *env) finishDay(t *testing.T, date, h string) models.JournalEntry {
	t.Helper()
	ctx := context.Background()
	if _, _, err := e.journals.SaveDraft(ctx, e.user, SaveDraftInput{Date: date, Hours: hours(h), Content: text("work")}); err != nil {
		t.Fatalf("SaveDraft(%s) failed: %v", date, err)
	}
	entry, err := e.journals.FinishDay(ctx, e.user, FinishDayInput{Date: date})
	if err != nil {
		t.Fatalf("FinishDay(%s) failed: %v", date, err)
	}
	return entry
}

// completeTarget finishes enough 8h days to reach 486 hours.
func (e *env) completeTarget(t *testing.T) {
	t.Helper()
	start := models.NewDate(2025, time.January, 1)
	for i := 0; i < 61; i++ {
		e.finishDay(t, start.AddDays(i).String(), "8")
	}
}

func expectKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	if svcErr.Kind != want {
		t.Fatalf("Expected kind %s, got %s (%v)", want, svcErr.Kind, err)
	}
}
