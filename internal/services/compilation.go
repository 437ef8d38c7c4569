package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interntrack/internal/models"
	"interntrack/internal/progress"
	"interntrack/internal/store"
)

const (
	reportTitle   = "Internship Journal Compilation"
	RenderTimeout = 30 * time.Second
	notAvailable  = "N/A"
)

// Renderer turns a report envelope into a document.
type Renderer interface {
	Render(ctx context.Context, env models.ReportEnvelope) ([]byte, error)
}

// Locker serializes compilations per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type CompilationStore interface {
	store.Entries
	store.Reports
	store.Users
}

type CompilationService struct {
	store    CompilationStore
	progress *progress.Service
	renderer Renderer
	locker   Locker
	log      *zap.Logger
	now      func() time.Time
}

func NewCompilationService(st CompilationStore, prog *progress.Service, r Renderer, l Locker, log *zap.Logger) *CompilationService {
	return &CompilationService{store: st, progress: prog, renderer: r, locker: l, log: log, now: time.Now}
}

type CompilationStatus struct {
	Eligible       bool            `json:"eligible"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	RemainingHours decimal.Decimal `json:"remaining_hours"`
	IsCompleted    bool            `json:"is_completed"`
	HasReport      bool            `json:"has_report"`
	ReportID       *uuid.UUID      `json:"report_id"`
}

// Status reports whether the user may compile and whether a report exists.
func (s *CompilationService) Status(ctx context.Context, userID uuid.UUID) (CompilationStatus, error) {
	snap, err := s.progress.Snapshot(ctx, userID)
	if err != nil {
		return CompilationStatus{}, wrapError(KindInternal, "failed to check compilation status", err)
	}
	st := CompilationStatus{
		Eligible:       snap.IsCompleted,
		TotalHours:     snap.TotalHours,
		RemainingHours: snap.RemainingHours,
		IsCompleted:    snap.IsCompleted,
	}
	report, err := s.store.LatestReport(ctx, userID)
	switch {
	case err == nil:
		st.HasReport = true
		st.ReportID = &report.ID
	case !errors.Is(err, store.ErrNotFound):
		return CompilationStatus{}, wrapError(KindInternal, "failed to check compilation status", err)
	}
	return st, nil
}

// Compile snapshots every finished entry into a new persisted report.
func (s *CompilationService) Compile(ctx context.Context, userID uuid.UUID) (models.CompiledReport, error) {
	unlock, err := s.locker.Lock(ctx, "compile:"+userID.String())
	if err != nil {
		return models.CompiledReport{}, wrapError(KindInternal, "compilation already in progress", err)
	}
	defer unlock()

	snap, err := s.progress.Fresh(ctx, userID)
	if err != nil {
		return models.CompiledReport{}, wrapError(KindInternal, "compilation failed", err)
	}
	if !snap.IsCompleted {
		return models.CompiledReport{}, newError(KindForbidden,
			fmt.Sprintf("Cannot compile yet. %s hours remaining.", snap.RemainingHours.String()))
	}

	entries, err := s.store.ListEntries(ctx, userID, store.EntryFilter{Status: models.StatusFinished})
	if err != nil {
		return models.CompiledReport{}, wrapError(KindInternal, "compilation failed", err)
	}
	if len(entries) == 0 {
		return models.CompiledReport{}, newError(KindNoContent, "No finished journal entries found")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.CompiledReport{}, wrapError(KindInternal, "compilation failed", err)
	}

	totals := progress.Aggregate(entries)
	env := models.ReportEnvelope{
		UserName:       orNotAvailable(user.FullName),
		Company:        orNotAvailable(user.InternshipCompany),
		DateRangeStart: entries[0].Date,
		DateRangeEnd:   entries[len(entries)-1].Date,
		TotalHours:     totals.TotalHours,
		TotalDays:      len(entries),
		Entries:        entries,
	}
	report, err := s.store.CreateReport(ctx, models.CompiledReport{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          reportTitle,
		DateRangeStart: env.DateRangeStart,
		DateRangeEnd:   env.DateRangeEnd,
		TotalHours:     env.TotalHours,
		TotalDays:      env.TotalDays,
		ReportData:     env,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return models.CompiledReport{}, wrapError(KindInternal, "compilation failed", err)
	}
	s.log.Info("report compiled",
		zap.String("user_id", userID.String()),
		zap.String("report_id", report.ID.String()),
		zap.Int("total_days", report.TotalDays))
	return report, nil
}

type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Download renders the most recent report.
func (s *CompilationService) Download(ctx context.Context, userID uuid.UUID) (Document, error) {
	report, err := s.store.LatestReport(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Document{}, newError(KindNotFound, "No compiled report found. Compile first.")
	}
	if err != nil {
		return Document{}, wrapError(KindInternal, "failed to generate PDF", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RenderTimeout)
	defer cancel()
	body, err := s.renderer.Render(ctx, report.ReportData)
	if err != nil {
		s.log.Error("pdf render failed", zap.String("report_id", report.ID.String()), zap.Error(err))
		return Document{}, upstream("PDF generation", err)
	}
	return Document{
		Body:        body,
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("Internship_Journal_%s_to_%s.pdf", report.DateRangeStart, report.DateRangeEnd),
	}, nil
}

func orNotAvailable(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}
