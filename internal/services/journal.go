package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interntrack/internal/models"
	"interntrack/internal/progress"
	"interntrack/internal/store"
)

var (
	minLogHours = decimal.RequireFromString("0.5")
	maxDayHours = decimal.NewFromInt(24)
)

const errHoursPrecision = "hours can have at most 2 decimal places"

// hasHoursPrecision matches the NUMERIC(4,2) hours column. Trailing zeros
// such as 7.500 are fine.
func hasHoursPrecision(h decimal.Decimal) bool {
	return h.Equal(h.Round(2))
}

// JournalStore is the slice of the store the lifecycle controller needs.
type JournalStore interface {
	store.Entries
	store.AILogs
}

// JournalService owns the day lifecycle: no entry -> draft -> finished.
// Finished is terminal; every write path re-checks it inside the store's
// conditional statement, not only in the pre-check here.
type JournalService struct {
	store    JournalStore
	progress *progress.Service
	ai       AIClient
	log      *zap.Logger
	now      func() time.Time
}

func NewJournalService(st JournalStore, prog *progress.Service, ai AIClient, log *zap.Logger) *JournalService {
	return &JournalService{store: st, progress: prog, ai: ai, log: log, now: time.Now}
}

type SaveDraftInput struct {
	Date    string           `json:"date" validate:"required,date"`
	Hours   *decimal.Decimal `json:"hours"`
	Content *string          `json:"content_raw" validate:"omitempty,max=50000"`
}

// SaveDraft creates or patches the draft for a date. The bool result reports
// whether the entry was created.
func (s *JournalService) SaveDraft(ctx context.Context, userID uuid.UUID, in SaveDraftInput) (models.JournalEntry, bool, error) {
	if err := validateStruct(in); err != nil {
		return models.JournalEntry{}, false, err
	}
	if in.Hours != nil && (in.Hours.IsNegative() || in.Hours.GreaterThan(maxDayHours)) {
		return models.JournalEntry{}, false, newError(KindValidation, "hours must be between 0 and 24")
	}
	if in.Hours != nil && !hasHoursPrecision(*in.Hours) {
		return models.JournalEntry{}, false, newError(KindValidation, errHoursPrecision)
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.JournalEntry{}, false, wrapError(KindValidation, "invalid date", err)
	}
	return s.write(ctx, userID, date, store.DraftPatch{Hours: in.Hours, Content: in.Content})
}

type LogHoursInput struct {
	Date  string           `json:"date" validate:"required,date"`
	Hours *decimal.Decimal `json:"hours" validate:"required"`
}

// LogHours sets only the hours of a day, leaving its content as is.
func (s *JournalService) LogHours(ctx context.Context, userID uuid.UUID, in LogHoursInput) (models.JournalEntry, bool, error) {
	if err := validateStruct(in); err != nil {
		return models.JournalEntry{}, false, err
	}
	if in.Hours.LessThan(minLogHours) || in.Hours.GreaterThan(maxDayHours) {
		return models.JournalEntry{}, false, newError(KindValidation, "hours must be between 0.5 and 24")
	}
	if !hasHoursPrecision(*in.Hours) {
		return models.JournalEntry{}, false, newError(KindValidation, errHoursPrecision)
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.JournalEntry{}, false, wrapError(KindValidation, "invalid date", err)
	}
	return s.write(ctx, userID, date, store.DraftPatch{Hours: in.Hours})
}

func (s *JournalService) write(ctx context.Context, userID uuid.UUID, date models.Date, patch store.DraftPatch) (models.JournalEntry, bool, error) {
	existing, err := s.store.GetEntry(ctx, userID, date)
	switch {
	case err == nil && existing.IsFinished():
		return models.JournalEntry{}, false, newError(KindConflict, "cannot edit a finished journal entry")
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return models.JournalEntry{}, false, wrapError(KindInternal, "could not load journal entry", err)
	}

	snap, err := s.progress.Fresh(ctx, userID)
	if err != nil {
		return models.JournalEntry{}, false, wrapError(KindInternal, "could not load progress", err)
	}
	if snap.IsCompleted {
		return models.JournalEntry{}, false, newError(KindForbidden, "internship hours completed; no new entries allowed")
	}

	entry, created, err := s.store.UpsertDraft(ctx, userID, date, patch, s.now())
	if errors.Is(err, store.ErrEntryFinished) {
		// Lost a race against finish-day.
		return models.JournalEntry{}, false, newError(KindConflict, "cannot edit a finished journal entry")
	}
	if err != nil {
		return models.JournalEntry{}, false, wrapError(KindInternal, "could not save journal entry", err)
	}
	s.invalidate(ctx, userID)
	return entry, created, nil
}

type FinishDayInput struct {
	Date string `json:"date" validate:"required,date"`
}

// FinishDay moves a draft with logged hours to finished exactly once.
// Concurrent callers race on a single conditional update; losers observe
// KindAlreadyFinished.
func (s *JournalService) FinishDay(ctx context.Context, userID uuid.UUID, in FinishDayInput) (models.JournalEntry, error) {
	if err := validateStruct(in); err != nil {
		return models.JournalEntry{}, err
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.JournalEntry{}, wrapError(KindValidation, "invalid date", err)
	}

	entry, err := s.store.GetEntry(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return models.JournalEntry{}, newError(KindNotFound, "no journal entry found for this date")
	}
	if err != nil {
		return models.JournalEntry{}, wrapError(KindInternal, "could not load journal entry", err)
	}
	if entry.IsFinished() {
		return models.JournalEntry{}, newError(KindAlreadyFinished, "day already finished")
	}
	if !entry.Hours.IsPositive() {
		return models.JournalEntry{}, newError(KindInvalidState, "cannot finish day without logging hours")
	}

	changed, err := s.store.FinishEntry(ctx, userID, entry.ID, s.now())
	if err != nil {
		return models.JournalEntry{}, wrapError(KindInternal, "could not finish day", err)
	}
	current, err := s.store.GetEntry(ctx, userID, date)
	if err != nil {
		return models.JournalEntry{}, wrapError(KindInternal, "could not load journal entry", err)
	}
	if !changed {
		if current.IsFinished() {
			return models.JournalEntry{}, newError(KindAlreadyFinished, "day already finished")
		}
		// Hours were cleared between the check and the update.
		return models.JournalEntry{}, newError(KindInvalidState, "cannot finish day without logging hours")
	}
	s.invalidate(ctx, userID)
	return current, nil
}

// IsFinished reports whether the entry for date exists and is finished. It
// always reads through to the store.
func (s *JournalService) IsFinished(ctx context.Context, userID uuid.UUID, date models.Date) (bool, error) {
	entry, err := s.store.GetEntry(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.IsFinished(), nil
}

// Get returns the entry for a date, or nil when none exists.
func (s *JournalService) Get(ctx context.Context, userID uuid.UUID, rawDate string) (*models.JournalEntry, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, newError(KindValidation, "invalid date format; use YYYY-MM-DD")
	}
	entry, err := s.store.GetEntry(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(KindInternal, "could not fetch journal entry", err)
	}
	return &entry, nil
}

// List returns entries for one month when both year and month are given,
// otherwise the whole history, capped at MaxListEntries.
func (s *JournalService) List(ctx context.Context, userID uuid.UUID, year, month string) ([]models.JournalEntry, error) {
	filter := store.EntryFilter{Limit: MaxListEntries}
	if year != "" && month != "" {
		from, to, err := monthBounds(year, month)
		if err != nil {
			return nil, err
		}
		filter.From, filter.To = from, to
	}
	entries, err := s.store.ListEntries(ctx, userID, filter)
	if err != nil {
		return nil, wrapError(KindInternal, "could not fetch journals", err)
	}
	return entries, nil
}

func monthBounds(year, month string) (models.Date, models.Date, error) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return models.Date{}, models.Date{}, newError(KindValidation, "year must be a number")
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return models.Date{}, models.Date{}, newError(KindValidation, "month must be between 1 and 12")
	}
	from, to := models.MonthRange(y, time.Month(m))
	return from, to, nil
}

func (s *JournalService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.progress.Invalidate(ctx, userID); err != nil {
		s.log.Error("progress cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
