// Package memory is an in-process implementation of store.Store. It keeps the
// same conditional-write semantics as the Postgres store by performing every
// check-and-set under one lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"interntrack/internal/models"
	"interntrack/internal/store"
)

type entryKey struct {
	userID uuid.UUID
	date   string
}

type Store struct {
	mu      sync.RWMutex
	entries map[entryKey]models.JournalEntry
	events  map[uuid.UUID]models.Event
	reports []models.CompiledReport
	users   map[uuid.UUID]models.User
	aiLogs  []models.AILog
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		entries: make(map[entryKey]models.JournalEntry),
		events:  make(map[uuid.UUID]models.Event),
		users:   make(map[uuid.UUID]models.User),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) GetEntry(_ context.Context, userID uuid.UUID, date models.Date) (models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryKey{userID, date.String()}]
	if !ok {
		return models.JournalEntry{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) GetEntryByID(_ context.Context, userID, id uuid.UUID) (models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, e := range s.entries {
		if k.userID == userID && e.ID == id {
			return e, nil
		}
	}
	return models.JournalEntry{}, store.ErrNotFound
}

func (s *Store) ListEntries(_ context.Context, userID uuid.UUID, f store.EntryFilter) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JournalEntry, 0)
	for k, e := range s.entries {
		if k.userID != userID {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpsertDraft(_ context.Context, userID uuid.UUID, date models.Date, p store.DraftPatch, now time.Time) (models.JournalEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entryKey{userID, date.String()}
	e, ok := s.entries[key]
	if ok && e.IsFinished() {
		return models.JournalEntry{}, false, store.ErrEntryFinished
	}
	if !ok {
		e = models.JournalEntry{
			ID:        uuid.New(),
			UserID:    userID,
			Date:      date,
			Hours:     decimal.Zero,
			Status:    models.StatusDraft,
			CreatedAt: now,
		}
	}
	if p.Hours != nil {
		e.Hours = *p.Hours
	}
	if p.Content != nil {
		e.ContentRaw = *p.Content
	}
	e.UpdatedAt = now
	s.entries[key] = e
	return e, !ok, nil
}

func (s *Store) FinishEntry(_ context.Context, userID, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if k.userID != userID || e.ID != id {
			continue
		}
		if e.IsFinished() || !e.Hours.IsPositive() {
			return false, nil
		}
		e.Status = models.StatusFinished
		finishedAt := now
		e.FinishedAt = &finishedAt
		e.UpdatedAt = now
		s.entries[k] = e
		return true, nil
	}
	return false, nil
}

func (s *Store) UpdateAI(_ context.Context, userID, id uuid.UUID, p store.AIPatch, now time.Time) (models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if k.userID != userID || e.ID != id {
			continue
		}
		if e.IsFinished() {
			return models.JournalEntry{}, store.ErrEntryFinished
		}
		if p.ContentAIRefined != nil {
			e.ContentAIRefined = p.ContentAIRefined
		}
		if p.ArasAction != nil {
			e.ArasAction = p.ArasAction
		}
		if p.ArasReflection != nil {
			e.ArasReflection = p.ArasReflection
		}
		if p.ArasAnalysis != nil {
			e.ArasAnalysis = p.ArasAnalysis
		}
		if p.ArasSummary != nil {
			e.ArasSummary = p.ArasSummary
		}
		e.UpdatedAt = now
		s.entries[k] = e
		return e, nil
	}
	return models.JournalEntry{}, store.ErrNotFound
}

func (s *Store) CreateEvent(_ context.Context, e models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) GetEvent(_ context.Context, userID, id uuid.UUID) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return models.Event{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateEvent(_ context.Context, e models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[e.ID]
	if !ok || cur.UserID != e.UserID {
		return models.Event{}, store.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEvent(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok || e.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) ListEvents(_ context.Context, userID uuid.UUID, f store.EventFilter) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, 0)
	for _, e := range s.events {
		if e.UserID != userID {
			continue
		}
		if !f.Date.IsZero() && !e.Date.Equal(f.Date) {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		switch {
		case a.StartTime == nil:
			return false
		case b.StartTime == nil:
			return true
		default:
			return *a.StartTime < *b.StartTime
		}
	})
	return out, nil
}

func (s *Store) CreateReport(_ context.Context, r models.CompiledReport) (models.CompiledReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.reports = append(s.reports, r)
	return r, nil
}

func (s *Store) LatestReport(_ context.Context, userID uuid.UUID) (models.CompiledReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.CompiledReport
	for i := range s.reports {
		r := &s.reports[i]
		if r.UserID != userID {
			continue
		}
		// Later appends win ties so reports created within the same clock tick
		// still resolve to the newest one.
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return models.CompiledReport{}, store.ErrNotFound
	}
	return *latest, nil
}

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, store.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, id uuid.UUID, fullName, company *string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	if fullName != nil {
		u.FullName = fullName
	}
	if company != nil {
		u.InternshipCompany = company
	}
	s.users[id] = u
	return u, nil
}

func (s *Store) InsertAILog(_ context.Context, l models.AILog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.aiLogs = append(s.aiLogs, l)
	return nil
}

// AILogs returns a copy of the recorded AI calls for a user.
func (s *Store) AILogs(userID uuid.UUID) []models.AILog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AILog
	for _, l := range s.aiLogs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}
