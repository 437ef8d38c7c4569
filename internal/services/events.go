package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"interntrack/internal/models"
	"interntrack/internal/store"
)

// DayChecker answers whether a day is finished. JournalService implements it.
type DayChecker interface {
	IsFinished(ctx context.Context, userID uuid.UUID, date models.Date) (bool, error)
}

// EventService manages calendar events. Events on a finished day are frozen
// along with the day's journal entry.
type EventService struct {
	store store.Events
	days  DayChecker
	now   func() time.Time
}

func NewEventService(st store.Events, days DayChecker) *EventService {
	return &EventService{store: st, days: days, now: time.Now}
}

type EventInput struct {
	Date            string  `json:"date" validate:"required,date"`
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	StartTime       *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime         *string `json:"end_time" validate:"omitempty,hhmm"`
	Type            string  `json:"type" validate:"omitempty,oneof=meeting deadline reminder personal"`
	ReminderEnabled bool    `json:"reminder_enabled"`
}

// EventPatch carries only the fields a client sent. An empty StartTime or
// EndTime clears it.
type EventPatch struct {
	Date            *string `json:"date" validate:"omitempty,date"`
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	StartTime       *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime         *string `json:"end_time" validate:"omitempty,hhmm"`
	Type            *string `json:"type" validate:"omitempty,oneof=meeting deadline reminder personal"`
	ReminderEnabled *bool   `json:"reminder_enabled"`
}

func (s *EventService) Create(ctx context.Context, userID uuid.UUID, in EventInput) (models.Event, error) {
	if err := validateStruct(in); err != nil {
		return models.Event{}, err
	}
	date, _ := models.ParseDate(in.Date)
	now := s.now()
	e := models.Event{
		ID:              uuid.New(),
		UserID:          userID,
		Date:            date,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		StartTime:       optionalClock(in.StartTime),
		EndTime:         optionalClock(in.EndTime),
		Type:            models.EventType(in.Type),
		ReminderEnabled: in.ReminderEnabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if e.Type == "" {
		e.Type = models.EventPersonal
	}
	if err := checkEvent(e); err != nil {
		return models.Event{}, err
	}
	if err := s.ensureOpen(ctx, userID, date); err != nil {
		return models.Event{}, err
	}
	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return models.Event{}, wrapError(KindInternal, "failed to create event", err)
	}
	return created, nil
}

func (s *EventService) Update(ctx context.Context, userID, id uuid.UUID, p EventPatch) (models.Event, error) {
	if err := validateStruct(p); err != nil {
		return models.Event{}, err
	}
	e, err := s.get(ctx, userID, id)
	if err != nil {
		return models.Event{}, err
	}
	// The event may neither leave nor enter a finished day.
	if err := s.ensureOpen(ctx, userID, e.Date); err != nil {
		return models.Event{}, err
	}
	if p.Date != nil && *p.Date != "" {
		target, _ := models.ParseDate(*p.Date)
		if !target.Equal(e.Date) {
			if err := s.ensureOpen(ctx, userID, target); err != nil {
				return models.Event{}, err
			}
		}
		e.Date = target
	}
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.StartTime != nil {
		e.StartTime = optionalClock(p.StartTime)
	}
	if p.EndTime != nil {
		e.EndTime = optionalClock(p.EndTime)
	}
	if p.Type != nil {
		e.Type = models.EventType(*p.Type)
	}
	if p.ReminderEnabled != nil {
		e.ReminderEnabled = *p.ReminderEnabled
	}
	if err := checkEvent(e); err != nil {
		return models.Event{}, err
	}
	e.UpdatedAt = s.now()

	updated, err := s.store.UpdateEvent(ctx, e)
	if errors.Is(err, store.ErrNotFound) {
		return models.Event{}, newError(KindNotFound, "Event not found")
	}
	if err != nil {
		return models.Event{}, wrapError(KindInternal, "failed to update event", err)
	}
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	e, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, userID, e.Date); err != nil {
		return err
	}
	err = s.store.DeleteEvent(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "Event not found")
	}
	if err != nil {
		return wrapError(KindInternal, "failed to delete event", err)
	}
	return nil
}

// List returns events for a single date, or for a month when year and month
// are set, or all of the user's events.
func (s *EventService) List(ctx context.Context, userID uuid.UUID, date, year, month string) ([]models.Event, error) {
	var f store.EventFilter
	switch {
	case date != "":
		d, err := models.ParseDate(date)
		if err != nil {
			return nil, newError(KindValidation, "invalid date format; use YYYY-MM-DD")
		}
		f.Date = d
	case year != "" && month != "":
		from, to, err := monthBounds(year, month)
		if err != nil {
			return nil, err
		}
		f.From, f.To = from, to
	}
	events, err := s.store.ListEvents(ctx, userID, f)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to fetch events", err)
	}
	return events, nil
}

func (s *EventService) get(ctx context.Context, userID, id uuid.UUID) (models.Event, error) {
	e, err := s.store.GetEvent(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Event{}, newError(KindNotFound, "Event not found")
	}
	if err != nil {
		return models.Event{}, wrapError(KindInternal, "failed to load event", err)
	}
	return e, nil
}

func (s *EventService) ensureOpen(ctx context.Context, userID uuid.UUID, date models.Date) error {
	finished, err := s.days.IsFinished(ctx, userID, date)
	if err != nil {
		return wrapError(KindInternal, "failed to check day status", err)
	}
	if finished {
		return newError(KindForbidden, "cannot modify events on a finished day")
	}
	return nil
}

// checkEvent enforces the rules that span fields or apply after trimming.
func checkEvent(e models.Event) error {
	if e.Title == "" {
		return newError(KindValidation, "title is required")
	}
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return newError(KindValidation, "title must be at most 200 characters")
	}
	if e.StartTime != nil && e.EndTime != nil && clockSeconds(*e.StartTime) >= clockSeconds(*e.EndTime) {
		return newError(KindValidation, "start_time must be before end_time")
	}
	return nil
}

func optionalClock(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
