package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"interntrack/internal/models"
	"interntrack/internal/store"
)

func TestCreateEventDefaults(t *testing.T) {
	e := newEnv(t)
	ev, err := e.events.Create(context.Background(), e.user, EventInput{
		Date:      "2025-03-20",
		Title:     "  Standup  ",
		StartTime: text(""),
		EndTime:   text("10:00"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ev.Title != "Standup" {
		t.Errorf("Expected trimmed title, got %q", ev.Title)
	}
	if ev.Type != models.EventPersonal {
		t.Errorf("Expected default type personal, got %s", ev.Type)
	}
	if ev.StartTime != nil {
		t.Errorf("Expected empty start time to be cleared, got %q", *ev.StartTime)
	}
}

func TestCreateEventValidation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		in   EventInput
	}{
		{"missing title", EventInput{Date: "2025-03-20"}},
		{"blank title", EventInput{Date: "2025-03-20", Title: "   "}},
		{"long title", EventInput{Date: "2025-03-20", Title: strings.Repeat("t", MaxTitleLength+1)}},
		{"bad date", EventInput{Date: "20-03-2025", Title: "x"}},
		{"bad clock", EventInput{Date: "2025-03-20", Title: "x", StartTime: text("9:00")}},
		{"24h clock", EventInput{Date: "2025-03-20", Title: "x", StartTime: text("24:00")}},
		{"start after end", EventInput{Date: "2025-03-20", Title: "x", StartTime: text("11:00"), EndTime: text("10:30")}},
		{"start equals end", EventInput{Date: "2025-03-20", Title: "x", StartTime: text("10:00"), EndTime: text("10:00:00")}},
		{"bad type", EventInput{Date: "2025-03-20", Title: "x", Type: "party"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.events.Create(context.Background(), e.user, tt.in)
			expectKind(t, err, KindValidation)
		})
	}
}

func TestEventsOnFinishedDayAreFrozen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	open, err := e.events.Create(ctx, e.user, EventInput{Date: "2025-03-21", Title: "Review"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	e.finishDay(t, "2025-03-21", "8")
	e.finishDay(t, "2025-03-24", "8")

	_, err = e.events.Create(ctx, e.user, EventInput{Date: "2025-03-21", Title: "Late add"})
	expectKind(t, err, KindForbidden)

	_, err = e.events.Update(ctx, e.user, open.ID, EventPatch{Title: text("Renamed")})
	expectKind(t, err, KindForbidden)

	err = e.events.Delete(ctx, e.user, open.ID)
	expectKind(t, err, KindForbidden)

	movable, err := e.events.Create(ctx, e.user, EventInput{Date: "2025-03-22", Title: "Movable"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = e.events.Update(ctx, e.user, movable.ID, EventPatch{Date: text("2025-03-24")})
	expectKind(t, err, KindForbidden)

	events, err := e.events.List(ctx, e.user, "2025-03-21", "", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Review" {
		t.Errorf("Expected only the original event on the finished day, got %v", events)
	}
	moved, err := e.store.GetEvent(ctx, e.user, movable.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if moved.Date.String() != "2025-03-22" {
		t.Errorf("Expected event to stay on 2025-03-22, got %s", moved.Date)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev, err := e.events.Create(ctx, e.user, EventInput{Date: "2025-03-25", Title: "Sync", StartTime: text("09:00"), EndTime: text("10:00"), Type: "meeting"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = e.events.Update(ctx, e.user, ev.ID, EventPatch{StartTime: text("10:30")})
	expectKind(t, err, KindValidation)

	reminder := true
	updated, err := e.events.Update(ctx, e.user, ev.ID, EventPatch{
		Date:            text("2025-03-26"),
		EndTime:         text(""),
		ReminderEnabled: &reminder,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Date.String() != "2025-03-26" || updated.EndTime != nil || !updated.ReminderEnabled || updated.Type != models.EventMeeting {
		t.Errorf("Unexpected update result: %+v", updated)
	}

	_, err = e.events.Update(ctx, e.user, uuid.New(), EventPatch{})
	expectKind(t, err, KindNotFound)

	if err := e.events.Delete(ctx, e.user, ev.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := e.store.GetEvent(ctx, e.user, ev.ID); err != store.ErrNotFound {
		t.Errorf("Expected event to be gone, got %v", err)
	}
	expectKind(t, e.events.Delete(ctx, e.user, ev.ID), KindNotFound)
}

func TestEventsAreScopedToOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ev, err := e.events.Create(ctx, e.user, EventInput{Date: "2025-03-27", Title: "Mine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other := uuid.New()
	_, err = e.events.Update(ctx, other, ev.ID, EventPatch{Title: text("Theirs")})
	expectKind(t, err, KindNotFound)
	expectKind(t, e.events.Delete(ctx, other, ev.ID), KindNotFound)
}

func TestListEventsByMonth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	inputs := []EventInput{
		{Date: "2025-04-02", Title: "untimed"},
		{Date: "2025-04-02", Title: "late", StartTime: text("15:00")},
		{Date: "2025-04-02", Title: "early", StartTime: text("08:00")},
		{Date: "2025-04-01", Title: "first"},
		{Date: "2025-05-01", Title: "next month"},
	}
	for _, in := range inputs {
		if _, err := e.events.Create(ctx, e.user, in); err != nil {
			t.Fatalf("Create(%s) failed: %v", in.Title, err)
		}
	}

	got, err := e.events.List(ctx, e.user, "", "2025", "04")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var titles []string
	for _, ev := range got {
		titles = append(titles, ev.Title)
	}
	want := "first,early,late,untimed"
	if strings.Join(titles, ",") != want {
		t.Errorf("Expected order %s, got %s", want, strings.Join(titles, ","))
	}

	_, err = e.events.List(ctx, e.user, "not-a-date", "", "")
	expectKind(t, err, KindValidation)
}
