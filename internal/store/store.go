// Package store declares the persistence primitives the services are built
// on. Every mutation of a journal entry that must respect the finished lock is
// expressed as a single conditional write; callers never read-then-write to
// enforce it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"interntrack/internal/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrEntryFinished = errors.New("store: entry is finished")
	ErrDuplicate     = errors.New("store: duplicate")
)

// EntryFilter narrows ListEntries. Zero values mean "no bound".
type EntryFilter struct {
	From   models.Date
	To     models.Date
	Status models.EntryStatus
	Limit  int
}

// DraftPatch carries the fields a draft save may set. Nil fields are left
// untouched on update and defaulted (0 hours, empty content) on insert.
type DraftPatch struct {
	Hours   *decimal.Decimal
	Content *string
}

// AIPatch carries AI-derived fields. Nil fields are left untouched.
type AIPatch struct {
	ContentAIRefined *string
	ArasAction       *string
	ArasReflection   *string
	ArasAnalysis     *string
	ArasSummary      *string
}

type Entries interface {
	GetEntry(ctx context.Context, userID uuid.UUID, date models.Date) (models.JournalEntry, error)
	GetEntryByID(ctx context.Context, userID, id uuid.UUID) (models.JournalEntry, error)
	// ListEntries returns entries ordered by date ascending.
	ListEntries(ctx context.Context, userID uuid.UUID, f EntryFilter) ([]models.JournalEntry, error)
	// UpsertDraft creates the draft for date or patches it. It returns
	// ErrEntryFinished, without writing, when the existing row is finished.
	UpsertDraft(ctx context.Context, userID uuid.UUID, date models.Date, p DraftPatch, now time.Time) (models.JournalEntry, bool, error)
	// FinishEntry sets status=finished where id matches, status is not
	// finished and hours > 0. It reports whether a row changed.
	FinishEntry(ctx context.Context, userID, id uuid.UUID, now time.Time) (bool, error)
	// UpdateAI patches AI fields on a draft; ErrEntryFinished otherwise.
	UpdateAI(ctx context.Context, userID, id uuid.UUID, p AIPatch, now time.Time) (models.JournalEntry, error)
}

// EventFilter selects events either for a single date or for a date range.
type EventFilter struct {
	Date models.Date
	From models.Date
	To   models.Date
}

type Events interface {
	CreateEvent(ctx context.Context, e models.Event) (models.Event, error)
	GetEvent(ctx context.Context, userID, id uuid.UUID) (models.Event, error)
	UpdateEvent(ctx context.Context, e models.Event) (models.Event, error)
	DeleteEvent(ctx context.Context, userID, id uuid.UUID) error
	// ListEvents orders by date, then start time with untimed events last.
	ListEvents(ctx context.Context, userID uuid.UUID, f EventFilter) ([]models.Event, error)
}

type Reports interface {
	CreateReport(ctx context.Context, r models.CompiledReport) (models.CompiledReport, error)
	// LatestReport returns the most recently created report.
	LatestReport(ctx context.Context, userID uuid.UUID) (models.CompiledReport, error)
}

type Users interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, company *string) (models.User, error)
}

type AILogs interface {
	InsertAILog(ctx context.Context, l models.AILog) error
}

// Store is the full persistence surface.
type Store interface {
	Entries
	Events
	Reports
	Users
	AILogs
	Ping(ctx context.Context) error
}
