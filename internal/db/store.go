package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"interntrack/internal/crypto"
	"interntrack/internal/models"
	"interntrack/internal/store"
)

const journalColumns = `id, user_id, date, hours, content_raw, content_ai_refined, aras_action, aras_reflection,
	aras_analysis, aras_summary, status, finished_at, created_at, updated_at`

const (
	upsertDraftStatement = `
	INSERT INTO journals (id, user_id, date, hours, content_raw, status, created_at, updated_at)
	VALUES ($1, $2, $3, COALESCE($4::numeric, 0), COALESCE($5::text, ''), 'draft', $6, $6)
	ON CONFLICT (user_id, date) DO UPDATE SET
		hours = COALESCE($4::numeric, journals.hours),
		content_raw = COALESCE($5::text, journals.content_raw),
		updated_at = $6
	WHERE journals.status <> 'finished'
	RETURNING ` + journalColumns + `, (xmax = 0) AS created`

	finishEntryStatement = `
	UPDATE journals
	SET status = 'finished', finished_at = $3, updated_at = $3
	WHERE id = $1 AND user_id = $2 AND status <> 'finished' AND hours > 0`

	updateAIStatement = `
	UPDATE journals SET
		content_ai_refined = COALESCE($3, content_ai_refined),
		aras_action = COALESCE($4, aras_action),
		aras_reflection = COALESCE($5, aras_reflection),
		aras_analysis = COALESCE($6, aras_analysis),
		aras_summary = COALESCE($7, aras_summary),
		updated_at = $8
	WHERE id = $1 AND user_id = $2 AND status <> 'finished'
	RETURNING ` + journalColumns

	eventColumns = `id, user_id, date, title, description, start_time, end_time, type, reminder_enabled, created_at, updated_at`

	reportColumns = `id, user_id, title, date_range_start, date_range_end, total_hours, total_days, report_data, created_at`

	userColumns = `id, email, password_hash, full_name, internship_company, created_at`
)

// Store is the Postgres implementation of store.Store. Journal text columns
// pass through the optional cipher on the way in and out.
type Store struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sqlx.DB, cipher *crypto.Cipher) *Store {
	return &Store{db: db, cipher: cipher}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) GetEntry(ctx context.Context, userID uuid.UUID, date models.Date) (models.JournalEntry, error) {
	var e models.JournalEntry
	err := s.db.GetContext(ctx, &e, `SELECT `+journalColumns+` FROM journals WHERE user_id = $1 AND date = $2`, userID, date)
	if err != nil {
		return models.JournalEntry{}, notFound(err)
	}
	return s.decryptEntry(e)
}

func (s *Store) GetEntryByID(ctx context.Context, userID, id uuid.UUID) (models.JournalEntry, error) {
	var e models.JournalEntry
	err := s.db.GetContext(ctx, &e, `SELECT `+journalColumns+` FROM journals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return models.JournalEntry{}, notFound(err)
	}
	return s.decryptEntry(e)
}

func (s *Store) ListEntries(ctx context.Context, userID uuid.UUID, f store.EntryFilter) ([]models.JournalEntry, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + journalColumns + ` FROM journals WHERE ` + strings.Join(where, " AND ") + ` ORDER BY date ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []models.JournalEntry
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(rows))
	for _, e := range rows {
		dec, err := s.decryptEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, dec)
	}
	return out, nil
}

type upsertRow struct {
	models.JournalEntry
	Created bool `db:"created"`
}

func (s *Store) UpsertDraft(ctx context.Context, userID uuid.UUID, date models.Date, p store.DraftPatch, now time.Time) (models.JournalEntry, bool, error) {
	var hours decimal.NullDecimal
	if p.Hours != nil {
		hours = decimal.NewNullDecimal(*p.Hours)
	}
	var content sql.NullString
	if p.Content != nil {
		enc, err := s.cipher.Encrypt(*p.Content)
		if err != nil {
			return models.JournalEntry{}, false, fmt.Errorf("encrypt content: %w", err)
		}
		content = sql.NullString{String: enc, Valid: true}
	}

	var row upsertRow
	err := s.db.QueryRowxContext(ctx, upsertDraftStatement, uuid.New(), userID, date, hours, content, now).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		// The conflict branch matched a finished row and its WHERE rejected the update.
		return models.JournalEntry{}, false, store.ErrEntryFinished
	}
	if err != nil {
		return models.JournalEntry{}, false, err
	}
	e, err := s.decryptEntry(row.JournalEntry)
	return e, row.Created, err
}

func (s *Store) FinishEntry(ctx context.Context, userID, id uuid.UUID, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, finishEntryStatement, id, userID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) UpdateAI(ctx context.Context, userID, id uuid.UUID, p store.AIPatch, now time.Time) (models.JournalEntry, error) {
	fields := []*string{p.ContentAIRefined, p.ArasAction, p.ArasReflection, p.ArasAnalysis, p.ArasSummary}
	args := []any{id, userID}
	for _, f := range fields {
		enc, err := s.cipher.EncryptPtr(f)
		if err != nil {
			return models.JournalEntry{}, fmt.Errorf("encrypt ai field: %w", err)
		}
		args = append(args, enc)
	}
	args = append(args, now)

	var e models.JournalEntry
	err := s.db.QueryRowxContext(ctx, updateAIStatement, args...).StructScan(&e)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.GetEntryByID(ctx, userID, id); getErr != nil {
			return models.JournalEntry{}, getErr
		}
		return models.JournalEntry{}, store.ErrEntryFinished
	}
	if err != nil {
		return models.JournalEntry{}, err
	}
	return s.decryptEntry(e)
}

func (s *Store) decryptEntry(e models.JournalEntry) (models.JournalEntry, error) {
	var err error
	if e.ContentRaw, err = s.cipher.Decrypt(e.ContentRaw); err != nil {
		return e, fmt.Errorf("decrypt content: %w", err)
	}
	for _, f := range []**string{&e.ContentAIRefined, &e.ArasAction, &e.ArasReflection, &e.ArasAnalysis, &e.ArasSummary} {
		if *f, err = s.cipher.DecryptPtr(*f); err != nil {
			return e, fmt.Errorf("decrypt ai field: %w", err)
		}
	}
	return e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var out models.Event
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO events (id, user_id, date, title, description, start_time, end_time, type, reminder_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+eventColumns,
		e.ID, e.UserID, e.Date, e.Title, e.Description, e.StartTime, e.EndTime, e.Type, e.ReminderEnabled, e.CreatedAt, e.UpdatedAt,
	).StructScan(&out)
	return out, err
}

func (s *Store) GetEvent(ctx context.Context, userID, id uuid.UUID) (models.Event, error) {
	var e models.Event
	err := s.db.GetContext(ctx, &e, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return models.Event{}, notFound(err)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	var out models.Event
	err := s.db.QueryRowxContext(ctx, `
		UPDATE events SET date = $3, title = $4, description = $5, start_time = $6, end_time = $7,
			type = $8, reminder_enabled = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
		RETURNING `+eventColumns,
		e.ID, e.UserID, e.Date, e.Title, e.Description, e.StartTime, e.EndTime, e.Type, e.ReminderEnabled, e.UpdatedAt,
	).StructScan(&out)
	if err != nil {
		return models.Event{}, notFound(err)
	}
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, userID uuid.UUID, f store.EventFilter) ([]models.Event, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}
	if !f.Date.IsZero() {
		args = append(args, f.Date)
		where += fmt.Sprintf(" AND date = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	out := []models.Event{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+eventColumns+` FROM events `+where+` ORDER BY date ASC, start_time ASC NULLS LAST`, args...)
	return out, err
}

func (s *Store) CreateReport(ctx context.Context, r models.CompiledReport) (models.CompiledReport, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	var out models.CompiledReport
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO compiled_reports (id, user_id, title, date_range_start, date_range_end, total_hours, total_days, report_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+reportColumns,
		r.ID, r.UserID, r.Title, r.DateRangeStart, r.DateRangeEnd, r.TotalHours, r.TotalDays, r.ReportData, r.CreatedAt,
	).StructScan(&out)
	return out, err
}

func (s *Store) LatestReport(ctx context.Context, userID uuid.UUID) (models.CompiledReport, error) {
	var r models.CompiledReport
	err := s.db.GetContext(ctx, &r, `SELECT `+reportColumns+` FROM compiled_reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	if err != nil {
		return models.CompiledReport{}, notFound(err)
	}
	return r, nil
}

func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	var out models.User
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, internship_company, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.InternshipCompany, u.CreatedAt,
	).StructScan(&out)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.User{}, store.ErrDuplicate
	}
	return out, err
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, company *string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowxContext(ctx, `
		UPDATE users SET full_name = COALESCE($2, full_name), internship_company = COALESCE($3, internship_company)
		WHERE id = $1
		RETURNING `+userColumns, id, fullName, company).StructScan(&u)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) InsertAILog(ctx context.Context, l models.AILog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_logs (id, user_id, journal_id, action, input_text, output_text, model, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.UserID, l.JournalID, l.Action, l.InputText, l.OutputText, l.Model, l.TokensUsed, l.CreatedAt)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
