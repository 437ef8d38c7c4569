package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    full_name TEXT,
    internship_company TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS journals (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    hours NUMERIC(4,2) NOT NULL DEFAULT 0 CHECK (hours >= 0 AND hours <= 24),
    content_raw TEXT NOT NULL DEFAULT '',
    content_ai_refined TEXT,
    aras_action TEXT,
    aras_reflection TEXT,
    aras_analysis TEXT,
    aras_summary TEXT,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'finished')),
    finished_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(user_id, date)
);

CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    title TEXT NOT NULL CHECK (char_length(title) BETWEEN 1 AND 200),
    description TEXT NOT NULL DEFAULT '',
    start_time TEXT,
    end_time TEXT,
    type TEXT NOT NULL DEFAULT 'personal' CHECK (type IN ('meeting', 'deadline', 'reminder', 'personal')),
    reminder_enabled BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS events_user_date_idx ON events (user_id, date);

CREATE TABLE IF NOT EXISTS compiled_reports (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    date_range_start DATE NOT NULL,
    date_range_end DATE NOT NULL,
    total_hours NUMERIC(7,2) NOT NULL,
    total_days INTEGER NOT NULL,
    report_data JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS compiled_reports_user_created_idx ON compiled_reports (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS ai_logs (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    journal_id UUID NOT NULL REFERENCES journals(id) ON DELETE CASCADE,
    action TEXT NOT NULL CHECK (action IN ('refine', 'aras')),
    input_text TEXT NOT NULL,
    output_text TEXT NOT NULL,
    model TEXT NOT NULL,
    tokens_used INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// finishedLock rejects any UPDATE of a finished journal row, so the lock holds
// even for writers that bypass the conditional statements in this package.
const finishedLock = `
CREATE OR REPLACE FUNCTION journals_guard_finished() RETURNS trigger AS $$
BEGIN
    IF OLD.status = 'finished' THEN
        RAISE EXCEPTION 'journal % is finished', OLD.id USING ERRCODE = 'check_violation';
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS journals_finished_lock ON journals;
CREATE TRIGGER journals_finished_lock
    BEFORE UPDATE ON journals
    FOR EACH ROW EXECUTE FUNCTION journals_guard_finished();`

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, finishedLock)
	return err
}
