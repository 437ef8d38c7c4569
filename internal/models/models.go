package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Hours and totals go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusFinished EntryStatus = "finished"
)

type User struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FullName          *string   `db:"full_name" json:"full_name,omitempty"`
	InternshipCompany *string   `db:"internship_company" json:"internship_company,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// JournalEntry is the single record a user keeps for one calendar day.
type JournalEntry struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	Date             Date            `db:"date" json:"date"`
	Hours            decimal.Decimal `db:"hours" json:"hours"`
	ContentRaw       string          `db:"content_raw" json:"content_raw"`
	ContentAIRefined *string         `db:"content_ai_refined" json:"content_ai_refined"`
	ArasAction       *string         `db:"aras_action" json:"aras_action"`
	ArasReflection   *string         `db:"aras_reflection" json:"aras_reflection"`
	ArasAnalysis     *string         `db:"aras_analysis" json:"aras_analysis"`
	ArasSummary      *string         `db:"aras_summary" json:"aras_summary"`
	Status           EntryStatus     `db:"status" json:"status"`
	FinishedAt       *time.Time      `db:"finished_at" json:"finished_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

func (e JournalEntry) IsFinished() bool { return e.Status == StatusFinished }

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventDeadline EventType = "deadline"
	EventReminder EventType = "reminder"
	EventPersonal EventType = "personal"
)

type Event struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Date            Date      `db:"date" json:"date"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	StartTime       *string   `db:"start_time" json:"start_time"`
	EndTime         *string   `db:"end_time" json:"end_time"`
	Type            EventType `db:"type" json:"type"`
	ReminderEnabled bool      `db:"reminder_enabled" json:"reminder_enabled"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ReportEnvelope is the denormalized body of a compiled report: the profile
// at compile time plus every finished entry in date order.
type ReportEnvelope struct {
	UserName       string          `json:"userName"`
	Company        string          `json:"company"`
	DateRangeStart Date            `json:"dateRangeStart"`
	DateRangeEnd   Date            `json:"dateRangeEnd"`
	TotalHours     decimal.Decimal `json:"totalHours"`
	TotalDays      int             `json:"totalDays"`
	Entries        []JournalEntry  `json:"entries"`
}

func (r ReportEnvelope) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ReportEnvelope) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("models: cannot scan %T into ReportEnvelope", src)
	}
}

type CompiledReport struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	Title          string          `db:"title" json:"title"`
	DateRangeStart Date            `db:"date_range_start" json:"date_range_start"`
	DateRangeEnd   Date            `db:"date_range_end" json:"date_range_end"`
	TotalHours     decimal.Decimal `db:"total_hours" json:"total_hours"`
	TotalDays      int             `db:"total_days" json:"total_days"`
	ReportData     ReportEnvelope  `db:"report_data" json:"report_data"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

type AIAction string

const (
	AIActionRefine AIAction = "refine"
	AIActionARAS   AIAction = "aras"
)

type AILog struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	JournalID  uuid.UUID `db:"journal_id" json:"journal_id"`
	Action     AIAction  `db:"action" json:"action"`
	InputText  string    `db:"input_text" json:"input_text"`
	OutputText string    `db:"output_text" json:"output_text"`
	Model      string    `db:"model" json:"model"`
	TokensUsed int       `db:"tokens_used" json:"tokens_used"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
