package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-03-01", true},
		{"2024-02-29", true},
		{"2025-02-29", false},
		{"2025-13-01", false},
		{"2025-3-1", false},
		{"2025-03-01T00:00:00Z", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := ParseDate(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseDate(%q): expected ok=%v, got err=%v", tt.in, tt.ok, err)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2024, time.February)
	if from.String() != "2024-02-01" || to.String() != "2024-02-29" {
		t.Errorf("Expected leap February, got %s to %s", from, to)
	}
	from, to = MonthRange(2025, time.December)
	if from.String() != "2025-12-01" || to.String() != "2025-12-31" {
		t.Errorf("Expected December range, got %s to %s", from, to)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)); err != nil || d.String() != "2025-03-09" {
		t.Errorf("Scan(time.Time): got %s, err=%v", d, err)
	}
	if err := d.Scan([]byte("2025-03-10T00:00:00Z")); err != nil || d.String() != "2025-03-10" {
		t.Errorf("Scan([]byte): got %s, err=%v", d, err)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Errorf("Scan(nil): expected zero date, got %s err=%v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int): expected error")
	}
	v, _ := Date{}.Value()
	if v != nil {
		t.Errorf("Expected zero date to be stored as NULL, got %v", v)
	}
}

func TestEntryJSON(t *testing.T) {
	e := JournalEntry{
		Date:   NewDate(2025, time.March, 1),
		Hours:  decimal.RequireFromString("7.5"),
		Status: StatusDraft,
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"date":"2025-03-01"`) {
		t.Errorf("Expected date string in %s", s)
	}
	if !strings.Contains(s, `"hours":7.5`) {
		t.Errorf("Expected hours as a JSON number in %s", s)
	}

	var bad JournalEntry
	if err := json.Unmarshal([]byte(`{"date":"2025-02-30"}`), &bad); err == nil {
		t.Error("Expected impossible date to be rejected")
	}
}

func TestReportEnvelopeRoundTripsThroughSQL(t *testing.T) {
	env := ReportEnvelope{
		UserName:       "N/A",
		Company:        "Acme",
		DateRangeStart: NewDate(2025, time.January, 1),
		DateRangeEnd:   NewDate(2025, time.March, 2),
		TotalHours:     decimal.NewFromInt(488),
		TotalDays:      61,
	}
	v, err := env.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	raw, ok := v.([]byte)
	if !ok {
		t.Fatalf("Expected []byte, got %T", v)
	}
	if !strings.Contains(string(raw), `"dateRangeStart":"2025-01-01"`) {
		t.Errorf("Expected camelCase keys, got %s", raw)
	}

	var back ReportEnvelope
	if err := back.Scan(raw); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if back.Company != "Acme" || back.TotalDays != 61 || !back.TotalHours.Equal(env.TotalHours) {
		t.Errorf("Unexpected envelope after scan: %+v", back)
	}
}
