package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"interntrack/internal/models"
)

func sampleEnvelope() models.ReportEnvelope {
	action := "Reviewed pull requests and wrote tests."
	return models.ReportEnvelope{
		UserName:       "Sam Rivera",
		Company:        "Acme",
		DateRangeStart: models.NewDate(2026, 3, 2),
		DateRangeEnd:   models.NewDate(2026, 3, 3),
		TotalHours:     decimal.RequireFromString("16.5"),
		TotalDays:      2,
		Entries: []models.JournalEntry{
			{Date: models.NewDate(2026, 3, 2), Hours: decimal.NewFromInt(8), ArasAction: &action, Status: models.StatusFinished},
			{Date: models.NewDate(2026, 3, 3), Hours: decimal.RequireFromString("8.5"), ContentRaw: "Plain notes.", Status: models.StatusFinished},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	body, err := NewPDF().Render(context.Background(), sampleEnvelope())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Errorf("Expected PDF header, got %q", body[:min(len(body), 8)])
	}
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A finished build may still win the select; only a non-nil error must be context.Canceled.
	if _, err := NewPDF().Render(ctx, sampleEnvelope()); err != nil && err != context.Canceled {
		t.Errorf("Expected nil or context.Canceled, got %v", err)
	}
}

func TestEntrySectionsFallback(t *testing.T) {
	refined := "Refined."
	e := models.JournalEntry{ContentRaw: "raw", ContentAIRefined: &refined}
	got := entrySections(e)
	if len(got) != 1 || got[0].body != "Refined." {
		t.Errorf("Expected refined fallback, got %+v", got)
	}
	e.ContentAIRefined = nil
	got = entrySections(e)
	if len(got) != 1 || got[0].body != "raw" {
		t.Errorf("Expected raw fallback, got %+v", got)
	}
}
