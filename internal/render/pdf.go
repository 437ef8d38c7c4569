// Package render turns a compiled report envelope into a PDF document.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"interntrack/internal/models"
	"interntrack/internal/progress"
)

type rgb struct{ r, g, b int }

var (
	red   = rgb{0xBE, 0x35, 0x19}
	cream = rgb{0xFD, 0xFF, 0xE4}
	dark  = rgb{0x1E, 0x1E, 0x1E}
)

const margin = 72.0

// PDF renders report envelopes with fpdf core fonts on US Letter pages.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

// Render builds the document off the caller's goroutine so a deadline on ctx
// bounds the call even though fpdf itself is not context aware.
func (p *PDF) Render(ctx context.Context, env models.ReportEnvelope) ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := build(env)
		done <- result{body, err}
	}()
	select {
	case res := <-done:
		return res.body, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func build(env models.ReportEnvelope) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(cream.r, cream.g, cream.b)
		pdf.Rect(0, 0, pageW, pageH, "F")
		pdf.SetXY(margin, margin)
	})

	text := func(size float64, style string, c rgb, s string, align string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.MultiCell(0, size*1.4, tr(s), "", align, false)
	}

	// Cover.
	pdf.AddPage()
	pdf.Ln(6 * 14)
	text(32, "B", red, "INTERNSHIP JOURNAL", "C")
	pdf.Ln(7)
	text(14, "", dark, "Compiled Report", "C")
	pdf.Ln(28)
	text(12, "", dark, "Name: "+orNA(env.UserName), "C")
	text(12, "", dark, "Company: "+orNA(env.Company), "C")
	pdf.Ln(12)
	text(12, "", dark, fmt.Sprintf("Date Range: %s to %s", env.DateRangeStart, env.DateRangeEnd), "C")
	text(12, "", dark, fmt.Sprintf("Total Hours: %s / %s", env.TotalHours, progress.TargetHours), "C")
	text(12, "", dark, fmt.Sprintf("Total Days: %d", env.TotalDays), "C")

	for _, e := range env.Entries {
		pdf.AddPage()
		text(16, "B", red, e.Date.Time().Format("Monday, January 2, 2006"), "L")
		text(10, "", dark, "Hours Rendered: "+e.Hours.String(), "L")
		pdf.Ln(15)

		sections := entrySections(e)
		for _, s := range sections {
			text(12, "B", red, s.title, "L")
			pdf.Ln(4)
			text(10, "", dark, s.body, "L")
			pdf.Ln(10)
		}
	}

	pdf.AddPage()
	text(20, "B", red, "Final Summary", "L")
	pdf.Ln(15)
	text(12, "", dark, "Total Hours Completed: "+env.TotalHours.String(), "L")
	text(12, "", dark, fmt.Sprintf("Total Working Days: %d", env.TotalDays), "L")
	text(12, "", dark, fmt.Sprintf("Period: %s to %s", env.DateRangeStart, env.DateRangeEnd), "L")
	pdf.Ln(24)
	text(10, "", dark, fmt.Sprintf("This internship journal was compiled automatically upon reaching the required %s hours. "+
		"All entries have been reviewed and finalized by the intern.", progress.TargetHours), "L")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type section struct {
	title string
	body  string
}

// entrySections prefers the ARAS structure, then the refined text, then the
// raw journal text.
func entrySections(e models.JournalEntry) []section {
	var out []section
	for _, s := range []struct {
		title string
		body  *string
	}{
		{"Action", e.ArasAction},
		{"Reflection", e.ArasReflection},
		{"Analysis", e.ArasAnalysis},
		{"Summary", e.ArasSummary},
	} {
		if s.body != nil && *s.body != "" {
			out = append(out, section{s.title, *s.body})
		}
	}
	if len(out) > 0 {
		return out
	}
	if e.ContentAIRefined != nil && *e.ContentAIRefined != "" {
		return []section{{"Journal", *e.ContentAIRefined}}
	}
	if e.ContentRaw != "" {
		return []section{{"Journal", e.ContentRaw}}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
