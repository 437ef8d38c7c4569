package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"interntrack/internal/models"
	"interntrack/internal/store"
)

const exportSheet = "Journals"

// ExportRow is one journal line of the export. Encrypted columns are already
// decrypted by the store.
type ExportRow struct {
	Date       models.Date        `json:"date"`
	Hours      decimal.Decimal    `json:"hours"`
	Status     models.EntryStatus `json:"status"`
	ContentRaw string             `json:"content_raw"`
	FinishedAt *time.Time         `json:"finished_at"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Export returns the user's whole journal history in date order. Unlike
// List it is not capped.
func (s *JournalService) Export(ctx context.Context, userID uuid.UUID) ([]ExportRow, error) {
	entries, err := s.store.ListEntries(ctx, userID, store.EntryFilter{})
	if err != nil {
		return nil, wrapError(KindInternal, "could not export journal entries", err)
	}
	rows := make([]ExportRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ExportRow{
			Date:       e.Date,
			Hours:      e.Hours,
			Status:     e.Status,
			ContentRaw: e.ContentRaw,
			FinishedAt: e.FinishedAt,
			CreatedAt:  e.CreatedAt,
			UpdatedAt:  e.UpdatedAt,
		})
	}
	return rows, nil
}

var exportHeadings = []string{"Date", "Hours", "Status", "Content", "Finished At", "Created At", "Updated At"}

// splitCell cuts v into pieces that fit one cell. excelize truncates longer
// strings without an error.
func splitCell(v string) []string {
	r := []rune(v)
	if len(r) <= excelize.TotalCellChars {
		return []string{v}
	}
	var parts []string
	for len(r) > 0 {
		n := min(len(r), excelize.TotalCellChars)
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	return parts
}

// WriteXLSX renders rows as a single-sheet workbook. Content longer than a
// cell holds continues in "Content (part N)" columns after the fixed ones.
func WriteXLSX(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	contents := make([][]string, len(rows))
	parts := 1
	for i, r := range rows {
		contents[i] = splitCell(r.ContentRaw)
		parts = max(parts, len(contents[i]))
	}

	headings := append([]string(nil), exportHeadings...)
	for n := 2; n <= parts; n++ {
		headings = append(headings, fmt.Sprintf("Content (part %d)", n))
	}
	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range rows {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		values := []any{
			r.Date.String(),
			r.Hours.InexactFloat64(),
			string(r.Status),
			contents[i][0],
			finished,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		for _, more := range contents[i][1:] {
			values = append(values, more)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}
	return f.Write(w)
}
