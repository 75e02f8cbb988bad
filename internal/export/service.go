package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sudanerr/formscan/internal/report"
	"github.com/sudanerr/formscan/internal/repository"
)

// Service is a tiny façade over the report repository that produces
// XLSX bytes for exports.
type Service struct {
	reports repository.ReportRepository
	logger  *slog.Logger
}

func NewService(reports repository.ReportRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reports: reports, logger: logger}
}

// ExportReportsXLSX returns an XLSX workbook (as bytes) with one row per
// expense line item across the matching scans.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all scans (optionally per project).
func (s *Service) ExportReportsXLSX(ctx context.Context, projectID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := endOfDay(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := endOfDay(time.Now().UTC())
		toDate = &t
	}

	recs, err := s.reports.ListScans(ctx, projectID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Reports"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"ERR ID",
		"Report Date",
		"Activity",
		"Description",
		"Payment Date",
		"Seller",
		"Payment Method",
		"Receipt No",
		"Amount",
		"Total Expenses",
		"Grant Received",
		"Remainder",
		"Scanned At",
		"File URL",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, rec := range recs {
		rep := rec.Report
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		writeRow := func(e *report.ExpenseLineItem) {
			write(1, rep.ErrID)
			write(2, rep.Date)
			if e != nil {
				write(3, e.Activity)
				write(4, truncate(e.Description, 140))
				write(5, e.PaymentDate)
				write(6, e.Seller)
				write(7, e.PaymentMethod)
				write(8, e.ReceiptNo)
				write(9, string(e.Amount))
			}
			write(10, string(rep.FinancialSummary.TotalExpenses))
			write(11, string(rep.FinancialSummary.TotalGrantReceived))
			write(12, string(rep.FinancialSummary.Remainder))
			write(13, rec.CreatedAt.Format("2006-01-02"))
			write(14, rec.FileURL)
			row++
		}

		if len(rep.Expenses) == 0 {
			// keep a row so reports with no line items still show up
			writeRow(nil)
			continue
		}
		for i := range rep.Expenses {
			writeRow(&rep.Expenses[i])
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 48)
	_ = f.SetColWidth(sheet, "E", "H", 16)
	_ = f.SetColWidth(sheet, "I", "L", 14)
	_ = f.SetColWidth(sheet, "M", "M", 14)
	_ = f.SetColWidth(sheet, "N", "N", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"project_id", projectID,
		"scans", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// truncate caps s at n runes, ending with an ellipsis. Rune-based so
// Arabic descriptions never get cut mid-sequence.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
