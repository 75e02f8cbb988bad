package export

import (
	"bytes"
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sudanerr/formscan/internal/report"
	"github.com/sudanerr/formscan/internal/repository"
)

type fakeReports struct {
	recs []repository.ScanRecord
}

func (f *fakeReports) SaveScan(context.Context, *repository.SaveScanRequest) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (f *fakeReports) InsertImageRecord(context.Context, string, string, string) error {
	return nil
}

func (f *fakeReports) ListScans(context.Context, string, *time.Time, *time.Time) ([]repository.ScanRecord, error) {
	return f.recs, nil
}

func TestExportReportsXLSX(t *testing.T) {
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeReports{recs: []repository.ScanRecord{
		{
			ID:        uuid.New(),
			ErrID:     "ERR-001",
			CreatedAt: created,
			FileURL:   "https://cdn.example.org/images/custom-form/a.jpg",
			Report: report.StructuredReport{
				ErrID: "ERR-001",
				Date:  "2024-05-01",
				Expenses: []report.ExpenseLineItem{
					{Activity: "Water trucking", Amount: "150", Seller: "Vendor A"},
					{Activity: "Soap", Amount: "50"},
				},
				FinancialSummary: report.FinancialSummary{
					TotalExpenses:      "200",
					TotalGrantReceived: "300",
					Remainder:          "100",
				},
			},
		},
		{
			ID:        uuid.New(),
			ErrID:     "ERR-002",
			CreatedAt: created,
			Report:    report.StructuredReport{ErrID: "ERR-002"},
		},
	}}

	svc := NewService(repo, nil)
	out, err := svc.ExportReportsXLSX(context.Background(), "", nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	const sheet = "Reports"
	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "ERR ID", get("A1"))
	assert.Equal(t, "ERR-001", get("A2"))
	assert.Equal(t, "Water trucking", get("C2"))
	assert.Equal(t, "150", get("I2"))
	assert.Equal(t, "Soap", get("C3"))
	// an empty report still occupies a row with its totals
	assert.Equal(t, "ERR-002", get("A4"))
	assert.Equal(t, "", get("C4"))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	long := "شراء مواد تنظيف من السوق المحلي لصالح المطبخ"
	got := truncate(long, 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.Equal(t, []rune(long)[:9], []rune(got)[:9])

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde", truncate("abcde", 5))
	assert.Equal(t, "abc…", truncate("abcde", 4))
}
