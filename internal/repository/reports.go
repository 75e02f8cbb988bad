package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/report"
)

// SaveScanRequest wraps everything persisted for one extracted form.
type SaveScanRequest struct {
	ProjectID string // empty for PDF scans that carry no project link
	Language  string
	FileURL   string
	Report    *report.StructuredReport
	RawOutput []byte // cleaned model JSON, kept for audits
}

// ScanRecord is one persisted scan row.
type ScanRecord struct {
	ID        uuid.UUID
	ProjectID string
	ErrID     string
	Language  string
	FileURL   string
	Report    report.StructuredReport
	CreatedAt time.Time
}

// ReportRepository persists extracted reports and their source-file
// records.
type ReportRepository interface {
	SaveScan(ctx context.Context, req *SaveScanRequest) (uuid.UUID, error)
	InsertImageRecord(ctx context.Context, filename, path, notes string) error
	ListScans(ctx context.Context, projectID string, from, to *time.Time) ([]ScanRecord, error)
}

type reportRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReportRepository(pool *pgxpool.Pool, logger *slog.Logger) ReportRepository {
	return &reportRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *reportRepository) SaveScan(ctx context.Context, req *SaveScanRequest) (uuid.UUID, error) {
	id := uuid.New()

	body, err := json.Marshal(req.Report)
	if err != nil {
		return uuid.Nil, common.NewAppError("PERSIST", "encode report: "+err.Error(), common.ErrPersistence)
	}

	var projectID any
	if req.ProjectID != "" {
		projectID = req.ProjectID
	}

	const q = `INSERT INTO scan_reports (id, project_id, err_id, language, file_url, report, raw_output, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err = r.pool.Exec(ctx, q, id, projectID, req.Report.ErrID, req.Language, req.FileURL, body, req.RawOutput)
	if err != nil {
		r.logger.Error("failed to save scan report", "project_id", req.ProjectID, "error", err)
		return uuid.Nil, common.NewAppError("PERSIST", err.Error(), common.ErrPersistence)
	}

	r.logger.Info("scan report saved", "report_id", id, "project_id", req.ProjectID, "err_id", req.Report.ErrID)
	return id, nil
}

// ListScans returns saved scans newest-first. An empty projectID lists
// every project; nil bounds leave that side of the window open.
func (r *reportRepository) ListScans(ctx context.Context, projectID string, from, to *time.Time) ([]ScanRecord, error) {
	q := `SELECT id, COALESCE(project_id::text, ''), COALESCE(err_id, ''), language, COALESCE(file_url, ''), report, created_at
FROM scan_reports WHERE 1=1`
	args := []any{}
	if projectID != "" {
		args = append(args, projectID)
		q += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list scan reports", "project_id", projectID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var (
			rec  ScanRecord
			body []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.ErrID, &rec.Language, &rec.FileURL, &body, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &rec.Report); err != nil {
				r.logger.Warn("skipping malformed report row", "report_id", rec.ID, "error", err)
				continue
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *reportRepository) InsertImageRecord(ctx context.Context, filename, path, notes string) error {
	const q = `INSERT INTO images (created_at, filename, path, notes) VALUES (now(), $1, $2, $3)`
	if _, err := r.pool.Exec(ctx, q, filename, path, notes); err != nil {
		r.logger.Error("failed to insert image record", "filename", filename, "error", err)
		return common.NewAppError("PERSIST", err.Error(), common.ErrPersistence)
	}
	return nil
}
