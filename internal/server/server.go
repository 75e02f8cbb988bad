// Package server is the HTTP edge: multipart upload handling, scan
// endpoint routing and JSON error rendering.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sudanerr/formscan/internal/pipeline"
)

// Scanner is the slice of the pipeline the HTTP edge depends on.
type Scanner interface {
	ScanImage(ctx context.Context, req pipeline.ScanRequest) (*pipeline.ScanResult, error)
	ScanPDF(ctx context.Context, req pipeline.ScanRequest) (*pipeline.ScanResult, error)
	ScanPDFForms(ctx context.Context, req pipeline.ScanRequest) (*pipeline.BulkScanResult, error)
}

// Exporter produces workbooks for download.
type Exporter interface {
	ExportReportsXLSX(ctx context.Context, projectID string, from, to *time.Time) ([]byte, error)
}

// Config holds edge behavior knobs.
type Config struct {
	MaxUploadBytes int64
	TempDir        string // "" means the OS default
}

type Server struct {
	cfg      Config
	scanner  Scanner
	exporter Exporter
	health   func(ctx context.Context) error
	logger   *slog.Logger
}

// New builds the server. A nil exporter disables the export endpoint; a
// nil health func makes /healthz always report ok.
func New(cfg Config, scanner Scanner, exporter Exporter, health func(context.Context) error, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	return &Server{
		cfg:      cfg,
		scanner:  scanner,
		exporter: exporter,
		health:   health,
		logger:   logger,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scan-custom-form", s.handleScanCustomForm)
		r.Post("/scan-single-pdf", s.handleScanSinglePDF)
		r.Post("/scan-pdf-form", s.handleScanPDFForm)
		r.Get("/reports/export", s.handleExport)
	})
	return r
}
