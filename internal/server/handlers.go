package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sudanerr/formscan/constants"
	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/pipeline"
)

func (s *Server) handleScanCustomForm(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.readUpload(w, r, "image", constants.IMAGE)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	res, err := s.scanner.ScanImage(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanSinglePDF(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.readUpload(w, r, "file", constants.PDF)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	res, err := s.scanner.ScanPDF(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanPDFForm(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.readUpload(w, r, "file", constants.PDF)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	res, err := s.scanner.ScanPDFForms(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.writeError(w, common.NewAppError("EXPORT_DISABLED", "export is not configured", common.ErrInvalidInput))
		return
	}

	parseDate := func(name string) (*time.Time, error) {
		v := strings.TrimSpace(r.URL.Query().Get(name))
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, common.NewAppError("BAD_DATE", name+" must be YYYY-MM-DD", common.ErrInvalidInput)
		}
		return &t, nil
	}

	from, err := parseDate("from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseDate("to")
	if err != nil {
		s.writeError(w, err)
		return
	}

	xlsx, err := s.exporter.ExportReportsXLSX(r.Context(), r.URL.Query().Get("projectId"), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reports.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "detail": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload pulls the named multipart file, checks its extension
// against want, and spools it through a temp file that the returned
// cleanup always removes.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string, want constants.Format) (pipeline.ScanRequest, func(), error) {
	nop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return pipeline.ScanRequest{}, nop, common.NewAppError("BAD_UPLOAD", "malformed multipart body: "+err.Error(), common.ErrInvalidInput)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return pipeline.ScanRequest{}, nop, common.NewAppError("BAD_UPLOAD", "missing form file "+field, common.ErrInvalidInput)
	}
	defer func() { _ = file.Close() }()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if constants.MapExtToFormat(ext) != want {
		return pipeline.ScanRequest{}, nop, common.NewAppError("BAD_UPLOAD", "unsupported file extension: "+ext, common.ErrInvalidInput)
	}

	tmp, err := os.CreateTemp(s.cfg.TempDir, "scan-*."+ext)
	if err != nil {
		return pipeline.ScanRequest{}, nop, common.NewAppError("UPLOAD", err.Error(), common.ErrUpload)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, file); err != nil {
		cleanup()
		return pipeline.ScanRequest{}, nop, common.NewAppError("UPLOAD", err.Error(), common.ErrUpload)
	}

	content, err := os.ReadFile(tmp.Name())
	if err != nil {
		cleanup()
		return pipeline.ScanRequest{}, nop, common.NewAppError("UPLOAD", err.Error(), common.ErrUpload)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return pipeline.ScanRequest{
		ProjectID:   r.FormValue("projectId"),
		Filename:    header.Filename,
		ContentType: contentType,
		Content:     content,
	}, cleanup, nil
}
