// Package pipeline coordinates a scan end to end: project metadata,
// preprocessing, OCR, language detection, prompt building, model
// extraction, reconciliation and the persistence hand-off.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sudanerr/formscan/constants"
	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/lang"
	"github.com/sudanerr/formscan/internal/ocr"
	"github.com/sudanerr/formscan/internal/prompt"
	"github.com/sudanerr/formscan/internal/report"
	"github.com/sudanerr/formscan/internal/repository"
)

// Extractor is the slice of the llm layer the pipeline needs.
type Extractor interface {
	ExtractReport(ctx context.Context, prompt string) (*report.StructuredReport, []byte, error)
	ExtractForms(ctx context.Context, prompt string) ([]report.StructuredReport, []byte, error)
}

// PDFText extracts embedded text from a PDF. *ocr.PDFExtractor is the
// production implementation.
type PDFText interface {
	ExtractText(data []byte) (string, error)
}

// Config holds pipeline behavior knobs.
type Config struct {
	StageTimeout time.Duration
}

// Pipeline wires the scan stages together. Projects may be nil when no
// caller passes project ids; a nil Store or Reports disables the upload
// and persistence hand-off, which the one-shot CLI relies on.
type Pipeline struct {
	Logger       *slog.Logger
	Cfg          Config
	Preprocessor ocr.Preprocessor
	Annotator    ocr.Annotator
	PDF          PDFText
	Prompts      *prompt.Builder
	Extractor    Extractor
	Projects     repository.ProjectRepository
	Reports      repository.ReportRepository
	Store        repository.ObjectStore
}

func New(p Pipeline) *Pipeline {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &p
}

// ScanRequest is one uploaded file to process.
type ScanRequest struct {
	ProjectID   string // optional; links the report to a project
	Filename    string
	ContentType string
	Content     []byte
}

// ScanResult is the outcome of a single-form scan.
type ScanResult struct {
	ReportID uuid.UUID                `json:"reportId,omitempty"`
	Report   *report.StructuredReport `json:"report"`
	Language string                   `json:"language"`
	FileURL  string                   `json:"fileUrl,omitempty"`
	OCRText  string                   `json:"ocrText,omitempty"`
}

// BulkScanResult is the outcome of a multi-form PDF scan.
type BulkScanResult struct {
	ReportIDs []uuid.UUID               `json:"reportIds,omitempty"`
	Reports   []report.StructuredReport `json:"reports"`
	Language  string                    `json:"language"`
	FileURL   string                    `json:"fileUrl,omitempty"`
}

// ScanImage runs the full image path: preprocess, OCR with layout
// reconstruction, then extraction against the custom-form template.
func (p *Pipeline) ScanImage(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	start := time.Now()
	p.Logger.Info("scan.start", "kind", "image", "filename", req.Filename, "project_id", req.ProjectID, "bytes", len(req.Content))

	meta, err := p.fetchMetadata(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	processed, err := p.preprocess(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	text, err := p.annotate(ctx, processed)
	if err != nil {
		return nil, err
	}

	rep, scan, err := p.extractSingle(ctx, prompt.TemplateCustomForm, text, meta)
	if err != nil {
		return nil, err
	}

	res, err := p.persistSingle(ctx, req, "custom-form", rep, scan)
	if err != nil {
		return nil, err
	}
	res.OCRText = text

	p.Logger.Info("scan.ok", "kind", "image", "err_id", rep.ErrID, "language", res.Language,
		"expenses", len(rep.Expenses), "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// ScanPDF runs the single-form PDF path: embedded text extraction, then
// extraction against the pdf-form template.
func (p *Pipeline) ScanPDF(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	start := time.Now()
	p.Logger.Info("scan.start", "kind", "pdf", "filename", req.Filename, "project_id", req.ProjectID, "bytes", len(req.Content))

	meta, err := p.fetchMetadata(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	text, err := p.pdfText(req.Content)
	if err != nil {
		return nil, err
	}

	rep, scan, err := p.extractSingle(ctx, prompt.TemplatePDFForm, text, meta)
	if err != nil {
		return nil, err
	}

	res, err := p.persistSingle(ctx, req, "pdf-form", rep, scan)
	if err != nil {
		return nil, err
	}
	res.OCRText = text

	p.Logger.Info("scan.ok", "kind", "pdf", "err_id", rep.ErrID, "language", res.Language,
		"expenses", len(rep.Expenses), "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// ScanPDFForms runs the bulk PDF path: one document holding several
// forms, each reconciled and persisted on its own.
func (p *Pipeline) ScanPDFForms(ctx context.Context, req ScanRequest) (*BulkScanResult, error) {
	start := time.Now()
	p.Logger.Info("scan.start", "kind", "pdf-bulk", "filename", req.Filename, "project_id", req.ProjectID, "bytes", len(req.Content))

	meta, err := p.fetchMetadata(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	text, err := p.pdfText(req.Content)
	if err != nil {
		return nil, err
	}

	language := lang.Detect(text)
	built, err := p.buildPrompt(prompt.TemplatePDFForm, language, text, meta)
	if err != nil {
		return nil, err
	}

	ectx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	forms, raw, err := p.Extractor.ExtractForms(ectx, built)
	cancel()
	if err != nil {
		return nil, err
	}

	fileURL, err := p.upload(ctx, req, "pdf-form")
	if err != nil {
		return nil, err
	}

	out := &BulkScanResult{Language: language, FileURL: fileURL}
	for i := range forms {
		rep := &forms[i]
		report.Reconcile(rep, meta)
		rep.ProjectMetadata = meta
		rep.FileURL = fileURL
		id, err := p.save(ctx, req.ProjectID, language, fileURL, rep, raw)
		if err != nil {
			return nil, err
		}
		if id != uuid.Nil {
			out.ReportIDs = append(out.ReportIDs, id)
		}
	}
	out.Reports = forms

	p.Logger.Info("scan.ok", "kind", "pdf-bulk", "forms", len(forms), "language", language,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (p *Pipeline) fetchMetadata(ctx context.Context, projectID string) (*report.ProjectMetadata, error) {
	if projectID == "" || p.Projects == nil {
		return nil, nil
	}
	mctx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	meta, err := p.Projects.FetchMetadata(mctx, projectID)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("scan.metadata.ok", "project_id", projectID, "err_id", meta.ERRID)
	return meta, nil
}

func (p *Pipeline) preprocess(ctx context.Context, content []byte) ([]byte, error) {
	if p.Preprocessor == nil {
		return content, nil
	}
	pctx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	processed, err := p.Preprocessor.Process(pctx, content)
	if err != nil {
		return nil, common.NewAppError("PREPROCESS", err.Error(), common.ErrPreprocess)
	}
	p.Logger.Info("scan.preprocess.ok", "in_bytes", len(content), "out_bytes", len(processed))
	return processed, nil
}

func (p *Pipeline) annotate(ctx context.Context, image []byte) (string, error) {
	octx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	annotation, err := p.Annotator.AnnotateDocument(octx, image, constants.LanguageHints)
	if err != nil {
		return "", common.NewAppError("OCR", err.Error(), common.ErrOCR)
	}
	text := ocr.ReconstructLayout(annotation)
	if text == "" {
		// blank scans still go to the model; it reports empty fields
		p.Logger.Warn("scan.ocr.empty")
	}
	p.Logger.Info("scan.ocr.ok", "chars", len(text))
	return text, nil
}

func (p *Pipeline) pdfText(content []byte) (string, error) {
	text, err := p.PDF.ExtractText(content)
	if err != nil {
		return "", common.NewAppError("OCR", err.Error(), common.ErrOCR)
	}
	p.Logger.Info("scan.pdftext.ok", "chars", len(text))
	return text, nil
}

func (p *Pipeline) buildPrompt(name, language, text string, meta *report.ProjectMetadata) (string, error) {
	grant := report.GrantTotal(meta)
	return p.Prompts.Build(name, language, prompt.Vars{
		CleanedText: text,
		Metadata:    meta,
		Totals: report.Totals{
			TotalGrantReceived: grant,
			Remainder:          grant,
		},
	})
}

type singleScan struct {
	raw      []byte
	language string
}

func (p *Pipeline) extractSingle(ctx context.Context, template, text string, meta *report.ProjectMetadata) (*report.StructuredReport, *singleScan, error) {
	language := lang.Detect(text)
	built, err := p.buildPrompt(template, language, text, meta)
	if err != nil {
		return nil, nil, err
	}

	ectx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	rep, raw, err := p.Extractor.ExtractReport(ectx, built)
	if err != nil {
		return nil, nil, err
	}

	totals := report.Reconcile(rep, meta)
	rep.ProjectMetadata = meta
	p.Logger.Info("scan.reconcile.ok",
		"total_expenses", totals.TotalExpenses,
		"total_grant", totals.TotalGrantReceived,
		"remainder", totals.Remainder,
	)

	return rep, &singleScan{raw: raw, language: language}, nil
}

// persistSingle uploads the source file, stamps its URL on the report,
// and saves the scan row. With no store and no report repository wired
// it leaves the report un-persisted.
func (p *Pipeline) persistSingle(ctx context.Context, req ScanRequest, category string, rep *report.StructuredReport, scan *singleScan) (*ScanResult, error) {
	fileURL, err := p.upload(ctx, req, category)
	if err != nil {
		return nil, err
	}
	rep.FileURL = fileURL

	id, err := p.save(ctx, req.ProjectID, scan.language, fileURL, rep, scan.raw)
	if err != nil {
		return nil, err
	}

	return &ScanResult{
		ReportID: id,
		Report:   rep,
		Language: scan.language,
		FileURL:  fileURL,
	}, nil
}

func (p *Pipeline) upload(ctx context.Context, req ScanRequest, category string) (string, error) {
	if p.Store == nil {
		return "", nil
	}
	uctx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	fileURL, err := p.Store.Upload(uctx, category, req.Filename, req.Content, req.ContentType)
	if err != nil {
		return "", err
	}
	if p.Reports != nil {
		if err := p.Reports.InsertImageRecord(uctx, req.Filename, fileURL, category); err != nil {
			return "", err
		}
	}
	return fileURL, nil
}

func (p *Pipeline) save(ctx context.Context, projectID, language, fileURL string, rep *report.StructuredReport, raw []byte) (uuid.UUID, error) {
	if p.Reports == nil {
		return uuid.Nil, nil
	}
	sctx, cancel := common.WithTimeout(ctx, p.Cfg.StageTimeout)
	defer cancel()
	return p.Reports.SaveScan(sctx, &repository.SaveScanRequest{
		ProjectID: projectID,
		Language:  language,
		FileURL:   fileURL,
		Report:    rep,
		RawOutput: raw,
	})
}
