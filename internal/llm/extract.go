package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/report"
)

const (
	systemReport = "You extract structured data from scanned financial report forms. " +
		"Return ONLY a JSON object, with no prose and no markdown fences."
	systemForms = "You extract structured data from scanned financial report forms. " +
		"The document may contain several separate forms. Return ONLY a JSON object " +
		"of the shape {\"forms\": [...]}, one entry per form, with no prose and no markdown fences."
)

// Options control sampling and budget per extraction shape. Bulk PDFs
// carry several forms in one response, so only the token budget grows.
type Options struct {
	Temperature   float64
	MaxTokens     int64
	BulkMaxTokens int64
}

// ReportExtractor turns a built prompt into structured reports via a
// Completer. It owns response cleanup, schema validation and decoding;
// the provider behind the Completer stays dumb.
type ReportExtractor struct {
	completer Completer
	opts      Options
	log       *slog.Logger
}

func NewReportExtractor(completer Completer, opts Options, logger *slog.Logger) *ReportExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExtractor{completer: completer, opts: opts, log: logger}
}

// ExtractReport runs a single-form extraction and returns the decoded
// report along with the cleaned raw JSON.
func (e *ReportExtractor) ExtractReport(ctx context.Context, prompt string) (*report.StructuredReport, []byte, error) {
	raw, err := e.complete(ctx, systemReport, prompt, e.opts.MaxTokens, BuildReportJSONSchema())
	if err != nil {
		return nil, nil, err
	}
	var out report.StructuredReport
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, common.NewAppError("EXTRACT", "decode report: "+err.Error(), common.ErrExtraction)
	}
	return &out, raw, nil
}

// ExtractForms runs a bulk extraction over a document holding several
// forms and returns one report per form.
func (e *ReportExtractor) ExtractForms(ctx context.Context, prompt string) ([]report.StructuredReport, []byte, error) {
	raw, err := e.complete(ctx, systemForms, prompt, e.opts.BulkMaxTokens, BuildFormsJSONSchema())
	if err != nil {
		return nil, nil, err
	}
	var out struct {
		Forms []report.StructuredReport `json:"forms"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, common.NewAppError("EXTRACT", "decode forms: "+err.Error(), common.ErrExtraction)
	}
	return out.Forms, raw, nil
}

func (e *ReportExtractor) complete(ctx context.Context, system, prompt string, maxTokens int64, schema map[string]any) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	e.log.Info("llm.extract.start",
		"req_id", rid,
		"temp", e.opts.Temperature,
		"max_tokens", maxTokens,
		"prompt_len", len(prompt),
	)

	content, err := e.completer.Complete(ctx, CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: e.opts.Temperature,
		MaxTokens:   maxTokens,
		JSONObject:  true,
	})
	if err != nil {
		e.log.Error("llm.extract.completion_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACT", "completion failed: "+err.Error(), common.ErrExtraction)
	}

	cleaned, err := CleanContent(content)
	if err != nil {
		e.log.Error("llm.extract.unusable_content",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	raw := []byte(cleaned)

	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		e.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", cleaned,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACT", "schema validation failed: "+err.Error(), common.ErrExtraction)
	}

	e.log.Info("llm.extract.ok",
		"req_id", rid,
		"content_len", len(cleaned),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, nil
}
