// Command scanfile runs the scan pipeline once over a local file and
// prints the extracted report as JSON. It talks to Vision and OpenAI
// but skips the database and object-store hand-off, which makes it the
// quickest way to try a prompt or template change against a real form.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sudanerr/formscan/constants"
	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/llm"
	"github.com/sudanerr/formscan/internal/llm/openai"
	"github.com/sudanerr/formscan/internal/ocr"
	"github.com/sudanerr/formscan/internal/pipeline"
	"github.com/sudanerr/formscan/internal/prompt"
)

func main() {
	_ = godotenv.Load()

	var (
		path = flag.String("file", "", "image or PDF to scan (required)")
		bulk = flag.Bool("bulk", false, "treat a PDF as a batch of forms")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *path == "" {
		logger.Error("-file is required")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.Vision.CredentialsJSON == "" || cfg.LLM.APIKey == "" {
		logger.Error("GOOGLE_VISION and OPENAI_API_KEY are required")
		os.Exit(2)
	}

	format := constants.MapExtToFormat(filepath.Ext(*path))
	if format == "" {
		logger.Error("unsupported file extension", "file", *path)
		os.Exit(2)
	}

	content, err := os.ReadFile(*path)
	if err != nil {
		logger.Error("read file", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	annotator, err := ocr.NewVisionAnnotator(ctx, []byte(cfg.Vision.CredentialsJSON), logger)
	if err != nil {
		logger.Error("vision client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = annotator.Close() }()

	completer := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	pipe := pipeline.New(pipeline.Pipeline{
		Logger:       logger,
		Cfg:          pipeline.Config{StageTimeout: cfg.Scan.StageTimeout},
		Preprocessor: ocr.ImagePreprocessor{},
		Annotator:    annotator,
		PDF:          ocr.NewPDFExtractor(cfg.Scan.MaxPDFPages),
		Prompts:      prompt.NewBuilder(cfg.Scan.TemplatesDir),
		Extractor: llm.NewReportExtractor(completer, llm.Options{
			Temperature:   cfg.LLM.Temperature,
			MaxTokens:     cfg.LLM.MaxTokens,
			BulkMaxTokens: cfg.LLM.BulkMaxTokens,
		}, logger),
	})

	req := pipeline.ScanRequest{
		Filename: filepath.Base(*path),
		Content:  content,
	}

	var out any
	switch {
	case format == constants.PDF && *bulk:
		out, err = pipe.ScanPDFForms(ctx, req)
	case format == constants.PDF:
		out, err = pipe.ScanPDF(ctx, req)
	default:
		out, err = pipe.ScanImage(ctx, req)
	}
	if err != nil {
		logger.Error("scan failed", "stage", common.StageOf(err), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
