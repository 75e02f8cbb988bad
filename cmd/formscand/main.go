package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sudanerr/formscan/internal/common"
	"github.com/sudanerr/formscan/internal/export"
	"github.com/sudanerr/formscan/internal/llm"
	"github.com/sudanerr/formscan/internal/llm/openai"
	"github.com/sudanerr/formscan/internal/ocr"
	"github.com/sudanerr/formscan/internal/pipeline"
	"github.com/sudanerr/formscan/internal/prompt"
	"github.com/sudanerr/formscan/internal/repository"
	"github.com/sudanerr/formscan/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.HealthTimeout, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	annotator, err := ocr.NewVisionAnnotator(ctx, []byte(cfg.Vision.CredentialsJSON), logger)
	if err != nil {
		logger.Error("failed to create vision client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = annotator.Close() }()

	store, err := repository.NewS3Store(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create object store", "error", err)
		os.Exit(1)
	}

	completer := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	extractor := llm.NewReportExtractor(completer, llm.Options{
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		BulkMaxTokens: cfg.LLM.BulkMaxTokens,
	}, logger)

	var preprocessor ocr.Preprocessor = ocr.ImagePreprocessor{}
	if cfg.Scan.PreprocessMode == "command" {
		preprocessor = ocr.NewCommandPreprocessor(cfg.Scan.PreprocessCmd, cfg.Scan.TempDir)
	}

	reports := repository.NewReportRepository(pool, logger)
	pipe := pipeline.New(pipeline.Pipeline{
		Logger:       logger,
		Cfg:          pipeline.Config{StageTimeout: cfg.Scan.StageTimeout},
		Preprocessor: preprocessor,
		Annotator:    annotator,
		PDF:          ocr.NewPDFExtractor(cfg.Scan.MaxPDFPages),
		Prompts:      prompt.NewBuilder(cfg.Scan.TemplatesDir),
		Extractor:    extractor,
		Projects:     repository.NewProjectRepository(pool, logger),
		Reports:      reports,
		Store:        store,
	})

	srv := server.New(server.Config{
		MaxUploadBytes: cfg.Scan.MaxUploadBytes,
		TempDir:        cfg.Scan.TempDir,
	}, pipe, export.NewService(reports, logger), func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, cfg.Database.HealthTimeout, logger)
	}, logger)

	httpServer := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     srv.Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		logger.Info("formscand listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
