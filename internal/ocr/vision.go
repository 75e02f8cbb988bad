// Package ocr turns uploaded documents into reading-order text: a
// Google Vision client for the OCR call itself, layout reconstruction
// for its annotation tree, image preprocessing, and PDF text
// extraction.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Annotator is the OCR provider seam the pipeline depends on.
type Annotator interface {
	AnnotateDocument(ctx context.Context, image []byte, languageHints []string) (*visionpb.TextAnnotation, error)
	Close() error
}

// VisionAnnotator wraps the Google Vision image annotator.
type VisionAnnotator struct {
	client *vision.ImageAnnotatorClient
	logger *slog.Logger
}

// NewVisionAnnotator builds an annotator from raw service-account JSON,
// the same credential shape the deploy environment carries.
func NewVisionAnnotator(ctx context.Context, credentialsJSON []byte, logger *slog.Logger) (*VisionAnnotator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionAnnotator{client: client, logger: logger}, nil
}

// AnnotateDocument runs document text detection on the image bytes. A
// document with no detectable text returns a nil annotation and no
// error.
func (a *VisionAnnotator) AnnotateDocument(ctx context.Context, image []byte, languageHints []string) (*visionpb.TextAnnotation, error) {
	start := time.Now()

	img := &visionpb.Image{Content: image}
	ictx := &visionpb.ImageContext{LanguageHints: languageHints}

	ann, err := a.client.DetectDocumentText(ctx, img, ictx)
	if err != nil {
		a.logger.Error("ocr.annotate.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("document text detection: %w", err)
	}

	a.logger.Debug("ocr.annotate.ok",
		"pages", len(ann.GetPages()),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ann, nil
}

func (a *VisionAnnotator) Close() error {
	return a.client.Close()
}
