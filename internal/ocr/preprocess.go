package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Preprocessor normalizes an uploaded photo before OCR: bytes in,
// cleaned-up bytes out.
type Preprocessor interface {
	Process(ctx context.Context, image []byte) ([]byte, error)
}

// ImagePreprocessor is the native implementation: grayscale, upscale,
// and contrast/sharpen enhancement of phone photos of paper forms.
type ImagePreprocessor struct{}

func (ImagePreprocessor) Process(_ context.Context, data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Grayscale(src)

	// Upscale 1.5x; small handwriting resolves noticeably better.
	w := src.Bounds().Dx() * 3 / 2
	h := src.Bounds().Dy() * 3 / 2
	img = imaging.Resize(img, w, h, imaging.Linear)

	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// CommandPreprocessor shells out to an external preprocessing command
// invoked as `cmd <input> <output>`, for deployments that keep the
// OpenCV-based binarizer around.
type CommandPreprocessor struct {
	Command string
	TempDir string
	runner  Runner
}

func NewCommandPreprocessor(command, tempDir string) *CommandPreprocessor {
	return &CommandPreprocessor{Command: command, TempDir: tempDir, runner: execRunner{}}
}

func (p *CommandPreprocessor) Process(ctx context.Context, data []byte) ([]byte, error) {
	in, err := os.CreateTemp(p.TempDir, "preprocess-in-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("temp input: %w", err)
	}
	defer func() { _ = os.Remove(in.Name()) }()

	if _, err := in.Write(data); err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close temp input: %w", err)
	}

	outPath := strings.TrimSuffix(in.Name(), filepath.Ext(in.Name())) + "-out.jpg"
	defer func() { _ = os.Remove(outPath) }()

	parts := strings.Fields(p.Command)
	args := append(parts[1:], in.Name(), outPath)
	if _, stderr, err := p.runner.Run(ctx, parts[0], args...); err != nil {
		return nil, fmt.Errorf("preprocess command: %w (stderr: %s)", err, truncate(string(stderr), 512))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read preprocessed output: %w", err)
	}
	return out, nil
}
