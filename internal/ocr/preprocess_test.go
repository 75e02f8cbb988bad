package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 25), G: uint8(y * 25), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestImagePreprocessorEnhances(t *testing.T) {
	in := sampleJPEG(t, 10, 8)

	out, err := ImagePreprocessor{}.Process(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	// upscaled 1.5x
	assert.Equal(t, 15, decoded.Bounds().Dx())
	assert.Equal(t, 12, decoded.Bounds().Dy())
}

func TestImagePreprocessorRejectsGarbage(t *testing.T) {
	_, err := ImagePreprocessor{}.Process(context.Background(), []byte("not an image"))
	require.Error(t, err)
}

type fakeRunner struct {
	err    error
	called bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	f.called = true
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	// the command contract is `cmd <input> <output>`
	return nil, nil, os.WriteFile(args[len(args)-1], []byte("processed-bytes"), 0o644)
}

func TestCommandPreprocessor(t *testing.T) {
	runner := &fakeRunner{}
	p := &CommandPreprocessor{Command: "binarize --fast", TempDir: t.TempDir(), runner: runner}

	out, err := p.Process(context.Background(), []byte("raw"))
	require.NoError(t, err)
	assert.True(t, runner.called)
	assert.Equal(t, []byte("processed-bytes"), out)
}

func TestCommandPreprocessorFailure(t *testing.T) {
	p := &CommandPreprocessor{Command: "binarize", TempDir: t.TempDir(), runner: &fakeRunner{err: errors.New("exit 1")}}

	_, err := p.Process(context.Background(), []byte("raw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
