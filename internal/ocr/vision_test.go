package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var _ Annotator = (*VisionAnnotator)(nil)

func TestNewVisionAnnotatorRejectsBadCredentials(t *testing.T) {
	_, err := NewVisionAnnotator(context.Background(), []byte("not-json"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "vision client")
}
