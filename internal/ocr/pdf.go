package ocr

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// DefaultMaxPDFPages bounds how much of an uploaded PDF is read. The
// monthly report template is three pages; anything past that is
// attachments.
const DefaultMaxPDFPages = 3

// PDFExtractor pulls native text out of digital PDFs. Scanned PDFs
// without a text layer come back (near-)empty, which downstream treats
// the same as an empty OCR result.
type PDFExtractor struct {
	MaxPages int
}

func NewPDFExtractor(maxPages int) *PDFExtractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPDFPages
	}
	return &PDFExtractor{MaxPages: maxPages}
}

// ExtractText returns the text of the first MaxPages pages joined by
// blank lines.
func (e *PDFExtractor) ExtractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n > e.MaxPages {
		n = e.MaxPages
	}

	var pages []string
	for i := 0; i < n; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("pdf page %d text: %w", i, err)
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
