package ocr

import (
	"sort"
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// LineProximity is the vertical distance (in image units) under which
// two words belong to the same output line. Tuned against the paper F4
// form layout; changing it reorders table rows.
const LineProximity = 15

// WordBox is one recognized word anchored at the top-left vertex of its
// bounding polygon.
type WordBox struct {
	Text string
	X    int32
	Y    int32
}

// TextLine is an accumulation of word boxes sharing a row.
type TextLine struct {
	Y    int32
	Text string
}

// FlattenWords walks the annotation tree (pages → blocks → paragraphs →
// words → symbols) and emits one WordBox per word, concatenating its
// symbols and anchoring at the first bounding vertex.
func FlattenWords(ann *visionpb.TextAnnotation) []WordBox {
	var words []WordBox
	if ann == nil {
		return words
	}
	for _, page := range ann.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, para := range block.GetParagraphs() {
				for _, word := range para.GetWords() {
					var sb strings.Builder
					for _, sym := range word.GetSymbols() {
						sb.WriteString(sym.GetText())
					}
					var x, y int32
					if verts := word.GetBoundingBox().GetVertices(); len(verts) > 0 {
						x = verts[0].GetX()
						y = verts[0].GetY()
					}
					words = append(words, WordBox{Text: sb.String(), X: x, Y: y})
				}
			}
		}
	}
	return words
}

// GroupIntoLines sorts word boxes top-to-bottom then left-to-right and
// folds them into lines. Membership is decided greedily against the
// currently open line only: a word joins it iff |y - lineY| <
// LineProximity, otherwise it starts a new line at its own y.
func GroupIntoLines(words []WordBox) []TextLine {
	sorted := make([]WordBox, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []TextLine
	for _, w := range sorted {
		if n := len(lines); n > 0 && abs32(lines[n-1].Y-w.Y) < LineProximity {
			lines[n-1].Text += " " + w.Text
			continue
		}
		lines = append(lines, TextLine{Y: w.Y, Text: w.Text})
	}
	return lines
}

// ReconstructLayout turns a full OCR annotation into reading-order text,
// one reconstructed row per line. An empty or nil annotation yields the
// empty string; callers treat that as "no text detected", not an error.
func ReconstructLayout(ann *visionpb.TextAnnotation) string {
	lines := GroupIntoLines(FlattenWords(ann))
	if len(lines) == 0 {
		return ""
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
