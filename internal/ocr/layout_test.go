package ocr

import (
	"strings"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
)

func annotationFromWords(words []WordBox) *visionpb.TextAnnotation {
	pbWords := make([]*visionpb.Word, 0, len(words))
	for _, w := range words {
		symbols := make([]*visionpb.Symbol, 0, len(w.Text))
		for _, r := range w.Text {
			symbols = append(symbols, &visionpb.Symbol{Text: string(r)})
		}
		pbWords = append(pbWords, &visionpb.Word{
			Symbols: symbols,
			BoundingBox: &visionpb.BoundingPoly{
				Vertices: []*visionpb.Vertex{{X: w.X, Y: w.Y}},
			},
		})
	}
	return &visionpb.TextAnnotation{
		Pages: []*visionpb.Page{{
			Blocks: []*visionpb.Block{{
				Paragraphs: []*visionpb.Paragraph{{Words: pbWords}},
			}},
		}},
	}
}

func TestReconstructLayoutGroupsRows(t *testing.T) {
	ann := annotationFromWords([]WordBox{
		{Text: "Hello", X: 0, Y: 10},
		{Text: "World", X: 50, Y: 12},
		{Text: "Next", X: 0, Y: 40},
	})
	assert.Equal(t, "Hello World\nNext", ReconstructLayout(ann))
}

func TestReconstructLayoutOrdersWithinLine(t *testing.T) {
	// Words arrive out of reading order. Within a merged line the order
	// is the global (y, x) sort order, not strict x order: words at
	// different y keep their y precedence even after folding into one
	// line.
	ann := annotationFromWords([]WordBox{
		{Text: "Amount", X: 120, Y: 11},
		{Text: "Item", X: 0, Y: 10},
		{Text: "Qty", X: 60, Y: 13},
	})
	assert.Equal(t, "Item Amount Qty", ReconstructLayout(ann))
}

func TestGroupIntoLinesGreedyAgainstOpenLineOnly(t *testing.T) {
	// y=0 and y=14 merge. y=28 is within 15 of the last appended word
	// but the open line keeps its first word's y as the anchor, so it
	// starts a new line.
	lines := GroupIntoLines([]WordBox{
		{Text: "a", X: 0, Y: 0},
		{Text: "b", X: 10, Y: 14},
		{Text: "c", X: 20, Y: 28},
	})
	assert.Len(t, lines, 2)
	assert.Equal(t, "a b", lines[0].Text)
	assert.Equal(t, "c", lines[1].Text)
}

func TestGroupIntoLinesBoundary(t *testing.T) {
	// Exactly 15 apart starts a new line; the threshold is strict.
	lines := GroupIntoLines([]WordBox{
		{Text: "top", X: 0, Y: 10},
		{Text: "bottom", X: 0, Y: 25},
	})
	assert.Len(t, lines, 2)
}

func TestReconstructLayoutEmpty(t *testing.T) {
	assert.Equal(t, "", ReconstructLayout(nil))
	assert.Equal(t, "", ReconstructLayout(&visionpb.TextAnnotation{}))
}

func TestFlattenWordsConcatenatesSymbols(t *testing.T) {
	ann := annotationFromWords([]WordBox{{Text: "مبلغ", X: 5, Y: 7}})
	words := FlattenWords(ann)
	assert.Len(t, words, 1)
	assert.Equal(t, "مبلغ", words[0].Text)
	assert.Equal(t, int32(5), words[0].X)
	assert.Equal(t, int32(7), words[0].Y)
}

func TestReconstructLayoutOrderProperty(t *testing.T) {
	// For words A, B with |A.y-B.y| < 15 and A.x < B.x, A precedes B on
	// the same line.
	ann := annotationFromWords([]WordBox{
		{Text: "B", X: 90, Y: 102},
		{Text: "A", X: 10, Y: 100},
	})
	out := ReconstructLayout(ann)
	line := strings.Split(out, "\n")[0]
	assert.Less(t, strings.Index(line, "A"), strings.Index(line, "B"))
}
