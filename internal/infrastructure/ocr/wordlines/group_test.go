package wordlines

import (
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

func word(block, par, line int, text string, conf float64, xmin, ymin, xmax, ymax int) Word {
	return Word{
		Block: block, Paragraph: par, Line: line,
		Text: text, Confidence: conf,
		Box: domain.BoundingBox{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax},
	}
}

func TestGroupBuildsLinesFromWords(t *testing.T) {
	lines := Group([]Word{
		word(1, 1, 1, "INV-1", 90, 90, 41, 140, 60),
		word(1, 1, 1, "Number:", 80, 10, 40, 80, 58),
		word(1, 1, 2, "Total:", 95, 10, 80, 60, 98),
		word(1, 1, 2, "smudge", 12, 70, 80, 90, 98),
		word(1, 1, 2, "  ", 99, 95, 80, 99, 98),
	}, DefaultMinConfidence)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	first := lines[0]
	if first.Text != "Number: INV-1" {
		t.Fatalf("expected words ordered by x, got %q", first.Text)
	}
	want := domain.BoundingBox{XMin: 10, YMin: 40, XMax: 140, YMax: 60}
	if first.Box != want {
		t.Fatalf("expected union box %+v, got %+v", want, first.Box)
	}
	if first.Confidence != 85 {
		t.Fatalf("expected mean confidence 85, got %v", first.Confidence)
	}
	if lines[1].Text != "Total:" {
		t.Fatalf("expected low-confidence and blank words dropped, got %q", lines[1].Text)
	}
}

func TestGroupSeparatesBlocksWithSameLineNumber(t *testing.T) {
	lines := Group([]Word{
		word(1, 1, 1, "left", 90, 0, 0, 40, 10),
		word(2, 1, 1, "right", 90, 200, 0, 240, 10),
	}, DefaultMinConfidence)
	if len(lines) != 2 {
		t.Fatalf("expected separate lines per block, got %+v", lines)
	}
}

func TestGroupSkipsDegenerateLines(t *testing.T) {
	lines := Group([]Word{word(1, 1, 1, "dot", 90, 5, 5, 5, 5)}, DefaultMinConfidence)
	if len(lines) != 0 {
		t.Fatalf("expected degenerate line to be skipped, got %+v", lines)
	}
}
