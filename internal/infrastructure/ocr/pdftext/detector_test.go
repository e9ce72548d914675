package pdftext

import (
	"context"
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"
)

func glyphs(s string, x, y, size float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{S: string(r), X: x, Y: y, W: size * 0.5, FontSize: size})
		x += size * 0.5
	}
	return out
}

func TestRowLinesGroupsGlyphsByBaseline(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, glyphs("Total", 72, 600, 10)...)
	texts = append(texts, glyphs("INV-1", 200, 700, 10)...)
	texts = append(texts, glyphs("Invoice", 72, 700, 10)...)

	lines := RowLines(texts, 792, 0)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].Text != "Invoice INV-1" || lines[1].Text != "Total" {
		t.Fatalf("unexpected line texts %q %q", lines[0].Text, lines[1].Text)
	}
	if lines[0].Box.YMin != 82 || lines[0].Box.YMax != 92 {
		t.Fatalf("expected flipped y coordinates, got %+v", lines[0].Box)
	}
	if lines[0].Confidence != 100 {
		t.Fatalf("expected confidence 100, got %v", lines[0].Confidence)
	}
}

func TestRowLinesOffsetsLaterPages(t *testing.T) {
	lines := RowLines(glyphs("Page two", 72, 700, 10), 792, 792)
	if len(lines) != 1 || lines[0].Box.YMin != 792+82 {
		t.Fatalf("expected page offset applied, got %+v", lines)
	}
}

func TestDetectRejectsNonPDF(t *testing.T) {
	_, err := NewDetector(0).Detect(context.Background(), []byte("\x89PNG"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}
