package readingorder

import (
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

func line(text string, xmin, ymin, xmax, ymax int) domain.TextLine {
	return domain.TextLine{
		Text:       text,
		Box:        domain.BoundingBox{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax},
		Confidence: 90,
	}
}

func TestReconstructOrdersRowsRegardlessOfInputOrder(t *testing.T) {
	lines := []domain.TextLine{
		line("Total:", 10, 60, 60, 80),
		line("$10", 70, 62, 100, 82),
		line("Number:", 10, 30, 70, 50),
		line("INV-1", 80, 31, 120, 51),
	}
	want := "Number: INV-1\nTotal: $10"

	perms := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, perm := range perms {
		input := make([]domain.TextLine, 0, len(perm))
		for _, idx := range perm {
			input = append(input, lines[idx])
		}
		if got := Reconstruct(input); got != want {
			t.Fatalf("perm %v: expected %q, got %q", perm, want, got)
		}
	}
}

func TestReconstructToleranceBoundary(t *testing.T) {
	// median height 20 -> tolerance 14
	merged := Reconstruct([]domain.TextLine{
		line("left", 0, 100, 40, 120),
		line("right", 50, 113, 90, 133),
	})
	if merged != "left right" {
		t.Fatalf("expected lines 13px apart to share a band, got %q", merged)
	}

	split := Reconstruct([]domain.TextLine{
		line("upper", 50, 100, 90, 120),
		line("lower", 0, 115, 40, 135),
	})
	if split != "upper\nlower" {
		t.Fatalf("expected lines 15px apart to split, got %q", split)
	}
}

func TestReconstructEmptyAndDegenerate(t *testing.T) {
	if got := Reconstruct(nil); got != "" {
		t.Fatalf("expected empty string for nil input, got %q", got)
	}
	if got := Reconstruct([]domain.TextLine{line("ghost", 10, 10, 10, 10)}); got != "ghost" {
		t.Fatalf("expected zero-area box to be kept, got %q", got)
	}
}

func TestReconstructWithoutHeightsSortsByPosition(t *testing.T) {
	got := Reconstruct([]domain.TextLine{
		line("c", 5, 20, 9, 20),
		line("b", 40, 10, 60, 10),
		line("a", 0, 10, 30, 10),
	})
	if got != "a\nb\nc" {
		t.Fatalf("expected one line per detection in (ymin, xmin) order, got %q", got)
	}
}

func TestReconstructBandsZeroHeightLinesWithOthers(t *testing.T) {
	// median of positive heights 20 -> tolerance 14
	got := Reconstruct([]domain.TextLine{
		line("flat", 50, 105, 80, 105),
		line("tall", 0, 100, 40, 120),
		line("next", 0, 140, 40, 160),
	})
	if got != "tall flat\nnext" {
		t.Fatalf("expected zero-height line to join its band, got %q", got)
	}
}

func TestReconstructSkipsMalformedBoxes(t *testing.T) {
	got := Reconstruct([]domain.TextLine{
		line("kept", 0, 0, 20, 10),
		line("inverted", 30, 10, 10, 0),
	})
	if got != "kept" {
		t.Fatalf("expected malformed box to be skipped, got %q", got)
	}
}

func TestReconstructRunningMinimumKeepsBandAnchor(t *testing.T) {
	// heights 10,10,10 -> tolerance 7; anchor stays at 0 so the third line splits
	got := Reconstruct([]domain.TextLine{
		line("a", 0, 0, 10, 10),
		line("b", 20, 6, 30, 16),
		line("c", 40, 12, 50, 22),
	})
	if got != "a b\nc" {
		t.Fatalf("expected band anchored at first ymin, got %q", got)
	}
}

func TestMedianEvenCount(t *testing.T) {
	if got := median([]float64{10, 30, 20, 40}); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
}
