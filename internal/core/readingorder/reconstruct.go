// Package readingorder turns unordered OCR line detections into reading-order text.
package readingorder

import (
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// ToleranceFactor scales the median line height into the band tolerance.
const ToleranceFactor = 0.7

// Reconstruct groups lines into horizontal bands top to bottom and joins each
// band left to right. Lines with inverted box corners are skipped. When no
// line has a positive height the lines are ordered by (ymin, xmin) instead.
func Reconstruct(lines []domain.TextLine) string {
	valid := make([]domain.TextLine, 0, len(lines))
	heights := make([]float64, 0, len(lines))
	for _, line := range lines {
		if !line.Box.WellFormed() {
			continue
		}
		valid = append(valid, line)
		if h := line.Box.Height(); h > 0 {
			heights = append(heights, float64(h))
		}
	}
	if len(valid) == 0 {
		return ""
	}
	if len(heights) == 0 {
		return joinByPosition(valid)
	}

	tolerance := ToleranceFactor * median(heights)
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Box.YMin < valid[j].Box.YMin
	})

	var bands [][]domain.TextLine
	var current []domain.TextLine
	bandRef := 0
	for _, line := range valid {
		if len(current) == 0 {
			current = []domain.TextLine{line}
			bandRef = line.Box.YMin
			continue
		}
		if math.Abs(float64(line.Box.YMin-bandRef)) > tolerance {
			bands = append(bands, current)
			current = []domain.TextLine{line}
			bandRef = line.Box.YMin
			continue
		}
		current = append(current, line)
		if line.Box.YMin < bandRef {
			bandRef = line.Box.YMin
		}
	}
	bands = append(bands, current)

	out := make([]string, 0, len(bands))
	for _, band := range bands {
		sort.SliceStable(band, func(i, j int) bool {
			return band[i].Box.XMin < band[j].Box.XMin
		})
		words := make([]string, 0, len(band))
		for _, line := range band {
			words = append(words, line.Text)
		}
		out = append(out, strings.Join(words, " "))
	}
	return strings.Join(out, "\n")
}

// joinByPosition orders lines by (ymin, xmin) without banding.
func joinByPosition(lines []domain.TextLine) string {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Box.YMin != lines[j].Box.YMin {
			return lines[i].Box.YMin < lines[j].Box.YMin
		}
		return lines[i].Box.XMin < lines[j].Box.XMin
	})
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		texts = append(texts, line.Text)
	}
	return strings.Join(texts, "\n")
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
