// Package wordlines assembles word-level OCR detections into text lines.
package wordlines

import (
	"sort"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// DefaultMinConfidence drops words Tesseract is unsure about.
const DefaultMinConfidence = 30

// Word is one recognized word with its layout position.
type Word struct {
	Block      int
	Paragraph  int
	Line       int
	Text       string
	Confidence float64
	Box        domain.BoundingBox
}

type lineKey struct {
	block, paragraph, line int
}

// Group keeps words with confidence above minConfidence, groups them by
// (block, paragraph, line), orders each line left to right and averages the
// word confidences. Lines keep the order in which they first appear.
func Group(words []Word, minConfidence float64) []domain.TextLine {
	order := make([]lineKey, 0)
	groups := make(map[lineKey][]Word)
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" || w.Confidence <= minConfidence {
			continue
		}
		key := lineKey{w.Block, w.Paragraph, w.Line}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], w)
	}

	lines := make([]domain.TextLine, 0, len(order))
	for _, key := range order {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Box.XMin < members[j].Box.XMin
		})

		texts := make([]string, 0, len(members))
		box := members[0].Box
		var confSum float64
		for _, w := range members {
			texts = append(texts, w.Text)
			box = union(box, w.Box)
			confSum += w.Confidence
		}
		mean := confSum / float64(len(members))
		if !box.Valid() || mean <= 0 {
			continue
		}
		lines = append(lines, domain.TextLine{
			Text:       strings.Join(texts, " "),
			Box:        box,
			Confidence: mean,
		})
	}
	return lines
}

func union(a, b domain.BoundingBox) domain.BoundingBox {
	return domain.BoundingBox{
		XMin: min(a.XMin, b.XMin),
		YMin: min(a.YMin, b.YMin),
		XMax: max(a.XMax, b.XMax),
		YMax: max(a.YMax, b.YMax),
	}
}
