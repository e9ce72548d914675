// Package pdftext reads the embedded text layer of PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

const Name = "pdf-text"

// letterHeight is used when a page carries no MediaBox.
const letterHeight = 792.0

var ErrNotPDF = errors.New("document is not a PDF")

// IsPDF sniffs the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}

type Detector struct {
	maxPages int
}

// NewDetector reads at most maxPages pages; zero reads all of them.
func NewDetector(maxPages int) *Detector {
	return &Detector{maxPages: maxPages}
}

func (d *Detector) Name() string { return Name }

// Detect returns one line per text row. Pages are stacked top to bottom in
// one coordinate space so reading order spans pages.
func (d *Detector) Detect(ctx context.Context, data []byte) (lines []domain.TextLine, err error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		// the parser panics on malformed content streams
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("read pdf content: %v", r)
		}
	}()

	pages := reader.NumPage()
	if d.maxPages > 0 && pages > d.maxPages {
		pages = d.maxPages
	}
	offset := 0.0
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		height := pageHeight(page)
		lines = append(lines, RowLines(page.Content().Text, height, offset)...)
		offset += height
	}
	return lines, nil
}

func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.IsNull() {
		box = page.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	return letterHeight
}

// RowLines groups glyph runs sharing a baseline into lines and flips the PDF
// bottom-left origin to image coordinates shifted down by offset.
func RowLines(texts []pdf.Text, pageHeight, offset float64) []domain.TextLine {
	rows := make(map[int][]pdf.Text)
	keys := make([]int, 0)
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		key := int(math.Round(t.Y))
		if _, ok := rows[key]; !ok {
			keys = append(keys, key)
		}
		rows[key] = append(rows[key], t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	lines := make([]domain.TextLine, 0, len(keys))
	for _, key := range keys {
		row := rows[key]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var sb strings.Builder
		xmin, xmax := row[0].X, row[0].X+row[0].W
		size := 0.0
		prevEnd := row[0].X
		for i, t := range row {
			if i > 0 && t.X-prevEnd > 0.2*t.FontSize && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.S)
			prevEnd = t.X + t.W
			xmin = math.Min(xmin, t.X)
			xmax = math.Max(xmax, t.X+t.W)
			size = math.Max(size, t.FontSize)
		}
		text := strings.Join(strings.Fields(sb.String()), " ")
		if text == "" {
			continue
		}
		if size <= 0 {
			size = 1
		}
		baseline := float64(key)
		box := domain.BoundingBox{
			XMin: int(math.Floor(xmin)),
			YMin: int(math.Floor(offset + pageHeight - baseline - size)),
			XMax: int(math.Ceil(xmax)),
			YMax: int(math.Ceil(offset + pageHeight - baseline)),
		}
		if box.XMax <= box.XMin {
			box.XMax = box.XMin + 1
		}
		lines = append(lines, domain.TextLine{Text: text, Box: box, Confidence: 100})
	}
	return lines
}
