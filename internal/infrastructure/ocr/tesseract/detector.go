// Package tesseract runs Tesseract in-process through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/wordlines"
)

const Name = "tesseract"

type Config struct {
	Languages     []string
	PageSegMode   int
	MinConfidence float64
}

func DefaultConfig() Config {
	return Config{
		Languages:     []string{"eng"},
		PageSegMode:   int(gosseract.PSM_SINGLE_BLOCK),
		MinConfidence: wordlines.DefaultMinConfidence,
	}
}

// client is the subset of *gosseract.Client the detector drives.
type client interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	GetBoundingBoxesVerbose() ([]gosseract.BoundingBox, error)
	Close() error
}

type Detector struct {
	cfg           Config
	clientFactory func() client
}

func NewDetector(cfg Config) *Detector {
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultConfig().Languages
	}
	return &Detector{
		cfg:           cfg,
		clientFactory: func() client { return gosseract.NewClient() },
	}
}

func (d *Detector) Name() string { return Name }

func (d *Detector) Detect(ctx context.Context, image []byte) ([]domain.TextLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := d.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(d.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(d.cfg.PageSegMode)); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		if isInitError(err) {
			return nil, fmt.Errorf("%w: %v", ports.ErrDetectorUnavailable, err)
		}
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	words := make([]wordlines.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, wordlines.Word{
			Block:      b.BlockNum,
			Paragraph:  b.ParNum,
			Line:       b.LineNum,
			Text:       b.Word,
			Confidence: b.Confidence,
			Box: domain.BoundingBox{
				XMin: b.Box.Min.X,
				YMin: b.Box.Min.Y,
				XMax: b.Box.Max.X,
				YMax: b.Box.Max.Y,
			},
		})
	}
	return wordlines.Group(words, d.cfg.MinConfidence), nil
}

// isInitError detects missing traineddata or a broken libtesseract install.
func isInitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "initialize") || strings.Contains(msg, "tessdata")
}
