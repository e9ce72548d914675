// Package tesseractcli drives the tesseract executable and parses its TSV output.
package tesseractcli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/wordlines"
)

const Name = "tesseract-cli"

type Config struct {
	Binary        string
	Language      string
	PageSegMode   int
	TessdataDir   string
	MinConfidence float64
}

type Detector struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PageSegMode <= 0 {
		cfg.PageSegMode = 6
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = wordlines.DefaultMinConfidence
	}
	return &Detector{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

func (d *Detector) Name() string { return Name }

func (d *Detector) Detect(ctx context.Context, image []byte) ([]domain.TextLine, error) {
	tmp, err := os.CreateTemp("", "docai-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp image: %w", err)
	}

	args := []string{tmp.Name(), "stdout", "--psm", strconv.Itoa(d.cfg.PageSegMode), "-l", d.cfg.Language}
	if d.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", d.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := d.runner.Run(ctx, d.cfg.Binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ports.ErrDetectorUnavailable, err)
		}
		detail := strings.TrimSpace(string(errb))
		if detail == "" {
			return nil, fmt.Errorf("tesseract: %w", err)
		}
		return nil, fmt.Errorf("tesseract: %w: %s", err, truncate(detail, 512))
	}

	words := ParseTSV(string(out))
	d.logger.Debug("ocr.tesseract_cli.parsed", "words", len(words))
	return wordlines.Group(words, d.cfg.MinConfidence), nil
}

// tsv columns: level page_num block_num par_num line_num word_num left top width height conf text
const tsvColumns = 12

// ParseTSV reads word rows (level 5) from tesseract TSV output.
func ParseTSV(out string) []wordlines.Word {
	var words []wordlines.Word
	for i, ln := range strings.Split(out, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.SplitN(ln, "\t", tsvColumns)
		if len(cols) < tsvColumns || cols[0] != "5" {
			continue
		}
		nums := make([]int, 0, 8)
		for _, c := range cols[2:10] {
			n, err := strconv.Atoi(c)
			if err != nil {
				break
			}
			nums = append(nums, n)
		}
		if len(nums) != 8 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			continue
		}
		left, top, width, height := nums[4], nums[5], nums[6], nums[7]
		words = append(words, wordlines.Word{
			Block:      nums[0],
			Paragraph:  nums[1],
			Line:       nums[2],
			Text:       cols[11],
			Confidence: conf,
			Box: domain.BoundingBox{
				XMin: left,
				YMin: top,
				XMax: left + width,
				YMax: top + height,
			},
		})
	}
	return words
}
