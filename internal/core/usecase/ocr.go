package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/core/readingorder"
)

const (
	OCRErrorPrefix = "OCR ERROR:"
	OCRInfoPrefix  = "OCR INFO:"
)

// IsOCRError reports whether ExtractText failed.
func IsOCRError(text string) bool {
	return strings.HasPrefix(text, OCRErrorPrefix)
}

// IsOCRInfo reports whether ExtractText ran but found no text.
func IsOCRInfo(text string) bool {
	return strings.HasPrefix(text, OCRInfoPrefix)
}

// OCRService dispatches images to registered line detectors and returns
// reading-order text. Failures never cross this boundary as Go errors.
type OCRService struct {
	detectors     map[string]ports.LineDetector
	defaultEngine string
	logger        *slog.Logger
}

func NewOCRService(defaultEngine string, logger *slog.Logger, detectors ...ports.LineDetector) *OCRService {
	if logger == nil {
		logger = slog.Default()
	}
	registry := make(map[string]ports.LineDetector, len(detectors))
	for _, d := range detectors {
		if d == nil {
			continue
		}
		registry[d.Name()] = d
	}
	return &OCRService{
		detectors:     registry,
		defaultEngine: strings.TrimSpace(defaultEngine),
		logger:        logger,
	}
}

func (s *OCRService) Engines() []string {
	names := make([]string, 0, len(s.detectors))
	for name := range s.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *OCRService) DefaultEngine() string {
	return s.defaultEngine
}

func (s *OCRService) ExtractText(ctx context.Context, image []byte, engine string) (text string) {
	engine = strings.TrimSpace(engine)
	if engine == "" {
		engine = s.defaultEngine
	}
	detector, ok := s.detectors[engine]
	if !ok {
		return fmt.Sprintf("%s unknown OCR engine %q (available: %s)", OCRErrorPrefix, engine, strings.Join(s.Engines(), ", "))
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ocr.extract.panic", "engine", engine, "panic", r)
			text = fmt.Sprintf("%s %s failed: %v", OCRErrorPrefix, engine, r)
		}
	}()

	s.logger.Debug("ocr.extract.start", "engine", engine, "bytes", len(image))
	lines, err := detector.Detect(ctx, image)
	if err != nil {
		s.logger.Warn("ocr.extract.error", "engine", engine, "error", err)
		if errors.Is(err, ports.ErrDetectorUnavailable) {
			return fmt.Sprintf("%s %s is not available: %v", OCRErrorPrefix, engine, err)
		}
		return fmt.Sprintf("%s %s failed: %v", OCRErrorPrefix, engine, err)
	}

	text = readingorder.Reconstruct(lines)
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("%s no text detected by %s", OCRInfoPrefix, engine)
	}
	s.logger.Debug("ocr.extract.done", "engine", engine, "lines", len(lines), "chars", len(text))
	return text
}
