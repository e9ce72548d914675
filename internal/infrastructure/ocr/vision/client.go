// Package vision calls the Google Cloud Vision REST API for text detection.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/resilience"
)

const (
	Name            = "vision"
	DefaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"
)

type Config struct {
	Endpoint     string
	APIKey       string
	LanguageHint string
	Timeout      time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

// New builds a client whose calls run through executor. A nil executor gets
// the network OCR policy.
func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.NetworkOCRConfig())
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
		logger:     logger,
	}
}

func (c *Client) Name() string { return Name }

// Detect returns one line per detected paragraph. When every attempt fails
// the result is an empty list, not an error.
func (c *Client) Detect(ctx context.Context, image []byte) ([]domain.TextLine, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: vision API key is not configured", ports.ErrDetectorUnavailable)
	}

	var lines []domain.TextLine
	attempt := 0
	err := c.executor.Execute(ctx, "vision.annotate", func(callCtx context.Context) error {
		attempt++
		c.logger.Debug("ocr.vision.call", "attempt", attempt)
		result, err := c.annotate(callCtx, image)
		if err != nil {
			return err
		}
		lines = result
		return nil
	}, classifyVisionError)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.logger.Warn("ocr.vision.exhausted", "attempts", attempt, "error", err)
		return []domain.TextLine{}, nil
	}
	c.logger.Info("ocr.vision.done", "lines", len(lines), "attempts", attempt)
	return lines, nil
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image        imageContent `json:"image"`
	Features     []feature    `json:"features"`
	ImageContext imageContext `json:"imageContext"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

type imageContext struct {
	LanguageHints      []string           `json:"languageHints,omitempty"`
	TextDetectionParam textDetectionParam `json:"textDetectionParams"`
}

type textDetectionParam struct {
	EnableConfidence bool `json:"enableTextDetectionConfidenceScore"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Pages []page `json:"pages"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

type page struct {
	Blocks []struct {
		Paragraphs []paragraph `json:"paragraphs"`
	} `json:"blocks"`
}

type paragraph struct {
	BoundingBox struct {
		Vertices []vertex `json:"vertices"`
	} `json:"boundingBox"`
	Words []struct {
		Confidence float64 `json:"confidence"`
		Symbols    []struct {
			Text string `json:"text"`
		} `json:"symbols"`
	} `json:"words"`
}

// vertex coordinates are omitted by the API when zero.
type vertex struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// APIError is an error reported inside a 200 response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision api error %d: %s", e.Code, e.Message)
}

func (c *Client) annotate(ctx context.Context, image []byte) ([]domain.TextLine, error) {
	reqBody := annotateRequest{Requests: []imageRequest{{
		Image:    imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []feature{{Type: "TEXT_DETECTION"}},
		ImageContext: imageContext{
			TextDetectionParam: textDetectionParam{EnableConfidence: true},
		},
	}}}
	if c.cfg.LanguageHint != "" {
		reqBody.Requests[0].ImageContext.LanguageHints = []string{c.cfg.LanguageHint}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision annotate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, resilience.StatusError("vision annotate", resp)
	}

	var out annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode annotate response: %w", err)
	}
	if len(out.Responses) == 0 {
		return []domain.TextLine{}, nil
	}
	first := out.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return nil, &APIError{Code: first.Error.Code, Message: first.Error.Message}
	}
	if first.FullTextAnnotation == nil || len(first.FullTextAnnotation.Pages) == 0 {
		return []domain.TextLine{}, nil
	}
	return paragraphLines(first.FullTextAnnotation.Pages[0]), nil
}

// paragraphLines turns each paragraph of the first page into a line.
func paragraphLines(p page) []domain.TextLine {
	lines := make([]domain.TextLine, 0)
	for _, block := range p.Blocks {
		for _, para := range block.Paragraphs {
			texts := make([]string, 0, len(para.Words))
			var confSum float64
			confCount := 0
			for _, w := range para.Words {
				var sb strings.Builder
				for _, s := range w.Symbols {
					sb.WriteString(s.Text)
				}
				texts = append(texts, sb.String())
				if w.Confidence > 0 {
					confSum += w.Confidence
					confCount++
				}
			}
			text := strings.TrimSpace(strings.Join(texts, " "))
			if text == "" {
				continue
			}
			box, ok := verticesToBox(para.BoundingBox.Vertices)
			if !ok {
				continue
			}
			confidence := 0.0
			if confCount > 0 {
				confidence = confSum / float64(confCount) * 100
			}
			lines = append(lines, domain.TextLine{Text: text, Box: box, Confidence: confidence})
		}
	}
	return lines
}

func verticesToBox(vertices []vertex) (domain.BoundingBox, bool) {
	var xs, ys []int
	for _, v := range vertices {
		// an omitted coordinate is zero
		x, y := 0, 0
		if v.X != nil {
			x = *v.X
		}
		if v.Y != nil {
			y = *v.Y
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return domain.BoundingBox{}, false
	}
	box := domain.BoundingBox{XMin: xs[0], YMin: ys[0], XMax: xs[0], YMax: ys[0]}
	for i := range xs {
		box.XMin = min(box.XMin, xs[i])
		box.XMax = max(box.XMax, xs[i])
		box.YMin = min(box.YMin, ys[i])
		box.YMax = max(box.YMax, ys[i])
	}
	return box, box.Valid()
}

func classifyVisionError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	// Any other failure is treated as transient, including API-level errors.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
