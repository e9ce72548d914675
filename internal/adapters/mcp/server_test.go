package mcpadapter

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

type ocrFake struct {
	gotImage  []byte
	gotEngine string
}

func (f *ocrFake) ExtractText(_ context.Context, image []byte, engine string) string {
	f.gotImage = image
	f.gotEngine = engine
	return "INVOICE 42"
}
func (f *ocrFake) Engines() []string     { return []string{"tesseract"} }
func (f *ocrFake) DefaultEngine() string { return "tesseract" }

type classifierFake struct{ gotFields []string }

func (f *classifierFake) Classify(_ context.Context, _ string, _ []byte, userFields []string) domain.ClassificationResult {
	f.gotFields = userFields
	return domain.ClassificationResult{DocType: "invoice", Fields: []string{"invoice_number"}, Outcome: domain.Parsed()}
}

type extractorFake struct{}

func (extractorFake) Extract(_ context.Context, fields []string, _ string, _ []byte) domain.ExtractionResult {
	return domain.ExtractionFilled(fields, "42", domain.Parsed())
}

type reviewerFake struct{ got domain.ExtractionResult }

func (f *reviewerFake) Review(_ context.Context, extracted domain.ExtractionResult, _ string, _ []byte) domain.ReviewResult {
	f.got = extracted
	return domain.NewReviewResult(extracted.Fields(), domain.FieldReview{Status: domain.ReviewPass}, domain.Parsed())
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func newTestTools() (*Tools, *ocrFake, *classifierFake, *reviewerFake) {
	ocr := &ocrFake{}
	cls := &classifierFake{}
	rev := &reviewerFake{}
	return NewTools(ocr, cls, extractorFake{}, rev, nil), ocr, cls, rev
}

func TestOCRToolDecodesBase64(t *testing.T) {
	tools, ocr, _, _ := newTestTools()
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	res, err := tools.OCR(context.Background(), callRequest(ToolOCR, map[string]any{
		"image_base64": encoded,
		"engine":       "tesseract",
	}))
	if err != nil {
		t.Fatalf("ocr tool: %v", err)
	}
	if got := resultText(t, res); got != "INVOICE 42" {
		t.Fatalf("unexpected text %q", got)
	}
	if string(ocr.gotImage) != "png-bytes" || ocr.gotEngine != "tesseract" {
		t.Fatalf("unexpected ocr call: %q %q", ocr.gotImage, ocr.gotEngine)
	}
}

func TestOCRToolReadsPath(t *testing.T) {
	tools, ocr, _, _ := newTestTools()
	tools.readFile = func(path string) ([]byte, error) {
		if path != "/tmp/invoice.png" {
			return nil, errors.New("missing")
		}
		return []byte("file-bytes"), nil
	}

	if _, err := tools.OCR(context.Background(), callRequest(ToolOCR, map[string]any{"image_path": "/tmp/invoice.png"})); err != nil {
		t.Fatalf("ocr tool: %v", err)
	}
	if string(ocr.gotImage) != "file-bytes" {
		t.Fatalf("unexpected image %q", ocr.gotImage)
	}

	res, err := tools.OCR(context.Background(), callRequest(ToolOCR, map[string]any{"image_path": "/nope"}))
	if err != nil {
		t.Fatalf("ocr tool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for unreadable path")
	}
}

func TestOCRToolRequiresImage(t *testing.T) {
	tools, _, _, _ := newTestTools()
	res, err := tools.OCR(context.Background(), callRequest(ToolOCR, map[string]any{}))
	if err != nil {
		t.Fatalf("ocr tool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error without image")
	}
}

func TestClassifyToolPassesUserFields(t *testing.T) {
	tools, _, cls, _ := newTestTools()
	res, err := tools.Classify(context.Background(), callRequest(ToolClassify, map[string]any{
		"text":   "INVOICE 42",
		"fields": []any{"total"},
	}))
	if err != nil {
		t.Fatalf("classify tool: %v", err)
	}
	if len(cls.gotFields) != 1 || cls.gotFields[0] != "total" {
		t.Fatalf("unexpected user fields %v", cls.gotFields)
	}
	if got := resultText(t, res); !strings.Contains(got, `"doc_type":"invoice"`) {
		t.Fatalf("unexpected result %s", got)
	}
}

func TestExtractToolRequiresFields(t *testing.T) {
	tools, _, _, _ := newTestTools()
	res, err := tools.Extract(context.Background(), callRequest(ToolExtract, map[string]any{"text": "x"}))
	if err != nil {
		t.Fatalf("extract tool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error without fields")
	}

	res, err = tools.Extract(context.Background(), callRequest(ToolExtract, map[string]any{
		"text":   "x",
		"fields": []any{"invoice_number"},
	}))
	if err != nil {
		t.Fatalf("extract tool: %v", err)
	}
	if got := resultText(t, res); got != `{"invoice_number":"42"}` {
		t.Fatalf("unexpected result %s", got)
	}
}

func TestReviewToolDecodesExtraction(t *testing.T) {
	tools, _, _, rev := newTestTools()
	res, err := tools.Review(context.Background(), callRequest(ToolReview, map[string]any{
		"text":      "INVOICE 42",
		"extracted": `{"invoice_number":"42","total":null}`,
	}))
	if err != nil {
		t.Fatalf("review tool: %v", err)
	}
	if got := rev.got.Fields(); len(got) != 2 || got[0] != "invoice_number" {
		t.Fatalf("unexpected extracted fields %v", got)
	}
	if got := resultText(t, res); !strings.Contains(got, `"PASS"`) {
		t.Fatalf("unexpected result %s", got)
	}

	res, err = tools.Review(context.Background(), callRequest(ToolReview, map[string]any{"extracted": "not json"}))
	if err != nil {
		t.Fatalf("review tool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for invalid extraction")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	tools, _, _, _ := newTestTools()
	if s := NewServer(tools, "test"); s == nil {
		t.Fatalf("expected server")
	}
}
