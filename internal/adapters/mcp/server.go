// Package mcpadapter exposes the pipeline stages as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

const (
	ServerName = "document-ai-agent"

	ToolOCR      = "ocr_extract_text"
	ToolClassify = "classify_document"
	ToolExtract  = "extract_fields"
	ToolReview   = "review_fields"
)

type Tools struct {
	ocr        ports.TextExtractor
	classifier ports.DocumentClassifier
	extractor  ports.FieldExtractor
	reviewer   ports.FieldReviewer
	readFile   func(string) ([]byte, error)
	logger     *slog.Logger
}

func NewTools(
	ocr ports.TextExtractor,
	classifier ports.DocumentClassifier,
	extractor ports.FieldExtractor,
	reviewer ports.FieldReviewer,
	logger *slog.Logger,
) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		ocr:        ocr,
		classifier: classifier,
		extractor:  extractor,
		reviewer:   reviewer,
		readFile:   os.ReadFile,
		logger:     logger,
	}
}

// NewServer registers all four tools on a fresh MCP server.
func NewServer(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))

	imageArgs := []mcp.ToolOption{
		mcp.WithString("image_path", mcp.Description("Path of the document image on the server host.")),
		mcp.WithString("image_base64", mcp.Description("Base64 encoded document image; used when image_path is empty.")),
	}

	s.AddTool(mcp.NewTool(ToolOCR, append([]mcp.ToolOption{
		mcp.WithDescription("Run OCR over a document image and return its text in reading order."),
		mcp.WithString("engine", mcp.Description("OCR engine name; the default engine is used when empty.")),
	}, imageArgs...)...), tools.OCR)

	s.AddTool(mcp.NewTool(ToolClassify, append([]mcp.ToolOption{
		mcp.WithDescription("Classify a document and suggest the fields to extract."),
		mcp.WithString("text", mcp.Description("OCR text of the document.")),
		mcp.WithArray("fields", mcp.Description("Fields chosen by the user; they replace the suggestion."),
			mcp.Items(map[string]any{"type": "string"})),
	}, imageArgs...)...), tools.Classify)

	s.AddTool(mcp.NewTool(ToolExtract, append([]mcp.ToolOption{
		mcp.WithDescription("Extract field values from a document."),
		mcp.WithString("text", mcp.Description("OCR text of the document.")),
		mcp.WithArray("fields", mcp.Required(), mcp.Description("Fields to extract."),
			mcp.Items(map[string]any{"type": "string"})),
	}, imageArgs...)...), tools.Extract)

	s.AddTool(mcp.NewTool(ToolReview, append([]mcp.ToolOption{
		mcp.WithDescription("Check extracted values against the document and return PASS/FAIL per field."),
		mcp.WithString("text", mcp.Description("OCR text of the document.")),
		mcp.WithString("extracted", mcp.Required(), mcp.Description("JSON object of extracted field values.")),
	}, imageArgs...)...), tools.Review)

	return s
}

func (t *Tools) OCR(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	image, err := t.image(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(image) == 0 {
		return mcp.NewToolResultError("image_path or image_base64 is required"), nil
	}
	text := t.ocr.ExtractText(ctx, image, req.GetString("engine", ""))
	t.logger.Info("mcp.tool.done", "tool", ToolOCR, "chars", len(text))
	return mcp.NewToolResultText(text), nil
}

func (t *Tools) Classify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	image, err := t.image(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := t.classifier.Classify(ctx, req.GetString("text", ""), image, req.GetStringSlice("fields", nil))
	t.logger.Info("mcp.tool.done", "tool", ToolClassify, "doc_type", result.DocType)
	return jsonResult(result)
}

func (t *Tools) Extract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields := req.GetStringSlice("fields", nil)
	if len(fields) == 0 {
		return mcp.NewToolResultError("fields must be a non-empty array of strings"), nil
	}
	image, err := t.image(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := t.extractor.Extract(ctx, fields, req.GetString("text", ""), image)
	t.logger.Info("mcp.tool.done", "tool", ToolExtract, "fields", result.Len())
	return jsonResult(result)
}

func (t *Tools) Review(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("extracted")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var extracted domain.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extracted must be a JSON object: %v", err)), nil
	}
	image, err := t.image(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := t.reviewer.Review(ctx, extracted, req.GetString("text", ""), image)
	t.logger.Info("mcp.tool.done", "tool", ToolReview, "fields", result.Len())
	return jsonResult(result)
}

// image resolves the optional document image. Neither argument yields nil.
func (t *Tools) image(req mcp.CallToolRequest) ([]byte, error) {
	if path := strings.TrimSpace(req.GetString("image_path", "")); path != "" {
		data, err := t.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return data, nil
	}
	encoded := strings.TrimSpace(req.GetString("image_base64", ""))
	if encoded == "" {
		return nil, nil
	}
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i > 0 {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("image_base64 is not valid base64")
	}
	return data, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
