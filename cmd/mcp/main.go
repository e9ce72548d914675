package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/document-ai-agent/internal/adapters/mcp"
	"github.com/kirillkom/document-ai-agent/internal/bootstrap"
	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(os.Stderr, "docai-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	tools := mcpadapter.NewTools(app.OCR, app.Classifier, app.Extractor, app.Reviewer, logger)
	if err := server.ServeStdio(mcpadapter.NewServer(tools, version)); err != nil {
		logger.Error("mcp.serve_failed", "error", err)
		os.Exit(1)
	}
}
