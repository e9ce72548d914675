// Command docai runs the whole extraction pipeline on one local file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kirillkom/document-ai-agent/internal/bootstrap"
	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/observability/logging"
)

type options struct {
	file   string
	engine string
	fields string
	review bool
	out    string
	format string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "document image or PDF to process")
	flag.StringVar(&opts.engine, "engine", "", "OCR engine (default from OCR_DEFAULT_ENGINE)")
	flag.StringVar(&opts.fields, "fields", "", "comma-separated fields; empty uses the suggested fields")
	flag.BoolVar(&opts.review, "review", true, "review the extracted values")
	flag.StringVar(&opts.out, "out", "", "output path; empty writes JSON to stdout")
	flag.StringVar(&opts.format, "format", "json", "output format: json or xlsx")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "docai: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if strings.TrimSpace(opts.file) == "" {
		return errors.New("-file is required")
	}
	format := strings.ToLower(opts.format)
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unsupported -format %q", opts.format)
	}
	if format == "xlsx" && opts.out == "" {
		return errors.New("-out is required for xlsx output")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, "docai-cli", cfg.LogLevel)

	body, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.BatchUC.RunDocument(ctx, filepath.Base(opts.file), body, opts.engine, splitList(opts.fields), opts.review)
	if err != nil {
		return err
	}

	output, err := render(report, format, app.Exporter.Export)
	if err != nil {
		return err
	}
	if opts.out == "" {
		_, err = stdout.Write(output)
		return err
	}
	if err := os.WriteFile(opts.out, output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	logger.Info("cli.report.written", "path", opts.out, "format", format, "fields", len(report.Fields))
	return nil
}

func render(report domain.Report, format string, export func(domain.Report) ([]byte, error)) ([]byte, error) {
	if format == "xlsx" {
		return export(report)
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(out, '\n'), nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
