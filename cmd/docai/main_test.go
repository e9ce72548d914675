package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

func TestRunValidatesFlags(t *testing.T) {
	var stdout bytes.Buffer
	cases := []struct {
		name string
		opts options
		want string
	}{
		{name: "missing file", opts: options{format: "json"}, want: "-file"},
		{name: "bad format", opts: options{file: "a.png", format: "csv"}, want: "unsupported"},
		{name: "xlsx without out", opts: options{file: "a.png", format: "xlsx"}, want: "-out"},
	}
	for _, tc := range cases {
		err := run(context.Background(), tc.opts, &stdout)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	extraction := domain.ExtractionFilled([]string{"total"}, "10.00", domain.Parsed())
	report := domain.BuildReport("a.png", "invoice", extraction, nil)

	out, err := render(report, "json", func(domain.Report) ([]byte, error) {
		return nil, errors.New("not used")
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), `"doc_type": "invoice"`) || !strings.Contains(string(out), `"total"`) {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" total, ,date ")
	if len(got) != 2 || got[0] != "total" || got[1] != "date" {
		t.Fatalf("unexpected list %v", got)
	}
	if splitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
