package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

func TestSubmitJobStoresAndPublishes(t *testing.T) {
	storage := newStorageFake()
	queue := &jobQueueFake{}
	ocr := NewOCRService("fake", nil, &detectorFake{name: "fake"})
	uc := NewSubmitJobUseCase(storage, queue, ocr)

	job, err := uc.Submit(context.Background(), "scan 1.png", []byte("hello"), "fake", []string{"Total", " ", "Total"}, true)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.JobID == "" {
		t.Fatalf("expected job id")
	}
	if !strings.HasPrefix(job.StorageKey, "uploads/") || !strings.HasSuffix(job.StorageKey, "_scan_1.png") {
		t.Fatalf("expected sanitized storage key, got %s", job.StorageKey)
	}
	if string(storage.objects[job.StorageKey]) != "hello" {
		t.Fatalf("expected stored body")
	}
	if len(queue.published) != 1 || queue.published[0].JobID != job.JobID {
		t.Fatalf("expected job to be published, got %+v", queue.published)
	}
	if !reflect.DeepEqual(job.Fields, []string{"Total"}) || !job.Review {
		t.Fatalf("unexpected job options %+v", job)
	}
}

func TestSubmitJobErrors(t *testing.T) {
	ocr := NewOCRService("fake", nil, &detectorFake{name: "fake"})

	uc := NewSubmitJobUseCase(newStorageFake(), &jobQueueFake{}, ocr)
	if _, err := uc.Submit(context.Background(), "a.png", nil, "", nil, false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty body, got %v", err)
	}
	if _, err := uc.Submit(context.Background(), "a.png", []byte("x"), "other", nil, false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown engine, got %v", err)
	}

	failing := NewSubmitJobUseCase(newStorageFake(), &jobQueueFake{err: errors.New("queue down")}, ocr)
	_, err := failing.Submit(context.Background(), "a.png", []byte("x"), "", nil, false)
	if err == nil || !strings.Contains(err.Error(), "publish job") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report 1.txt":      "report_1.txt",
		"../../etc/passwd":  "passwd",
		"счёт.pdf":          "____.pdf",
		"":                  "document.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
