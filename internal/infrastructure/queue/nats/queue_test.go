package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func TestJobPayloadShape(t *testing.T) {
	job := domain.BatchJob{
		JobID:      "j1",
		Filename:   "invoice.png",
		StorageKey: "uploads/j1_invoice.png",
		Engine:     "tesseract",
		Fields:     []string{"Invoice #"},
		Review:     true,
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, err := EncodeJob(job)
	if err != nil {
		t.Fatalf("EncodeJob() error = %v", err)
	}
	got, err := DecodeJob(payload)
	if err != nil {
		t.Fatalf("DecodeJob() error = %v", err)
	}
	if got.JobID != "j1" || got.StorageKey != job.StorageKey || !got.Review || len(got.Fields) != 1 {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestDecodeJobRejectsIncompletePayload(t *testing.T) {
	if _, err := DecodeJob([]byte(`{"filename":"a.png"}`)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := DecodeJob([]byte(`not json`)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClassifyNATSErrorRetriesConnectivityFailures(t *testing.T) {
	if !classifyNATSError(nats.ErrNoServers).Retryable {
		t.Fatalf("expected no-servers to be retryable")
	}
	if classifyNATSError(context.Canceled).Retryable {
		t.Fatalf("expected cancellation not to be retried")
	}
	if classifyNATSError(errors.New("bad subject")).Retryable {
		t.Fatalf("expected unknown errors not to be retried")
	}
	if classifyNATSError(nats.ErrMaxPayload).RecordFailure {
		t.Fatalf("expected oversized payloads not to trip the breaker")
	}
}

func TestPublishErrorKinds(t *testing.T) {
	if !domain.IsKind(publishError(nats.ErrTimeout), domain.ErrTemporary) {
		t.Fatalf("expected timeout to be wrapped as temporary")
	}
	if !domain.IsKind(publishError(nats.ErrMaxPayload), domain.ErrInvalidInput) {
		t.Fatalf("expected max payload to be invalid input")
	}
	if err := publishError(errors.New("boom")); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("unknown errors should not be temporary: %v", err)
	}
}

func TestJobMessageHeaders(t *testing.T) {
	msg, err := jobMessage("documents.extract", domain.BatchJob{JobID: "j9", StorageKey: "uploads/j9_a.png"})
	if err != nil {
		t.Fatalf("jobMessage() error = %v", err)
	}
	if msg.Subject != "documents.extract" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if got := msg.Header.Get(nats.MsgIdHdr); got != "j9" {
		t.Fatalf("expected msg id header j9, got %q", got)
	}
	if _, err := DecodeJob(msg.Data); err != nil {
		t.Fatalf("payload should decode: %v", err)
	}
}
