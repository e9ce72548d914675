package ports

import (
	"context"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// TextExtractor is the inbound contract of the OCR adapter. Failures are
// reported in the returned text with the "OCR ERROR:" / "OCR INFO:" prefixes.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, engine string) string
	Engines() []string
	DefaultEngine() string
}

type DocumentClassifier interface {
	Classify(ctx context.Context, text string, image []byte, userFields []string) domain.ClassificationResult
}

type FieldExtractor interface {
	Extract(ctx context.Context, fields []string, text string, image []byte) domain.ExtractionResult
}

type FieldReviewer interface {
	Review(ctx context.Context, extracted domain.ExtractionResult, text string, image []byte) domain.ReviewResult
}

// SessionPipeline is the two-phase interactive orchestrator.
type SessionPipeline interface {
	Start(ctx context.Context, filename, mimeType string, body []byte, engine string) (*domain.Session, error)
	ProposeFields(ctx context.Context, sessionID string, userFields []string) (domain.ClassificationResult, error)
	ConfirmFields(ctx context.Context, sessionID string, fields []string) (domain.ExtractionResult, error)
	Review(ctx context.Context, sessionID string) (domain.ReviewResult, error)
	Download(ctx context.Context, sessionID string) (string, []byte, error)
	Report(ctx context.Context, sessionID string) (domain.Report, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Reset(ctx context.Context, sessionID string) error
}

// BatchRunner runs the whole pipeline without user interaction.
type BatchRunner interface {
	Run(ctx context.Context, job domain.BatchJob) (domain.Report, error)
}

// JobSubmitter stores an upload and enqueues a batch job for it.
type JobSubmitter interface {
	Submit(ctx context.Context, filename string, body []byte, engine string, fields []string, review bool) (domain.BatchJob, error)
}
