package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// ErrDetectorUnavailable marks a line detector whose runtime dependency
// (library, executable or credentials) is missing.
var ErrDetectorUnavailable = errors.New("detector unavailable")

// LineDetector is one OCR backend returning geometric line data.
type LineDetector interface {
	Name() string
	Detect(ctx context.Context, image []byte) ([]domain.TextLine, error)
}

// ChatModel sends role-tagged messages to a model and returns the reply text.
type ChatModel interface {
	Complete(ctx context.Context, model string, messages []domain.Message) (string, error)
}

// ImageEncoder turns raw image bytes into a base64 data URL.
type ImageEncoder interface {
	DataURL(image []byte) (string, error)
}

// SessionStore keeps orchestrator sessions. Implementations hand out copies.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents and produced artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobQueue publishes and consumes batch pipeline jobs.
type JobQueue interface {
	PublishJob(ctx context.Context, job domain.BatchJob) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, domain.BatchJob) error) error
}

// ReportExporter renders a combined report into a binary document.
type ReportExporter interface {
	Export(report domain.Report) ([]byte, error)
}

// Clock is the time source used for session expiry and timestamps.
type Clock interface {
	Now() time.Time
}

// StageObserver records the duration and outcome of pipeline stages.
type StageObserver interface {
	ObserveStage(stage, outcome string, duration time.Duration)
}
