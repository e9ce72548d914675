package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

// SubmitJobUseCase stores an uploaded document and enqueues a batch run for it.
type SubmitJobUseCase struct {
	storage ports.ObjectStorage
	queue   ports.JobQueue
	engines func() []string
}

func NewSubmitJobUseCase(storage ports.ObjectStorage, queue ports.JobQueue, ocr ports.TextExtractor) *SubmitJobUseCase {
	uc := &SubmitJobUseCase{storage: storage, queue: queue}
	if ocr != nil {
		uc.engines = ocr.Engines
	}
	return uc
}

func (uc *SubmitJobUseCase) Submit(
	ctx context.Context,
	filename string,
	body []byte,
	engine string,
	fields []string,
	review bool,
) (domain.BatchJob, error) {
	const op = "submit job"
	if len(body) == 0 {
		return domain.BatchJob{}, domain.WrapError(domain.ErrInvalidInput, op, errors.New("empty document"))
	}
	engine = strings.TrimSpace(engine)
	if engine != "" && uc.engines != nil && !containsString(uc.engines(), engine) {
		return domain.BatchJob{}, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown OCR engine %q", engine))
	}

	id := uuid.NewString()
	name := filepath.Base(strings.TrimSpace(filename))
	storageKey := fmt.Sprintf("uploads/%s_%s", id, sanitizeFilename(name))

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(body)); err != nil {
		return domain.BatchJob{}, fmt.Errorf("save to object storage: %w", err)
	}

	job := domain.BatchJob{
		JobID:      id,
		Filename:   name,
		StorageKey: storageKey,
		Engine:     engine,
		Fields:     cleanFields(fields),
		Review:     review,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.queue.PublishJob(ctx, job); err != nil {
		return domain.BatchJob{}, fmt.Errorf("publish job: %w", err)
	}
	return job, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "document.bin"
	}
	return base
}
