package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

// BatchUseCase runs the whole pipeline for one stored document without user
// interaction. Suggested fields are confirmed automatically unless the job
// names its own.
type BatchUseCase struct {
	storage    ports.ObjectStorage
	ocr        ports.TextExtractor
	classifier ports.DocumentClassifier
	extractor  ports.FieldExtractor
	reviewer   ports.FieldReviewer
	observer   ports.StageObserver
	logger     *slog.Logger
}

func NewBatchUseCase(
	storage ports.ObjectStorage,
	ocr ports.TextExtractor,
	classifier ports.DocumentClassifier,
	extractor ports.FieldExtractor,
	reviewer ports.FieldReviewer,
	observer ports.StageObserver,
	logger *slog.Logger,
) *BatchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchUseCase{
		storage:    storage,
		ocr:        ocr,
		classifier: classifier,
		extractor:  extractor,
		reviewer:   reviewer,
		observer:   observer,
		logger:     logger,
	}
}

func (uc *BatchUseCase) Run(ctx context.Context, job domain.BatchJob) (domain.Report, error) {
	const op = "run batch job"
	body, err := uc.load(ctx, job.StorageKey)
	if err != nil {
		return domain.Report{}, fmt.Errorf("%s: %w", op, err)
	}
	report, err := uc.RunDocument(ctx, job.Filename, body, job.Engine, job.Fields, job.Review)
	if err != nil {
		return domain.Report{}, err
	}
	if err := uc.persist(ctx, job, report); err != nil {
		return domain.Report{}, fmt.Errorf("%s: %w", op, err)
	}
	return report, nil
}

// RunDocument runs OCR, classification, extraction and optionally review on
// in-memory document bytes.
func (uc *BatchUseCase) RunDocument(
	ctx context.Context,
	filename string,
	body []byte,
	engine string,
	fields []string,
	review bool,
) (domain.Report, error) {
	const op = "run pipeline"
	if len(body) == 0 {
		return domain.Report{}, domain.WrapError(domain.ErrInvalidInput, op, errors.New("empty document"))
	}

	started := time.Now()
	text := uc.ocr.ExtractText(ctx, body, engine)
	if IsOCRError(text) {
		uc.observe("ocr", "failed", started)
		return domain.Report{}, domain.WrapError(domain.ErrOCRFailed, op, errors.New(text))
	}
	uc.observe("ocr", ocrOutcome(text), started)
	text = modelText(text)

	started = time.Now()
	classification := uc.classifier.Classify(ctx, text, body, cleanFields(fields))
	uc.observe("classify", string(classification.Outcome.Kind), started)
	selected := cleanFields(classification.Fields)
	if len(selected) == 0 {
		return domain.Report{}, domain.WrapError(domain.ErrInvalidInput, op,
			fmt.Errorf("no fields to extract (doc_type=%s)", classification.DocType))
	}

	started = time.Now()
	extraction := uc.extractor.Extract(ctx, selected, text, body)
	uc.observe("extract", string(extraction.Outcome.Kind), started)

	var verdicts *domain.ReviewResult
	if review {
		started = time.Now()
		result := uc.reviewer.Review(ctx, extraction, text, body)
		uc.observe("review", string(result.Outcome.Kind), started)
		verdicts = &result
	}

	uc.logger.Info("pipeline.batch.done",
		"filename", filename,
		"doc_type", classification.DocType,
		"fields", len(selected),
		"reviewed", review,
	)
	return domain.BuildReport(filename, classification.DocType, extraction, verdicts), nil
}

func (uc *BatchUseCase) load(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

// persist writes the extraction download and the combined report next to the job.
func (uc *BatchUseCase) persist(ctx context.Context, job domain.BatchJob, report domain.Report) error {
	extraction := domain.NewExtractionResult(nil)
	for _, row := range report.Fields {
		extraction.Set(row.Field, row.Value)
	}
	extracted, err := ExtractionJSON(extraction)
	if err != nil {
		return fmt.Errorf("encode extraction: %w", err)
	}
	raw, err := report.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	var indented bytes.Buffer
	if err := jsonIndent(&indented, raw); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	prefix := ResultPrefix(job.JobID)
	if err := uc.storage.Save(ctx, prefix+DownloadName(job.Filename), bytes.NewReader(extracted)); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	if err := uc.storage.Save(ctx, prefix+ReportName(job.Filename), &indented); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (uc *BatchUseCase) observe(stage, outcome string, started time.Time) {
	if uc.observer == nil {
		return
	}
	uc.observer.ObserveStage(stage, outcome, time.Since(started))
}

// ResultPrefix is the storage prefix for the artifacts of one job.
func ResultPrefix(jobID string) string {
	return "results/" + jobID + "/"
}

func ReportName(filename string) string {
	if filename == "" {
		return "report.json"
	}
	return filename + "_report.json"
}
