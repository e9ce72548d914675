package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/core/prompt"
	"github.com/kirillkom/document-ai-agent/internal/core/usecase"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/imaging"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/session/memory"
)

// Options selects the optional parts of the application graph.
type Options struct {
	// WithQueue connects to NATS and enables batch job submission.
	WithQueue bool
	// Observer receives stage timings; nil disables them.
	Observer ports.StageObserver
	Logger   *slog.Logger
}

type App struct {
	Config config.Config

	OCR        *usecase.OCRService
	Classifier *usecase.ClassifierUseCase
	Extractor  *usecase.ExtractorUseCase
	Reviewer   *usecase.ReviewerUseCase

	Sessions *memory.Store
	Storage  ports.ObjectStorage
	Exporter *xlsx.Exporter
	Queue    *nats.Queue

	PipelineUC *usecase.PipelineUseCase
	BatchUC    *usecase.BatchUseCase
	SubmitUC   *usecase.SubmitJobUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := newObjectStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	llm, err := newChatModel(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	detectors, err := newDetectors(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init ocr: %w", err)
	}
	ocr := usecase.NewOCRService(cfg.OCRDefaultEngine, logger, detectors...)

	prompts := prompt.NewBuilder(imaging.NewEncoder(), logger)
	classifier := usecase.NewClassifierUseCase(llm, prompts, cfg.ClassifierModel, cfg.ClassifierUseImage, cfg.FieldCatalog, logger)
	extractor := usecase.NewExtractorUseCase(llm, prompts, cfg.ExtractorModel, logger)
	reviewer := usecase.NewReviewerUseCase(llm, prompts, cfg.ReviewerModel, logger)

	sessions := memory.New(cfg.SessionTTL, nil, logger)
	app := &App{
		Config:     cfg,
		OCR:        ocr,
		Classifier: classifier,
		Extractor:  extractor,
		Reviewer:   reviewer,
		Sessions:   sessions,
		Storage:    storage,
		Exporter:   xlsx.NewExporter(logger),
		PipelineUC: usecase.NewPipelineUseCase(sessions, ocr, classifier, extractor, reviewer, opts.Observer, nil, logger),
		BatchUC:    usecase.NewBatchUseCase(storage, ocr, classifier, extractor, reviewer, opts.Observer, logger),
	}

	if opts.WithQueue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: newExecutor(true, logger),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.SubmitUC = usecase.NewSubmitJobUseCase(storage, queue, ocr)
		app.closeFn = queue.Close
	}

	logger.Info("bootstrap.ready",
		"llm_provider", cfg.LLMProvider,
		"ocr_engines", ocr.Engines(),
		"ocr_default", ocr.DefaultEngine(),
		"storage", cfg.StorageBackend,
		"queue", opts.WithQueue,
	)
	return app, nil
}

// JobSubmitter returns nil when the queue is disabled so callers can keep a
// nil interface.
func (a *App) JobSubmitter() ports.JobSubmitter {
	if a.SubmitUC == nil {
		return nil
	}
	return a.SubmitUC
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
