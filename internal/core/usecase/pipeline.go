package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// PipelineUseCase drives one document through OCR, classification, user
// field confirmation, extraction and review. State lives in the session store;
// calls for the same session are serialized.
type PipelineUseCase struct {
	sessions   ports.SessionStore
	ocr        ports.TextExtractor
	classifier ports.DocumentClassifier
	extractor  ports.FieldExtractor
	reviewer   ports.FieldReviewer
	observer   ports.StageObserver
	clock      ports.Clock
	logger     *slog.Logger

	locks sessionLocks
}

func NewPipelineUseCase(
	sessions ports.SessionStore,
	ocr ports.TextExtractor,
	classifier ports.DocumentClassifier,
	extractor ports.FieldExtractor,
	reviewer ports.FieldReviewer,
	observer ports.StageObserver,
	clock ports.Clock,
	logger *slog.Logger,
) *PipelineUseCase {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineUseCase{
		sessions:   sessions,
		ocr:        ocr,
		classifier: classifier,
		extractor:  extractor,
		reviewer:   reviewer,
		observer:   observer,
		clock:      clock,
		logger:     logger,
	}
}

func (uc *PipelineUseCase) Start(ctx context.Context, filename, mimeType string, body []byte, engine string) (*domain.Session, error) {
	const op = "start session"
	if len(body) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("empty document"))
	}
	engine = strings.TrimSpace(engine)
	if engine == "" {
		engine = uc.ocr.DefaultEngine()
	}
	if !containsString(uc.ocr.Engines(), engine) {
		return nil, domain.WrapError(domain.ErrInvalidInput, op,
			fmt.Errorf("unknown OCR engine %q (available: %s)", engine, strings.Join(uc.ocr.Engines(), ", ")))
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(strings.TrimSpace(filename)),
		MimeType:  mimeType,
		Engine:    engine,
		Image:     append([]byte(nil), body...),
		Stage:     domain.StageUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	uc.logger.Info("pipeline.session.start", "session_id", session.ID, "filename", session.Filename, "engine", engine, "bytes", len(body))
	return session.Clone(), nil
}

// ProposeFields runs OCR when the session has no text yet, then classifies.
// An OCR failure moves the session to the failed stage.
func (uc *PipelineUseCase) ProposeFields(ctx context.Context, sessionID string, userFields []string) (domain.ClassificationResult, error) {
	const op = "propose fields"
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.load(ctx, op, sessionID)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	if session.Stage == domain.StageFailed {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrStageOrder, op, fmt.Errorf("session failed: %s", session.Error))
	}

	if !session.Stage.Reached(domain.StageTextReady) {
		started := time.Now()
		text := uc.ocr.ExtractText(ctx, session.Image, session.Engine)
		if IsOCRError(text) {
			uc.observe("ocr", "failed", started)
			session.Stage = domain.StageFailed
			session.Error = text
			if err := uc.save(ctx, session); err != nil {
				return domain.ClassificationResult{}, err
			}
			return domain.ClassificationResult{}, domain.WrapError(domain.ErrOCRFailed, op, errors.New(text))
		}
		uc.observe("ocr", ocrOutcome(text), started)
		session.OCRText = text
		session.Stage = domain.StageTextReady
	}
	session.DropAfter(domain.StageTextReady)

	started := time.Now()
	result := uc.classifier.Classify(ctx, modelText(session.OCRText), session.Image, cleanFields(userFields))
	uc.observe("classify", string(result.Outcome.Kind), started)

	session.Classification = &result
	session.Stage = domain.StageClassified
	if err := uc.save(ctx, session); err != nil {
		return domain.ClassificationResult{}, err
	}
	return result, nil
}

// ConfirmFields extracts the user-confirmed fields. Confirming again discards
// the previous extraction and review.
func (uc *PipelineUseCase) ConfirmFields(ctx context.Context, sessionID string, fields []string) (domain.ExtractionResult, error) {
	const op = "confirm fields"
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.load(ctx, op, sessionID)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	if !session.Stage.Reached(domain.StageClassified) {
		return domain.ExtractionResult{}, stageError(op, session.Stage, domain.StageClassified)
	}
	fields = cleanFields(fields)
	if len(fields) == 0 {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrInvalidInput, op, errors.New("no fields selected"))
	}

	session.DropAfter(domain.StageClassified)
	started := time.Now()
	result := uc.extractor.Extract(ctx, fields, modelText(session.OCRText), session.Image)
	uc.observe("extract", string(result.Outcome.Kind), started)

	session.SelectedFields = fields
	session.Extraction = &result
	session.Stage = domain.StageExtracted
	if err := uc.save(ctx, session); err != nil {
		return domain.ExtractionResult{}, err
	}
	return result.Clone(), nil
}

func (uc *PipelineUseCase) Review(ctx context.Context, sessionID string) (domain.ReviewResult, error) {
	const op = "review fields"
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	session, err := uc.load(ctx, op, sessionID)
	if err != nil {
		return domain.ReviewResult{}, err
	}
	if !session.Stage.Reached(domain.StageExtracted) || session.Extraction == nil {
		return domain.ReviewResult{}, stageError(op, session.Stage, domain.StageExtracted)
	}

	started := time.Now()
	result := uc.reviewer.Review(ctx, *session.Extraction, modelText(session.OCRText), session.Image)
	uc.observe("review", string(result.Outcome.Kind), started)

	session.Review = &result
	session.Stage = domain.StageReviewed
	if err := uc.save(ctx, session); err != nil {
		return domain.ReviewResult{}, err
	}
	return result.Clone(), nil
}

// Download renders the extraction values as indented JSON.
func (uc *PipelineUseCase) Download(ctx context.Context, sessionID string) (string, []byte, error) {
	const op = "download extraction"
	session, err := uc.load(ctx, op, sessionID)
	if err != nil {
		return "", nil, err
	}
	if !session.Stage.Reached(domain.StageExtracted) || session.Extraction == nil {
		return "", nil, stageError(op, session.Stage, domain.StageExtracted)
	}
	body, err := ExtractionJSON(*session.Extraction)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return DownloadName(session.Filename), body, nil
}

func (uc *PipelineUseCase) Report(ctx context.Context, sessionID string) (domain.Report, error) {
	const op = "build report"
	session, err := uc.load(ctx, op, sessionID)
	if err != nil {
		return domain.Report{}, err
	}
	if !session.Stage.Reached(domain.StageExtracted) || session.Extraction == nil {
		return domain.Report{}, stageError(op, session.Stage, domain.StageExtracted)
	}
	docType := ""
	if session.Classification != nil {
		docType = session.Classification.DocType
	}
	return domain.BuildReport(session.Filename, docType, *session.Extraction, session.Review), nil
}

func (uc *PipelineUseCase) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return uc.load(ctx, "get session", sessionID)
}

func (uc *PipelineUseCase) Reset(ctx context.Context, sessionID string) error {
	unlock := uc.locks.lock(sessionID)
	defer unlock()
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	uc.logger.Info("pipeline.session.reset", "session_id", sessionID)
	return nil
}

func (uc *PipelineUseCase) load(ctx context.Context, op, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: load session: %w", op, err)
	}
	return session, nil
}

func (uc *PipelineUseCase) save(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = uc.clock.Now()
	if err := uc.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (uc *PipelineUseCase) observe(stage, outcome string, started time.Time) {
	if uc.observer == nil {
		return
	}
	uc.observer.ObserveStage(stage, outcome, time.Since(started))
}

func stageError(op string, current, required domain.Stage) error {
	return domain.WrapError(domain.ErrStageOrder, op, fmt.Errorf("session is %s, requires %s", current, required))
}

// ExtractionJSON renders an extraction as JSON indented by two spaces.
func ExtractionJSON(result domain.ExtractionResult) ([]byte, error) {
	raw, err := result.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jsonIndent(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jsonIndent(dst *bytes.Buffer, raw []byte) error {
	return json.Indent(dst, raw, "", "  ")
}

// DownloadName is the attachment name for an extraction of filename.
func DownloadName(filename string) string {
	if filename == "" || filename == "." || filename == "/" {
		return "extracted.json"
	}
	return filename + "_extracted.json"
}

// modelText hides the no-text marker from the LLM stages.
func modelText(ocrText string) string {
	if IsOCRInfo(ocrText) {
		return ""
	}
	return ocrText
}

func ocrOutcome(text string) string {
	if IsOCRInfo(text) {
		return "empty"
	}
	return "ok"
}

// cleanFields trims names and drops blanks and duplicates, keeping order.
func cleanFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
