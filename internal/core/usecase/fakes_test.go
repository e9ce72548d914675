package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/prompt"
)

type chatCall struct {
	model    string
	messages []domain.Message
}

// chatFake replies from a script keyed by model, falling back to reply.
type chatFake struct {
	reply   string
	byModel map[string]string
	err     error
	calls   []chatCall
}

func (f *chatFake) Complete(_ context.Context, model string, messages []domain.Message) (string, error) {
	f.calls = append(f.calls, chatCall{model: model, messages: messages})
	if f.err != nil {
		return "", f.err
	}
	if reply, ok := f.byModel[model]; ok {
		return reply, nil
	}
	return f.reply, nil
}

type encoderFake struct{}

func (encoderFake) DataURL(image []byte) (string, error) {
	if bytes.HasPrefix(image, []byte("not-an-image")) {
		return "", errors.New("unsupported image")
	}
	return "data:image/png;base64,AAAA", nil
}

func newTestPrompts() *prompt.Builder {
	return prompt.NewBuilder(encoderFake{}, nil)
}

type detectorFake struct {
	name  string
	lines []domain.TextLine
	err   error
	panic string
	calls int
}

func (f *detectorFake) Name() string { return f.name }

func (f *detectorFake) Detect(context.Context, []byte) ([]domain.TextLine, error) {
	f.calls++
	if f.panic != "" {
		panic(f.panic)
	}
	return f.lines, f.err
}

type sessionStoreFake struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{sessions: make(map[string]*domain.Session)}
}

func (f *sessionStoreFake) Create(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s.Clone()
	return nil
}

func (f *sessionStoreFake) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id=%s", id))
	}
	return s.Clone(), nil
}

func (f *sessionStoreFake) Update(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.ID]; !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "update session", fmt.Errorf("id=%s", s.ID))
	}
	f.sessions[s.ID] = s.Clone()
	return nil
}

func (f *sessionStoreFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id=%s", id))
	}
	delete(f.sessions, id)
	return nil
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type jobQueueFake struct {
	published []domain.BatchJob
	err       error
}

func (f *jobQueueFake) PublishJob(_ context.Context, job domain.BatchJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *jobQueueFake) SubscribeJobs(context.Context, func(context.Context, domain.BatchJob) error) error {
	return errors.New("not implemented")
}

type stageObservation struct {
	stage   string
	outcome string
}

type observerFake struct {
	mu   sync.Mutex
	seen []stageObservation
}

func (f *observerFake) ObserveStage(stage, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, stageObservation{stage: stage, outcome: outcome})
}

// invoiceLines renders "INVOICE / Number: INV-1 / Total: $10" as scattered detections.
func invoiceLines() []domain.TextLine {
	box := func(xmin, ymin, xmax, ymax int) domain.BoundingBox {
		return domain.BoundingBox{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
	}
	return []domain.TextLine{
		{Text: "$10", Box: box(80, 82, 120, 100), Confidence: 95},
		{Text: "INVOICE", Box: box(10, 10, 120, 30), Confidence: 99},
		{Text: "INV-1", Box: box(90, 45, 140, 63), Confidence: 97},
		{Text: "Total:", Box: box(10, 81, 70, 99), Confidence: 96},
		{Text: "Number:", Box: box(10, 44, 80, 62), Confidence: 98},
	}
}
