package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/llm/openai"
)

func TestNewChatModelSelectsProvider(t *testing.T) {
	model, err := newChatModel(config.Config{LLMProvider: ProviderOllama}, nil)
	if err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if _, ok := model.(*ollama.Client); !ok {
		t.Fatalf("expected ollama client, got %T", model)
	}

	model, err = newChatModel(config.Config{LLMProvider: ProviderOpenAI}, nil)
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if _, ok := model.(*openai.Client); !ok {
		t.Fatalf("expected openai client, got %T", model)
	}

	if _, err := newChatModel(config.Config{LLMProvider: "bard"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestChatModelDoesNotRetryFailedCalls(t *testing.T) {
	for _, provider := range []string{ProviderOpenAI, ProviderOllama} {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))

		model, err := newChatModel(config.Config{
			LLMProvider:       provider,
			LLMBaseURL:        server.URL,
			LLMBreakerEnabled: true,
		}, nil)
		if err != nil {
			server.Close()
			t.Fatalf("%s provider: %v", provider, err)
		}
		_, err = model.Complete(context.Background(), "m", []domain.Message{{Role: domain.RoleUser, Text: "hi"}})
		server.Close()
		if err == nil {
			t.Fatalf("%s: expected error from 503 upstream", provider)
		}
		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Fatalf("%s: expected a single model call, got %d", provider, got)
		}
	}
}

func TestNewDetectorsKeepsConfiguredOrder(t *testing.T) {
	detectors, err := newDetectors(config.Config{OCREngines: []string{"pdf-text", "tesseract-cli", "vision"}}, nil)
	if err != nil {
		t.Fatalf("new detectors: %v", err)
	}
	want := []string{"pdf-text", "tesseract-cli", "vision"}
	if len(detectors) != len(want) {
		t.Fatalf("expected %d detectors, got %d", len(want), len(detectors))
	}
	for i, d := range detectors {
		if d.Name() != want[i] {
			t.Fatalf("detector %d: expected %s, got %s", i, want[i], d.Name())
		}
	}

	if _, err := newDetectors(config.Config{OCREngines: []string{"easyocr"}}, nil); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
	if _, err := newDetectors(config.Config{}, nil); err == nil {
		t.Fatalf("expected error for empty engine list")
	}
}

func TestNewObjectStorage(t *testing.T) {
	if _, err := newObjectStorage(config.Config{StorageBackend: "local", StoragePath: t.TempDir()}); err != nil {
		t.Fatalf("local storage: %v", err)
	}
	if _, err := newObjectStorage(config.Config{StorageBackend: "azblob"}); err == nil {
		t.Fatalf("expected error for azblob without credentials")
	}
	if _, err := newObjectStorage(config.Config{StorageBackend: "s3"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
