package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/config"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/llm/openai"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/pdftext"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/tesseractcli"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/ocr/vision"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/resilience"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/storage/azblob"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/storage/localfs"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	defaultOllamaURL = "http://localhost:11434"
)

func newExecutor(breakerEnabled bool, logger *slog.Logger) *resilience.Executor {
	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = breakerEnabled
	return resilience.NewExecutor(cfg, resilience.WithLogger(logger))
}

// newLLMExecutor guards model calls with the breaker only. A failed model
// call is surfaced to the caller as is.
func newLLMExecutor(breakerEnabled bool, logger *slog.Logger) *resilience.Executor {
	cfg := resilience.SingleAttemptConfig()
	cfg.BreakerEnabled = breakerEnabled
	return resilience.NewExecutor(cfg, resilience.WithLogger(logger))
}

func newChatModel(cfg config.Config, logger *slog.Logger) (ports.ChatModel, error) {
	executor := newLLMExecutor(cfg.LLMBreakerEnabled, logger)
	switch cfg.LLMProvider {
	case ProviderOpenAI, "":
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = openai.DefaultBaseURL
		}
		return openai.New(openai.Config{
			BaseURL:     baseURL,
			APIKey:      cfg.LLMAPIKey,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		}, executor, logger), nil
	case ProviderOllama:
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return ollama.New(baseURL, ollama.Options{
			Timeout:            cfg.LLMTimeout,
			ResilienceExecutor: executor,
			Logger:             logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// newDetectors registers the OCR engines named in cfg.OCREngines, in order.
func newDetectors(cfg config.Config, logger *slog.Logger) ([]ports.LineDetector, error) {
	detectors := make([]ports.LineDetector, 0, len(cfg.OCREngines))
	for _, name := range cfg.OCREngines {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case tesseract.Name:
			detectors = append(detectors, tesseract.NewDetector(tesseract.Config{
				Languages:     cfg.TesseractLanguages,
				PageSegMode:   cfg.TesseractPSM,
				MinConfidence: cfg.TesseractMinConfidence,
			}))
		case tesseractcli.Name:
			detectors = append(detectors, tesseractcli.NewDetector(tesseractcli.Config{
				Binary:        cfg.TesseractBinary,
				Language:      strings.Join(cfg.TesseractLanguages, "+"),
				PageSegMode:   cfg.TesseractPSM,
				TessdataDir:   cfg.TessdataDir,
				MinConfidence: cfg.TesseractMinConfidence,
			}, logger))
		case vision.Name:
			detectors = append(detectors, vision.New(vision.Config{
				Endpoint:     cfg.VisionEndpoint,
				APIKey:       cfg.VisionAPIKey,
				LanguageHint: cfg.VisionLanguageHint,
			}, resilience.NewExecutor(resilience.NetworkOCRConfig(), resilience.WithLogger(logger)), logger))
		case pdftext.Name:
			detectors = append(detectors, pdftext.NewDetector(cfg.PDFMaxPages))
		default:
			return nil, fmt.Errorf("unknown OCR engine %q", name)
		}
	}
	if len(detectors) == 0 {
		return nil, fmt.Errorf("no OCR engines configured")
	}
	return detectors, nil
}

func newObjectStorage(cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "local", "":
		return localfs.New(cfg.StoragePath)
	case "azblob", "azure":
		return azblob.New(azblob.Config{
			AccountName: cfg.AzureAccountName,
			AccountKey:  cfg.AzureAccountKey,
			ServiceURL:  cfg.AzureServiceURL,
			Container:   cfg.AzureContainer,
			Prefix:      cfg.AzurePrefix,
		})
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
