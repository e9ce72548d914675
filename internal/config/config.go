package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	APIKey            string
	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIMaxConnections int
	APIMaxUploadBytes int64
	APIValidateSpec   bool

	LLMProvider       string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMTimeout        time.Duration
	LLMTemperature    float64
	LLMMaxTokens      int
	LLMBreakerEnabled bool

	ClassifierModel    string
	ExtractorModel     string
	ReviewerModel      string
	ClassifierUseImage bool

	OCRDefaultEngine       string
	OCREngines             []string
	TesseractLanguages     []string
	TesseractPSM           int
	TesseractMinConfidence float64
	TesseractBinary        string
	TessdataDir            string
	VisionEndpoint         string
	VisionAPIKey           string
	VisionLanguageHint     string
	PDFMaxPages            int

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	StorageBackend   string
	StoragePath      string
	AzureAccountName string
	AzureAccountKey  string
	AzureServiceURL  string
	AzureContainer   string
	AzurePrefix      string

	NATSURL     string
	NATSSubject string

	WorkerMetricsPort string

	ConfigFile   string
	FieldCatalog domain.FieldCatalog
}

// Load reads the environment, after applying an optional .env file, and
// overlays the YAML file named by DOCAI_CONFIG_FILE.
func Load() (Config, error) {
	envFile := mustEnv("DOCAI_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		APIKey:            mustEnv("API_KEY", ""),
		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 16),
		APIMaxConnections: mustEnvInt("API_MAX_CONNECTIONS", 256),
		APIMaxUploadBytes: int64(mustEnvInt("API_MAX_UPLOAD_MB", 20)) << 20,
		APIValidateSpec:   mustEnvBool("API_VALIDATE_OPENAPI", true),

		LLMProvider:       strings.ToLower(mustEnv("LLM_PROVIDER", "openai")),
		LLMBaseURL:        mustEnv("LLM_BASE_URL", ""),
		LLMAPIKey:         mustEnv("LLM_API_KEY", ""),
		LLMTimeout:        mustEnvDuration("LLM_TIMEOUT", 120*time.Second),
		LLMTemperature:    mustEnvFloat("LLM_TEMPERATURE", 0),
		LLMMaxTokens:      mustEnvInt("LLM_MAX_TOKENS", 2048),
		LLMBreakerEnabled: mustEnvBool("LLM_BREAKER_ENABLED", true),

		ClassifierModel:    mustEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),
		ExtractorModel:     mustEnv("EXTRACTOR_MODEL", "gpt-4o"),
		ReviewerModel:      mustEnv("REVIEWER_MODEL", "gpt-4o"),
		ClassifierUseImage: mustEnvBool("CLASSIFIER_USE_IMAGE", false),

		OCRDefaultEngine:       mustEnv("OCR_DEFAULT_ENGINE", "tesseract"),
		OCREngines:             mustEnvList("OCR_ENGINES", []string{"tesseract", "tesseract-cli", "pdf-text", "vision"}),
		TesseractLanguages:     mustEnvList("TESSERACT_LANGUAGES", []string{"eng"}),
		TesseractPSM:           mustEnvInt("TESSERACT_PSM", 6),
		TesseractMinConfidence: mustEnvFloat("TESSERACT_MIN_CONFIDENCE", 30),
		TesseractBinary:        mustEnv("TESSERACT_BINARY", "tesseract"),
		TessdataDir:            mustEnv("TESSDATA_DIR", ""),
		VisionEndpoint:         mustEnv("VISION_ENDPOINT", "https://vision.googleapis.com/v1/images:annotate"),
		VisionAPIKey:           mustEnv("VISION_API_KEY", ""),
		VisionLanguageHint:     mustEnv("VISION_LANGUAGE_HINT", ""),
		PDFMaxPages:            mustEnvInt("PDF_MAX_PAGES", 0),

		SessionTTL:           mustEnvDuration("SESSION_TTL", time.Hour),
		SessionSweepInterval: mustEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		StorageBackend:   strings.ToLower(mustEnv("STORAGE_BACKEND", "local")),
		StoragePath:      mustEnv("STORAGE_PATH", "./data/storage"),
		AzureAccountName: mustEnv("AZURE_STORAGE_ACCOUNT", ""),
		AzureAccountKey:  mustEnv("AZURE_STORAGE_KEY", ""),
		AzureServiceURL:  mustEnv("AZURE_STORAGE_URL", ""),
		AzureContainer:   mustEnv("AZURE_STORAGE_CONTAINER", "documents"),
		AzurePrefix:      mustEnv("AZURE_STORAGE_PREFIX", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.extract"),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),

		ConfigFile:   mustEnv("DOCAI_CONFIG_FILE", ""),
		FieldCatalog: domain.DefaultFieldCatalog(),
	}

	if cfg.ConfigFile != "" {
		if err := applyFile(&cfg, cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// mustEnvList splits a comma-separated value, dropping empty items.
func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
