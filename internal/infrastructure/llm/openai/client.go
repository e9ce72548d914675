// Package openai implements the chat model port for OpenAI-compatible
// chat/completions endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Config struct {
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	log        *slog.Logger
}

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
		log:        logger,
	}
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, model string, messages []domain.Message) (string, error) {
	rid := uuid.NewString()
	start := time.Now()
	c.log.Info("llm.chat.start", "provider", "openai", "req_id", rid, "model", model, "messages", len(messages))

	body := completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var raw []byte
	call := func(callCtx context.Context) error {
		var err error
		raw, err = c.post(callCtx, endpoint, body)
		return err
	}
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		c.log.Error("llm.chat.http_error", "provider", "openai", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", resilience.WrapTemporary("openai chat", err, resilience.ClassifyHTTP)
	}

	var cc completionResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.chat.decode_error", "provider", "openai", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.chat.no_choices", "provider", "openai", "req_id", rid)
		return "", fmt.Errorf("no choices in openai response")
	}

	c.log.Info("llm.chat.ok", "provider", "openai", "req_id", rid,
		"elapsed_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.StatusError("openai chat", resp)
	}
	return io.ReadAll(resp.Body)
}
