// Package ollama implements the chat model port against the Ollama /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends one non-streaming chat request and returns the reply text.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.Message) (string, error) {
	req := chatRequest{Model: model, Stream: false, Messages: make([]chatMessage, 0, len(messages))}
	for _, m := range messages {
		msg := chatMessage{Role: m.Role, Content: m.Text}
		if m.Multimodal() {
			msg.Images = []string{stripDataURL(m.ImageURL)}
		}
		req.Messages = append(req.Messages, msg)
	}

	start := time.Now()
	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.post(callCtx, req, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.chat", call, resilience.ClassifyHTTP)
	} else {
		err = call(ctx)
	}
	if err != nil {
		c.logger.Error("llm.chat.error", "provider", "ollama", "model", model, "error", err)
		return "", resilience.WrapTemporary("ollama chat", err, resilience.ClassifyHTTP)
	}
	c.logger.Debug("llm.chat.done", "provider", "ollama", "model", model,
		"duration_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(response.Message.Content), nil
}

func (c *Client) post(ctx context.Context, payload chatRequest, out *chatResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.StatusError("ollama chat", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode chat response: %w", err)
	}
	return nil
}

// stripDataURL returns the raw base64 payload Ollama expects for images.
func stripDataURL(url string) string {
	if !strings.HasPrefix(url, "data:") {
		return url
	}
	if idx := strings.Index(url, ","); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
