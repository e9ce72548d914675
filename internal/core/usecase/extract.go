package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/parse"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/core/prompt"
)

type ExtractorUseCase struct {
	llm     ports.ChatModel
	prompts *prompt.Builder
	model   string
	logger  *slog.Logger
}

func NewExtractorUseCase(llm ports.ChatModel, prompts *prompt.Builder, model string, logger *slog.Logger) *ExtractorUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractorUseCase{llm: llm, prompts: prompts, model: model, logger: logger}
}

func (uc *ExtractorUseCase) Extract(ctx context.Context, fields []string, text string, image []byte) domain.ExtractionResult {
	if len(fields) == 0 {
		return domain.NewExtractionResult(nil)
	}
	if !hasSource(text, image) {
		return domain.ExtractionFilled(fields, domain.ExtractionNoInput, domain.Failed("no text or image"))
	}

	messages, err := uc.prompts.Extraction(fields, text, image)
	if err != nil {
		return domain.ExtractionFilled(fields, domain.ExtractionPromptFailed, domain.Failed("prompt: "+err.Error()))
	}

	reply := complete(ctx, uc.llm, uc.model, messages)
	if domain.IsLLMError(reply) {
		uc.logger.Warn("llm.extract.error", "model", uc.model, "reply", reply)
		return domain.ExtractionFilled(fields, reply, domain.Failed(reply))
	}

	result := parse.Extraction(reply, fields)
	uc.logger.Info("llm.extract.done", "model", uc.model, "fields", result.Len(), "outcome", result.Outcome.Kind)
	return result
}
