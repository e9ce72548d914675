package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/parse"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/core/prompt"
)

type ReviewerUseCase struct {
	llm     ports.ChatModel
	prompts *prompt.Builder
	model   string
	logger  *slog.Logger
}

func NewReviewerUseCase(llm ports.ChatModel, prompts *prompt.Builder, model string, logger *slog.Logger) *ReviewerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewerUseCase{llm: llm, prompts: prompts, model: model, logger: logger}
}

func (uc *ReviewerUseCase) Review(ctx context.Context, extracted domain.ExtractionResult, text string, image []byte) domain.ReviewResult {
	fields := extracted.Fields()
	if len(fields) == 0 {
		return domain.NewReviewResult(nil, domain.FieldReview{}, domain.Parsed())
	}
	if !hasSource(text, image) {
		return domain.NewReviewResult(fields,
			domain.FieldReview{Status: domain.ReviewError, Feedback: domain.ReviewNoSource},
			domain.Failed("no text or image"))
	}

	messages, err := uc.prompts.Review(extracted, text, image)
	if err != nil {
		return domain.NewReviewResult(fields,
			domain.FieldReview{Status: domain.ReviewError, Feedback: domain.ReviewPromptFailed},
			domain.Failed("prompt: "+err.Error()))
	}

	reply := complete(ctx, uc.llm, uc.model, messages)
	if domain.IsLLMError(reply) {
		uc.logger.Warn("llm.review.error", "model", uc.model, "reply", reply)
		return domain.NewReviewResult(fields,
			domain.FieldReview{Status: domain.ReviewError, Feedback: reply},
			domain.Failed(reply))
	}

	result := parse.Review(reply, fields)
	counts := result.Counts()
	uc.logger.Info("llm.review.done",
		"model", uc.model,
		"pass", counts[domain.ReviewPass],
		"fail", counts[domain.ReviewFail],
		"error", counts[domain.ReviewError],
	)
	return result
}
