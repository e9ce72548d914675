package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/parse"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
	"github.com/kirillkom/document-ai-agent/internal/core/prompt"
)

type ClassifierUseCase struct {
	llm      ports.ChatModel
	prompts  *prompt.Builder
	model    string
	useImage bool
	catalog  domain.FieldCatalog
	logger   *slog.Logger
}

func NewClassifierUseCase(
	llm ports.ChatModel,
	prompts *prompt.Builder,
	model string,
	useImage bool,
	catalog domain.FieldCatalog,
	logger *slog.Logger,
) *ClassifierUseCase {
	if catalog == nil {
		catalog = domain.DefaultFieldCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifierUseCase{
		llm:      llm,
		prompts:  prompts,
		model:    model,
		useImage: useImage,
		catalog:  catalog,
		logger:   logger,
	}
}

// Classify suggests a document type and fields. User fields, when given,
// replace the suggested fields but the doc type still comes from the model.
func (uc *ClassifierUseCase) Classify(ctx context.Context, text string, image []byte, userFields []string) domain.ClassificationResult {
	if !hasSource(text, image) {
		return domain.ClassificationError(userFields, "no text or image")
	}

	messages, err := uc.prompts.Classification(text, image, uc.useImage)
	if err != nil {
		return domain.ClassificationError(userFields, "prompt: "+err.Error())
	}

	reply := complete(ctx, uc.llm, uc.model, messages)
	if domain.IsLLMError(reply) {
		uc.logger.Warn("llm.classify.error", "model", uc.model, "reply", reply)
		return domain.ClassificationError(userFields, reply)
	}

	result := parse.ClassificationWithCatalog(reply, uc.catalog)
	uc.logger.Info("llm.classify.done",
		"model", uc.model,
		"doc_type", result.DocType,
		"fields", len(result.Fields),
		"outcome", result.Outcome.Kind,
	)
	if len(userFields) > 0 {
		result.Fields = append([]string(nil), userFields...)
	}
	return result
}
