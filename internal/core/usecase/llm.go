package usecase

import (
	"context"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

// complete calls the model and folds a transport error into an "Error:" reply.
func complete(ctx context.Context, llm ports.ChatModel, model string, messages []domain.Message) string {
	reply, err := llm.Complete(ctx, model, messages)
	if err != nil {
		return domain.LLMErrorReply(err)
	}
	return reply
}

func hasSource(text string, image []byte) bool {
	return text != "" || len(image) > 0
}
