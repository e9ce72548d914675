// Package prompt builds the model messages for the classify, extract and review stages.
package prompt

import (
	"errors"
	"log/slog"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

// ErrPromptUnavailable is returned when neither an image nor text can be sent.
var ErrPromptUnavailable = errors.New("prompt unavailable")

type Builder struct {
	encoder ports.ImageEncoder
	logger  *slog.Logger
}

func NewBuilder(encoder ports.ImageEncoder, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{encoder: encoder, logger: logger}
}

// messages wraps instructions into a single user message, attaching the image
// when it can be encoded. Without an image the text must carry the document.
func (b *Builder) messages(stage, instructions string, image []byte, haveText bool) ([]domain.Message, error) {
	if len(image) > 0 && b.encoder != nil {
		url, err := b.encoder.DataURL(image)
		if err == nil {
			return []domain.Message{{Role: domain.RoleUser, Text: instructions, ImageURL: url}}, nil
		}
		b.logger.Warn("prompt.image_encode_failed", "stage", stage, "error", err)
	}
	if !haveText {
		return nil, ErrPromptUnavailable
	}
	return []domain.Message{{Role: domain.RoleUser, Text: instructions}}, nil
}
