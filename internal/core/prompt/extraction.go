package prompt

import (
	"fmt"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

const ocrTextGuidance = "Following is the OCR text extracted from the document. It may contain missing text, incorrect layout, or OCR errors. Use it as a reference alongside any provided image:\n"

// Extraction asks for one flattened JSON object keyed by the requested fields.
func (b *Builder) Extraction(fields []string, text string, image []byte) ([]domain.Message, error) {
	haveText := strings.TrimSpace(text) != ""
	if len(fields) == 0 || (!haveText && len(image) == 0) {
		return nil, ErrPromptUnavailable
	}
	return b.messages("extract", extractionInstructions(fields, text), image, haveText)
}

func extractionInstructions(fields []string, text string) string {
	var sb strings.Builder
	sb.WriteString(`Follow the below instructions and extract field(s) from the provided document. If value is not present for a field then "" should be provided. If there are more than 1 value for a field, give all the values as an array.`)
	sb.WriteString("\n\nExtract the following fields:\n")
	for i, field := range fields {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, field)
	}
	sb.WriteString("\n")
	if strings.TrimSpace(text) != "" {
		sb.WriteString(ocrTextGuidance)
		writeOCRBlock(&sb, text)
	}
	sb.WriteString("The output should be formatted ONLY as a single flattened JSON object. Do not give any additional explanation.\nOUTPUT JSON FORMAT:\n")

	placeholder := domain.ExtractionFilled(fields, "...", domain.Parsed())
	body, _ := placeholder.MarshalJSON()
	sb.Write(body)
	return sb.String()
}

func writeOCRBlock(sb *strings.Builder, text string) {
	sb.WriteString("---BEGIN OCR TEXT---\n")
	sb.WriteString(text)
	sb.WriteString("\n---END OCR TEXT---\n\n")
}
