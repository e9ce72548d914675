package prompt

import (
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

const reviewOCRGuidance = "Reference OCR Text:\nRemember words in OCR Text might be jumbled up, and the reading order of neighboring text might not be correct. Keep that in mind and use your judgement to decide if the word order is correct. \n"

const reviewRules = `Instructions:
For each field in the Extracted Data:
1. Compare the extracted value against the primary document source (image if provided, otherwise text) and determine if the extracted value is correct (PASS) or incorrect (FAIL).
2. If the extracted value exists and is not blank, then check if it is present in the document. If present then "PASS". If it is not present then "FAIL".
3. If the extracted value is blank or "" and it is not present in the document, set the status to "PASS".
4. If the status is FAIL, provide brief, specific feedback explaining the error (e.g., "Value not found in image", "Incorrect date format", "Extracted customer name instead of vendor"). If PASS, feedback can be empty or "".

IMPORTANT: Respond ONLY with a single JSON object. The keys of this object should be the exact field names from the Extracted Data. The value for each key should be another JSON object containing two keys: "status" (string: "PASS" or "FAIL") and "feedback" (string).

Donot Give any explanantion in final content. Just JSON response. Example JSON Response Format:
`

// Review asks the model to validate extracted values against the document.
func (b *Builder) Review(extracted domain.ExtractionResult, text string, image []byte) ([]domain.Message, error) {
	haveText := strings.TrimSpace(text) != ""
	if extracted.Len() == 0 || (!haveText && len(image) == 0) {
		return nil, ErrPromptUnavailable
	}
	instructions, err := reviewInstructions(extracted, text)
	if err != nil {
		return nil, err
	}
	return b.messages("review", instructions, image, haveText)
}

func reviewInstructions(extracted domain.ExtractionResult, text string) (string, error) {
	data, err := extracted.MarshalJSON()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Please act as a meticulous reviewer. Your task is to validate the accuracy of extracted data against the provided document information (primarily the image, secondarily the OCR text).\n\n")
	sb.WriteString("Extracted Data (JSON Format):\n")
	sb.Write(data)
	sb.WriteString("\n")
	if strings.TrimSpace(text) != "" {
		sb.WriteString(reviewOCRGuidance)
		writeOCRBlock(&sb, text)
	}
	sb.WriteString(reviewRules)

	fields := extracted.Fields()
	if len(fields) > 2 {
		fields = fields[:2]
	}
	example := domain.NewReviewResult(fields, domain.FieldReview{Status: "PASS or FAIL", Feedback: "..."}, domain.Parsed())
	body, err := example.MarshalJSON()
	if err != nil {
		return "", err
	}
	sb.Write(body)
	return sb.String(), nil
}
