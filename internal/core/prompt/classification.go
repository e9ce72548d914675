package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

var exampleInvoiceFields = []string{
	"buyer_address", "buyer_name", "buyer_vat_number", "currency",
	"invoice_amount", "invoice_date", "invoice_number", "payment_due_date",
	"po_number", "seller_address", "seller_email", "seller_fax_number",
	"seller_name", "seller_phone", "seller_vat_number", "seller_website",
	"shipping_date", "shipto_address", "shipto_name", "subtotal",
	"total_due_amount", "total_tax",
}

const classificationTask = `1. Classify the document type (e.g., Invoice, Bank Statement, Claim Form, Contract, Other).
2. Suggest key fields and table headers relevant for this document type.

`

const classificationFormat = `IMPORTANT: Format your response ONLY as a single JSON object with keys "doc_type" (string) and "fields" (list of strings). Do not include any text before or after the JSON object.
Example JSON:
` + "```json\n%s\n```" + `
If the document type is unclear or doesn't fit common categories, use "other" for the doc_type. Make sure 'fields' is always a list, even if empty.`

// Classification asks for a document type and suggested fields. The image is
// attached when useImage is set or when there is no text to embed.
func (b *Builder) Classification(text string, image []byte, useImage bool) ([]domain.Message, error) {
	haveText := strings.TrimSpace(text) != ""
	if !haveText && len(image) == 0 {
		return nil, ErrPromptUnavailable
	}

	if len(image) > 0 && (useImage || !haveText) {
		msgs, err := b.messages("classify", classificationInstructions(""), image, false)
		if err == nil {
			return msgs, nil
		}
		if !haveText {
			return nil, err
		}
	}
	return []domain.Message{{Role: domain.RoleUser, Text: classificationInstructions(text)}}, nil
}

func classificationInstructions(text string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the provided document.\n")
	if text != "" {
		sb.WriteString("OCR TEXT\n---------\n    ")
		sb.WriteString(text)
		sb.WriteString("\n---------\n")
	}
	sb.WriteString(classificationTask)
	fmt.Fprintf(&sb, classificationFormat, exampleClassificationJSON())
	return sb.String()
}

func exampleClassificationJSON() string {
	example := struct {
		DocType string   `json:"doc_type"`
		Fields  []string `json:"fields"`
	}{DocType: "invoice", Fields: exampleInvoiceFields}
	b, _ := json.MarshalIndent(example, "", "  ")
	return string(b)
}
