package parse

import (
	"fmt"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// Review maps every requested field to a verdict. Fields start as
// {ERROR, "Parsing failed"} and are replaced by what the reply says.
func Review(response string, fields []string) (result domain.ReviewResult) {
	initial := domain.FieldReview{Status: domain.ReviewError, Feedback: domain.ReviewParsingFailed}
	defer func() {
		if r := recover(); r != nil {
			result = domain.NewReviewResult(fields, initial, domain.Failed(fmt.Sprintf("parser panic: %v", r)))
		}
	}()

	candidate, ok := fencedBlock(response)
	if !ok {
		candidate, ok = outerSpan(response)
	}
	if !ok {
		return domain.NewReviewResult(fields, initial, domain.Failed("no JSON object in reply"))
	}

	obj, err := decodeObject(candidate)
	if err != nil {
		return domain.NewReviewResult(fields, initial, domain.Failed("invalid JSON: "+err.Error()))
	}

	result = domain.NewReviewResult(fields, initial, domain.Parsed())
	degraded := 0
	for _, field := range result.Fields() {
		item := reviewItem(obj, field)
		if item.Status == domain.ReviewError {
			degraded++
		}
		result.Set(field, item)
	}
	if degraded > 0 {
		result.Outcome = domain.Fallback(fmt.Sprintf("%d field(s) without a usable verdict", degraded))
	}
	return result
}

func reviewItem(obj object, field string) domain.FieldReview {
	raw, found := obj.lookup(field)
	if !found || raw == nil {
		return domain.FieldReview{Status: domain.ReviewError, Feedback: domain.ReviewFieldNotFound}
	}
	if err := reviewItemSchema.Validate(raw); err != nil {
		return domain.FieldReview{Status: domain.ReviewError, Feedback: domain.ReviewInvalidItem}
	}
	item := raw.(map[string]any)

	status := strings.ToUpper(strings.TrimSpace(scalarString(item["status"])))
	switch domain.ReviewStatus(status) {
	case domain.ReviewPass, domain.ReviewFail:
		return domain.FieldReview{
			Status:   domain.ReviewStatus(status),
			Feedback: strings.TrimSpace(scalarString(item["feedback"])),
		}
	default:
		return domain.InvalidStatusReview(status)
	}
}
