package parse

import (
	"fmt"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// Extraction maps every requested field to the value found in the reply.
// The result always has exactly the requested keys; fields missing from the
// reply stay nil, and an undecodable reply leaves every field nil.
func Extraction(response string, fields []string) (result domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.NewExtractionResult(fields)
			result.Outcome = domain.Failed(fmt.Sprintf("parser panic: %v", r))
		}
	}()

	result = domain.NewExtractionResult(fields)

	candidate, ok := fencedBlock(response)
	if !ok {
		candidate, ok = balancedObject(response)
	}
	if !ok {
		result.Outcome = domain.Failed("no JSON object in reply")
		return result
	}

	obj, err := decodeObject(candidate)
	if err != nil {
		result.Outcome = domain.Failed("invalid JSON: " + err.Error())
		return result
	}

	missing := 0
	for _, field := range result.Fields() {
		value, found := obj.lookup(field)
		if !found {
			missing++
			continue
		}
		result.Set(field, value)
	}
	if missing > 0 {
		result.Outcome = domain.Fallback(fmt.Sprintf("%d field(s) missing from reply", missing))
	}
	return result
}
