package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

var (
	bareClassification = regexp.MustCompile(`(\{\s*"doc_type"[\s\S]*?\})`)
	docTypeLine        = regexp.MustCompile(`(?i)Doc(?:ument)?\s*Type:\s*(.*)`)
	fieldsLine         = regexp.MustCompile(`(?is)Fields:\s*(\[.*?\]|"?.*"?(?:,\s*"?.*"?)*)`)
)

// Classification parses a classifier reply using the built-in field catalog.
func Classification(response string) domain.ClassificationResult {
	return ClassificationWithCatalog(response, domain.DefaultFieldCatalog())
}

// ClassificationWithCatalog parses a classifier reply. A JSON object is
// preferred; otherwise "Doc Type:" and "Fields:" lines are scanned and an
// empty field list is replaced by the catalog defaults for a known type.
func ClassificationWithCatalog(response string, catalog domain.FieldCatalog) (result domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.ClassificationError(nil, fmt.Sprintf("parser panic: %v", r))
		}
	}()

	reason := "no JSON object in reply"
	candidate, ok := fencedBlock(response)
	if !ok {
		if m := bareClassification.FindStringSubmatch(response); m != nil {
			candidate, ok = strings.TrimSpace(m[1]), true
		}
	}
	if ok {
		parsed, err := classificationFromJSON(candidate)
		if err == nil {
			return parsed
		}
		reason = err.Error()
	}
	return classificationFromLines(response, catalog, reason)
}

func classificationFromJSON(raw string) (domain.ClassificationResult, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.ClassificationResult{}, fmt.Errorf("invalid JSON: trailing data after object")
	}
	if err := classificationSchema.Validate(data); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("unexpected JSON shape: %w", err)
	}
	obj := data.(map[string]any)

	docType := normalizeDocType(scalarString(obj["doc_type"]))
	return domain.ClassificationResult{
		DocType: docType,
		Fields:  stringFields(obj["fields"].([]any)),
		Outcome: domain.Parsed(),
	}, nil
}

func classificationFromLines(response string, catalog domain.FieldCatalog, reason string) domain.ClassificationResult {
	docType := domain.DocTypeUnknown
	if m := docTypeLine.FindStringSubmatch(response); m != nil {
		docType = normalizeDocType(m[1])
	}

	fieldsText := "[]"
	if m := fieldsLine.FindStringSubmatch(response); m != nil {
		fieldsText = strings.TrimSpace(m[1])
	}

	var fields []string
	switch {
	case strings.HasPrefix(fieldsText, "[") && strings.HasSuffix(fieldsText, "]"):
		var list []any
		if err := json.Unmarshal([]byte(fieldsText), &list); err == nil {
			fields = stringFields(list)
		}
	case fieldsText != "":
		for _, part := range splitOutsideQuotes(fieldsText) {
			if f := strings.Trim(part, " \"\t\r\n"); f != "" {
				fields = append(fields, f)
			}
		}
	}

	if len(fields) == 0 && docType != domain.DocTypeUnknown {
		if defaults, ok := catalog.Lookup(docType); ok {
			return domain.ClassificationResult{
				DocType: docType,
				Fields:  defaults,
				Outcome: domain.Fallback(reason + "; default fields for " + docType),
			}
		}
	}
	if fields == nil {
		fields = []string{}
	}
	return domain.ClassificationResult{DocType: docType, Fields: fields, Outcome: domain.Fallback(reason)}
}

func normalizeDocType(raw string) string {
	docType := strings.ToLower(strings.TrimSpace(raw))
	if docType == "" {
		return domain.DocTypeUnknown
	}
	return docType
}

// stringFields keeps non-empty string entries, trimmed.
func stringFields(list []any) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitOutsideQuotes splits on commas followed by an even number of double quotes.
func splitOutsideQuotes(s string) []string {
	remaining := strings.Count(s, `"`)
	var parts []string
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			remaining--
		case ',':
			if remaining%2 == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// scalarString renders a decoded JSON value the way it would be printed.
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
