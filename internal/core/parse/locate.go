// Package parse recovers typed stage results from free-form model replies.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

var fencedJSON = regexp.MustCompile("(?is)```json\n(.*?)\n```")

// fencedBlock returns the body of the first ```json fenced block.
func fencedBlock(response string) (string, bool) {
	m := fencedJSON.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// balancedObject returns the first brace-balanced span starting at a '{'
// that decodes as a JSON object. Braces inside string literals are ignored.
func balancedObject(response string) (string, bool) {
	for start := strings.IndexByte(response, '{'); start >= 0; {
		if end := matchBrace(response, start); end > start {
			candidate := response[start : end+1]
			if isJSONObject(candidate) {
				return candidate, true
			}
		}
		next := strings.IndexByte(response[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isJSONObject(s string) bool {
	var probe map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &probe) == nil
}

// outerSpan returns the text from the first '{' to the last '}'.
func outerSpan(response string) (string, bool) {
	first := strings.IndexByte(response, '{')
	last := strings.LastIndexByte(response, '}')
	if first < 0 || last < first {
		return "", false
	}
	return strings.TrimSpace(response[first : last+1]), true
}

// object is a decoded JSON object that remembers key order.
type object struct {
	keys   []string
	values map[string]any
	lower  map[string]string
}

func decodeObject(raw string) (object, error) {
	var ordered domain.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &ordered); err != nil {
		return object{}, err
	}
	obj := object{
		keys:   ordered.Fields(),
		values: make(map[string]any, ordered.Len()),
		lower:  make(map[string]string, ordered.Len()),
	}
	for _, key := range obj.keys {
		obj.values[key], _ = ordered.Value(key)
		obj.lower[normalizeKey(key)] = key
	}
	return obj, nil
}

// lookup resolves field by trimmed lowercase key, then by exact name. When
// several keys normalize to the same name the last one in the reply wins.
func (o object) lookup(field string) (any, bool) {
	if key, ok := o.lower[normalizeKey(field)]; ok {
		return o.values[key], true
	}
	v, ok := o.values[field]
	return v, ok
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
