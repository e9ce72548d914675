package domain

import (
	"encoding/json"
	"strings"
)

const (
	ExtractionNoInput        = "Error: No input"
	ExtractionPromptFailed   = "Error: Failed prompt creation"
	LLMErrorPrefix           = "Error:"
	llmTransportErrorMessage = "Error: Could not get response from LLM. Details: "
)

// ExtractionResult maps every requested field to its extracted value. Values
// are nil, string, []any, json.Number or an error sentinel string. The JSON
// form keeps the requested field order.
type ExtractionResult struct {
	fields  []string
	values  map[string]any
	Outcome ParseOutcome `json:"-"`
}

// NewExtractionResult returns a result with every field set to nil.
func NewExtractionResult(fields []string) ExtractionResult {
	unique := uniqueFields(fields)
	values := make(map[string]any, len(unique))
	for _, f := range unique {
		values[f] = nil
	}
	return ExtractionResult{fields: unique, values: values, Outcome: Parsed()}
}

// ExtractionFilled maps every field to the same value.
func ExtractionFilled(fields []string, value any, outcome ParseOutcome) ExtractionResult {
	res := NewExtractionResult(fields)
	for _, f := range res.fields {
		res.values[f] = value
	}
	res.Outcome = outcome
	return res
}

// Set assigns a value. Unknown fields are appended.
func (r *ExtractionResult) Set(field string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

func (r ExtractionResult) Value(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

func (r ExtractionResult) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r ExtractionResult) Len() int {
	return len(r.fields)
}

func (r ExtractionResult) Clone() ExtractionResult {
	out := ExtractionResult{
		fields:  r.Fields(),
		values:  make(map[string]any, len(r.values)),
		Outcome: r.Outcome,
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.fields, func(key string) any { return r.values[key] })
}

func (r *ExtractionResult) UnmarshalJSON(data []byte) error {
	*r = NewExtractionResult(nil)
	return unmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		v, err := DecodeValue(raw)
		if err != nil {
			return err
		}
		r.Set(key, v)
		return nil
	})
}

// IsLLMError reports whether a model reply is the failure signal of the LLM boundary.
func IsLLMError(reply string) bool {
	return strings.HasPrefix(strings.TrimSpace(reply), LLMErrorPrefix)
}

// LLMErrorReply renders a transport failure as an LLM failure reply.
func LLMErrorReply(err error) string {
	return llmTransportErrorMessage + err.Error()
}
