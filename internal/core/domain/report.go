package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldReport is one row of the combined extraction and review output.
type FieldReport struct {
	Field    string       `json:"-"`
	Value    any          `json:"value"`
	Status   ReviewStatus `json:"status,omitempty"`
	Feedback string       `json:"feedback,omitempty"`
}

type Report struct {
	Filename string        `json:"-"`
	DocType  string        `json:"doc_type"`
	Fields   []FieldReport `json:"-"`
}

// BuildReport merges extraction values with review verdicts. review may be nil.
func BuildReport(filename, docType string, extraction ExtractionResult, review *ReviewResult) Report {
	rep := Report{Filename: filename, DocType: docType}
	for _, field := range extraction.Fields() {
		value, _ := extraction.Value(field)
		row := FieldReport{Field: field, Value: value}
		if review != nil {
			if item, ok := review.Item(field); ok {
				row.Status = item.Status
				row.Feedback = item.Feedback
			}
		}
		rep.Fields = append(rep.Fields, row)
	}
	return rep
}

func (r Report) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Fields))
	rows := make(map[string]FieldReport, len(r.Fields))
	for _, row := range r.Fields {
		keys = append(keys, row.Field)
		rows[row.Field] = row
	}
	fields, err := marshalOrdered(keys, func(key string) any { return rows[key] })
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		DocType string          `json:"doc_type"`
		Fields  json.RawMessage `json:"fields"`
	}{DocType: r.DocType, Fields: fields})
}

// ValueString flattens an extracted value for tabular output.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, ValueString(item))
		}
		return strings.Join(parts, "; ")
	case []string:
		return strings.Join(val, "; ")
	default:
		if b, err := encodeJSON(val); err == nil {
			return string(b)
		}
		return fmt.Sprint(val)
	}
}
