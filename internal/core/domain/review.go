package domain

import (
	"encoding/json"
	"fmt"
)

type ReviewStatus string

const (
	ReviewPass  ReviewStatus = "PASS"
	ReviewFail  ReviewStatus = "FAIL"
	ReviewError ReviewStatus = "ERROR"
)

const (
	ReviewNoSource       = "No source document info"
	ReviewPromptFailed   = "Failed prompt creation"
	ReviewParsingFailed  = "Parsing failed"
	ReviewInvalidItem    = "Invalid review item format"
	ReviewFieldNotFound  = "Field not found in review response"
	reviewInvalidStatusF = "Invalid status: %s"
)

type FieldReview struct {
	Status   ReviewStatus `json:"status"`
	Feedback string       `json:"feedback"`
}

func InvalidStatusReview(status string) FieldReview {
	return FieldReview{Status: ReviewFail, Feedback: fmt.Sprintf(reviewInvalidStatusF, status)}
}

// ReviewResult maps every reviewed field to a verdict, in review order.
type ReviewResult struct {
	fields  []string
	items   map[string]FieldReview
	Outcome ParseOutcome `json:"-"`
}

// NewReviewResult starts every field with the same verdict.
func NewReviewResult(fields []string, initial FieldReview, outcome ParseOutcome) ReviewResult {
	unique := uniqueFields(fields)
	items := make(map[string]FieldReview, len(unique))
	for _, f := range unique {
		items[f] = initial
	}
	return ReviewResult{fields: unique, items: items, Outcome: outcome}
}

func (r *ReviewResult) Set(field string, item FieldReview) {
	if r.items == nil {
		r.items = make(map[string]FieldReview)
	}
	if _, ok := r.items[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.items[field] = item
}

func (r ReviewResult) Item(field string) (FieldReview, bool) {
	item, ok := r.items[field]
	return item, ok
}

func (r ReviewResult) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r ReviewResult) Len() int {
	return len(r.fields)
}

func (r ReviewResult) Clone() ReviewResult {
	out := ReviewResult{
		fields:  r.Fields(),
		items:   make(map[string]FieldReview, len(r.items)),
		Outcome: r.Outcome,
	}
	for k, v := range r.items {
		out.items[k] = v
	}
	return out
}

// Counts returns the number of fields per status.
func (r ReviewResult) Counts() map[ReviewStatus]int {
	counts := make(map[ReviewStatus]int, 3)
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts
}

func (r ReviewResult) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.fields, func(key string) any { return r.items[key] })
}

func (r *ReviewResult) UnmarshalJSON(data []byte) error {
	*r = NewReviewResult(nil, FieldReview{}, Parsed())
	return unmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		var item FieldReview
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		r.Set(key, item)
		return nil
	})
}
