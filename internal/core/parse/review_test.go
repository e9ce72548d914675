package parse

import (
	"strings"
	"testing"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

func TestReviewMissingFieldDefaultsToError(t *testing.T) {
	response := `{"Invoice #": {"status": "PASS", "feedback": ""}, "Total": {"status": "fail", "feedback": " wrong amount "}}`
	got := Review(response, []string{"Invoice #", "Total", "Date"})

	if item, _ := got.Item("Invoice #"); item.Status != domain.ReviewPass {
		t.Fatalf("expected PASS, got %+v", item)
	}
	item, _ := got.Item("Total")
	if item.Status != domain.ReviewFail || item.Feedback != "wrong amount" {
		t.Fatalf("expected trimmed FAIL verdict, got %+v", item)
	}
	item, _ = got.Item("Date")
	if item.Status != domain.ReviewError || item.Feedback != domain.ReviewFieldNotFound {
		t.Fatalf("expected not-found error, got %+v", item)
	}
}

func TestReviewInvalidStatusIsCoercedToFail(t *testing.T) {
	got := Review("```json\n{\"Total\": {\"status\": \"PASSED\", \"feedback\": \"ok\"}}\n```", []string{"Total"})
	item, _ := got.Item("Total")
	if item.Status != domain.ReviewFail {
		t.Fatalf("expected FAIL, got %+v", item)
	}
	if !strings.Contains(item.Feedback, "PASSED") {
		t.Fatalf("expected feedback to name the invalid status, got %q", item.Feedback)
	}
}

func TestReviewInvalidItemFormat(t *testing.T) {
	got := Review(`{"Total": "PASS", "Date": {"feedback": "no status"}, "Vendor": null}`, []string{"Total", "Date", "Vendor"})
	for _, field := range []string{"Total", "Date"} {
		item, _ := got.Item(field)
		if item.Status != domain.ReviewError || item.Feedback != domain.ReviewInvalidItem {
			t.Fatalf("%s: expected invalid item error, got %+v", field, item)
		}
	}
	item, _ := got.Item("Vendor")
	if item.Feedback != domain.ReviewFieldNotFound {
		t.Fatalf("expected null item to count as missing, got %+v", item)
	}
}

func TestReviewUndecodableReplyLeavesParsingFailed(t *testing.T) {
	for _, response := range []string{"no json here", `{"Total": {"status": "PASS"}`} {
		got := Review(response, []string{"Total", "Date"})
		if got.Len() != 2 {
			t.Fatalf("expected 2 fields, got %d", got.Len())
		}
		for _, field := range got.Fields() {
			item, _ := got.Item(field)
			if item.Status != domain.ReviewError || item.Feedback != domain.ReviewParsingFailed {
				t.Fatalf("%q: expected parsing failed for %s, got %+v", response, field, item)
			}
		}
		if got.Outcome.Kind != domain.OutcomeFailed {
			t.Fatalf("expected failed outcome, got %+v", got.Outcome)
		}
	}
}

func TestReviewCaseInsensitiveLookupAndSurroundingProse(t *testing.T) {
	response := "Review complete.\n{\"invoice #\": {\"status\": \"pass\"}}\nThanks."
	got := Review(response, []string{"Invoice #"})
	item, _ := got.Item("Invoice #")
	if item.Status != domain.ReviewPass || item.Feedback != "" {
		t.Fatalf("expected PASS with empty feedback, got %+v", item)
	}
}
