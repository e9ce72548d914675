package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePathCollapsesSessionIDs(t *testing.T) {
	cases := map[string]string{
		"/v1/sessions":                  "/v1/sessions",
		"/v1/sessions/":                 "/v1/sessions/",
		"/v1/sessions/abc":              "/v1/sessions/{id}",
		"/v1/sessions/abc/classify":     "/v1/sessions/{id}/classify",
		"/v1/sessions/abc/report/extra": "/v1/sessions/{id}/report/extra",
		"/healthz":                      "/healthz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStageObservationsAreExported(t *testing.T) {
	m := NewHTTPServerMetrics("docai-api")
	m.ObserveStage("classify", "parsed", 150*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `docai_pipeline_stage_total{outcome="parsed",service="docai-api",stage="classify"} 1`) {
		t.Fatalf("stage counter missing from exposition:\n%s", body)
	}
}
