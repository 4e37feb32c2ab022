package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesRecordedValues(t *testing.T) {
	m := New()
	m.RecordParse(ParseOutcome{Status: "completed", Duration: time.Second, Sections: 12, Empty: 2, PageErrors: 1})
	m.RecordSearch("ok", 3)
	m.RecordHTTP("/api/search", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`spectoc_parse_runs_total{status="completed"} 1`,
		"spectoc_sections_extracted_total 12",
		"spectoc_sections_empty_total 2",
		"spectoc_search_results_total 3",
		`spectoc_http_requests_total{route="/api/search",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordParse(ParseOutcome{Status: "failed"})
	m.RecordSearch("invalid", 0)
	m.RecordHTTP("/health", 200, time.Millisecond)
	m.ObserveSection(time.Millisecond)
	m.SetQueued(3)
	m.RecordIndexBuild()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("expected 404 from nil metrics handler, got %d", rec.Code)
	}
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	a, b := New(), New()
	a.RecordIndexBuild()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), "spectoc_index_builds_total 1") {
		t.Error("expected registries to be independent")
	}
}
