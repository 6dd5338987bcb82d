package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/v1/insights/panels/{panelId}/summary", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/insights/panels/p1/summary", nil))
	m.CacheHit()
	m.PanelSkipped()
	m.EvaluationIngested(false)
	m.ObserveOperation("aggregate", time.Now())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	out := string(body)

	for _, want := range []string{
		`http_requests_total{route="/v1/insights/panels/{panelId}/summary",status="404"} 1`,
		`summary_cache_hits_total 1`,
		`compare_skipped_panels_total 1`,
		`evaluations_ingested_total{outcome="duplicate"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CacheHit()
	m.CacheMiss()
	m.PanelSkipped()
	m.EvaluationIngested(true)
	m.ObserveOperation("x", time.Now())
}
