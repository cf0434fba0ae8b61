package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveGenerate("success", 10*time.Millisecond)
	m.ObserveGenerate("success", 20*time.Millisecond)
	m.ObserveSynthesis("endpoint_match")
	m.ObserveAlternate(true)
	m.ObserveIndexOp("search", false)

	if got := testutil.ToFloat64(m.generateRequests.WithLabelValues("success")); got != 2 {
		t.Errorf("generate_requests_total = %v", got)
	}
	if got := testutil.ToFloat64(m.synthesis.WithLabelValues("endpoint_match")); got != 1 {
		t.Errorf("synthesis_total = %v", got)
	}
	if got := testutil.ToFloat64(m.alternates.WithLabelValues("true")); got != 1 {
		t.Errorf("alternate_queries_total = %v", got)
	}
	if got := testutil.ToFloat64(m.indexOps.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("index_operations_total = %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveGenerate("failure", time.Second)
	m.ObserveSynthesis("no_context")
	m.ObserveAlternate(false)
	m.ObserveIndexOp("add", true)
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	if m.Registry() != nil {
		t.Error("nil metrics has no registry")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "apiquery_http_requests_total") {
		t.Error("exposition should include apiquery_http_requests_total")
	}
}
