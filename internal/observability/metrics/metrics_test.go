package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsNormalizedPaths(t *testing.T) {
	m := NewHTTPServerMetrics("scalp-api")
	handler := m.Middleware("scalp-api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, path := range []string{"/v1/predictions/a", "/v1/predictions/b"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("scalp-api", http.MethodGet, "/v1/predictions/{id}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests on normalized path, got %v", got)
	}
	if normalizePath("/v1/predictions/export") != "/v1/predictions/export" {
		t.Fatalf("export path must not be normalized")
	}
	if got := normalizePath("/v1/diseases/psoriasis"); got != "/v1/diseases/{key}" {
		t.Fatalf("unexpected normalized disease path %q", got)
	}
}

func TestRecordPrediction(t *testing.T) {
	m := NewHTTPServerMetrics("scalp-api")
	stage := 3
	m.RecordPrediction("scalp-api", "Psoriasis", &stage, 0.9)
	m.RecordPrediction("scalp-api", "No Disease", nil, 0.99)

	if got := testutil.ToFloat64(m.predictionsTotal.WithLabelValues("scalp-api", "Psoriasis", "3")); got != 1 {
		t.Fatalf("expected staged prediction counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.predictionsTotal.WithLabelValues("scalp-api", "No Disease", "none")); got != 1 {
		t.Fatalf("expected unstaged prediction counter 1, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "scalp_prediction_total") {
		t.Fatalf("expected prediction metric in exposition")
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("scalp-worker")
	m.StartEvent()
	m.FinishEvent("scalp-worker", 10*time.Millisecond, nil)
	m.StartEvent()
	m.FinishEvent("scalp-worker", 10*time.Millisecond, errors.New("db down"))
	m.ObserveQueueLag("scalp-worker", -time.Second)

	if got := testutil.ToFloat64(m.processTotal.WithLabelValues("scalp-worker", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(m.processInFlight); got != 0 {
		t.Fatalf("expected no in-flight events, got %v", got)
	}
}
