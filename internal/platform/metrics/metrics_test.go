package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCountsRequestsAndRateLimits(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/v1/evaluations/{evaluationID}/scores", http.StatusOK, 5*time.Millisecond)
	c.Record(http.MethodPost, "/api/v1/evaluations", http.StatusTooManyRequests, time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues(http.MethodGet, "/api/v1/evaluations/{evaluationID}/scores", "200")); got != 1 {
		t.Fatalf("expected one ok request, got %v", got)
	}
	if got := testutil.ToFloat64(c.rateLimited); got != 1 {
		t.Fatalf("expected one rate limited request, got %v", got)
	}
}

func TestObserveSubmissionCountsPersistedRows(t *testing.T) {
	c := New()
	c.ObserveSubmission("completed", 12)
	c.ObserveSubmission("failed", 0)

	if got := testutil.ToFloat64(c.scoresPersisted); got != 12 {
		t.Fatalf("expected 12 persisted scores, got %v", got)
	}
	if got := testutil.ToFloat64(c.submissions.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected one failed submission, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := New()
	c.ObserveAggregation("data_type", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dqeval_evaluation_aggregation_duration_seconds") {
		t.Fatal("expected aggregation histogram in exposition")
	}
}
