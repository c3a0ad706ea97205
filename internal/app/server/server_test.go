package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dqeval/internal/domain/catalog"
	"dqeval/internal/domain/evaluation"
	"dqeval/internal/platform/config"
	"dqeval/internal/platform/metrics"
	evaluationhandler "dqeval/internal/transport/http/handlers/evaluation"
)

type stubEvaluations struct {
	evaluationhandler.Service
}

func (stubEvaluations) CurrentPeriod(context.Context) (evaluation.Period, error) {
	return evaluation.Period{ID: 1, Name: "2026 H1", Current: true}, nil
}

type stubCatalog struct{}

func (stubCatalog) ListUsers(context.Context) ([]catalog.User, error) { return []catalog.User{}, nil }
func (stubCatalog) ListStakeholderGroups(context.Context) ([]catalog.StakeholderGroup, error) {
	return []catalog.StakeholderGroup{}, nil
}
func (stubCatalog) ListProcesses(context.Context) ([]catalog.Process, error) {
	return []catalog.Process{}, nil
}
func (stubCatalog) ListDataTypes(context.Context) ([]catalog.DataType, error) {
	return []catalog.DataType{}, nil
}
func (stubCatalog) ListQualityCriteria(context.Context) ([]catalog.QualityCriterion, error) {
	return []catalog.QualityCriterion{}, nil
}

func testRouter(ready func(context.Context) error, collector *metrics.Collector) http.Handler {
	cfg := config.Defaults()
	return NewRouter(cfg, Deps{
		Evaluations: stubEvaluations{},
		Catalog:     stubCatalog{},
		Metrics:     collector,
		Ready:       ready,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestHealthAndReadiness(t *testing.T) {
	router := testRouter(func(context.Context) error { return errors.New("db down") }, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readyz 503, got %d", rec.Code)
	}
}

func TestAPIRoutesMounted(t *testing.T) {
	router := testRouter(nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/periods/current", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"2026 H1"`) {
		t.Fatalf("expected current period, got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatal("expected request id and rate limit headers")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quality-criteria", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected catalog route, got %d", rec.Code)
	}
}

func TestMetricsEndpointRecordsRoutes(t *testing.T) {
	collector := metrics.New()
	router := testRouter(nil, collector)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/periods/current", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/api/v1/periods/current"`) {
		t.Fatalf("expected route label in exposition, got %s", rec.Body.String())
	}
}
