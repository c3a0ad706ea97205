package cataloghandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"dqeval/internal/domain/catalog"
)

type stubCatalog struct {
	err error
}

func (s stubCatalog) ListUsers(context.Context) ([]catalog.User, error) {
	return []catalog.User{{ID: 1, FirstName: "Ada", LastName: "L"}}, s.err
}

func (s stubCatalog) ListStakeholderGroups(context.Context) ([]catalog.StakeholderGroup, error) {
	return []catalog.StakeholderGroup{{ID: 3, Name: "Finance", Users: []catalog.User{{ID: 1}}}}, s.err
}

func (s stubCatalog) ListProcesses(context.Context) ([]catalog.Process, error) {
	return []catalog.Process{}, s.err
}

func (s stubCatalog) ListDataTypes(context.Context) ([]catalog.DataType, error) {
	return []catalog.DataType{}, s.err
}

func (s stubCatalog) ListQualityCriteria(context.Context) ([]catalog.QualityCriterion, error) {
	return []catalog.QualityCriterion{{ID: 10, Name: "Accuracy", Guidelines: "Values match the source"}}, s.err
}

func get(t *testing.T, svc Service, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCatalogRoutes(t *testing.T) {
	rec := get(t, stubCatalog{}, "/stakeholders")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Finance"`) {
		t.Fatalf("expected stakeholder groups, got %d %s", rec.Code, rec.Body.String())
	}

	rec = get(t, stubCatalog{}, "/quality-criteria")
	if !strings.Contains(rec.Body.String(), `"guidelines":"Values match the source"`) {
		t.Fatalf("expected guidelines, got %s", rec.Body.String())
	}

	rec = get(t, stubCatalog{}, "/processes")
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestCatalogFailure(t *testing.T) {
	rec := get(t, stubCatalog{err: errors.New("db down")}, "/users")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "catalog_unavailable") {
		t.Fatalf("expected 503, got %d %s", rec.Code, rec.Body.String())
	}
}
