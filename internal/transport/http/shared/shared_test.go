package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type samplePayload struct {
	Name   string `json:"name" validate:"required"`
	Scores []struct {
		Value int64 `json:"value" validate:"gte=0"`
	} `json:"scores" validate:"required,min=1,dive"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	issues := Validate(&samplePayload{})
	if len(issues) != 2 {
		t.Fatalf("expected two issues, got %+v", issues)
	}
	if issues[0].Field != "name" || issues[1].Field != "scores" {
		t.Fatalf("expected name and scores issues, got %+v", issues)
	}
}

func TestDecodeAndValidateRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	rec := httptest.NewRecorder()

	var p samplePayload
	if DecodeAndValidate(rec, req, &p, "") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_payload") {
		t.Fatalf("expected invalid_payload, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeAndValidateSurfacesIssues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","scores":[{"value":-1}]}`))
	rec := httptest.NewRecorder()

	var p samplePayload
	if DecodeAndValidate(rec, req, &p, "") {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(rec.Body.String(), `"scores[0].value"`) {
		t.Fatalf("expected nested field path, got %s", rec.Body.String())
	}
}

func TestDecodeAndValidateBodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	var p samplePayload
	if DecodeAndValidate(rec, req, &p, "") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestPathID(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("evaluationID", "42")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	id, err := PathID(req, "evaluationID")
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	if _, err := PathID(req, "missing"); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestParseLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if got := ParseLimit(req, 5, 50); got != 50 {
		t.Fatalf("expected clamp to 50, got %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/?limit=-3", nil)
	if got := ParseLimit(req, 5, 50); got != 5 {
		t.Fatalf("expected default 5, got %d", got)
	}
}
