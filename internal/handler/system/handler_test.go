package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func setupRouter(status Status) *chi.Mux {
	h := New(status, fixedCounter(2))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/api", h.RegisterAPIRoutes)
	return r
}

func TestHealthDegraded(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(Status{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["message"] != HealthMessage {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["llm"] != "degraded" {
		t.Fatalf("expected degraded llm, got %v", body["llm"])
	}
	if body["sessions"] != float64(2) {
		t.Fatalf("expected 2 sessions, got %v", body["sessions"])
	}
}

func TestHealthEnabled(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(Status{LLMEnabled: true, Provider: "gemini"}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["llm"] != "enabled" || body["provider"] != "gemini" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestToolsListing(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(Status{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/tools", nil))

	var defs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &defs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(defs) != 5 || defs[0].Name != "navigate" {
		t.Fatalf("unexpected tools: %+v", defs)
	}
}
