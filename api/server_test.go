package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCreateSessionAndStep(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	body, _ := json.Marshal(CreateSessionRequest{Source: "addi t0, zero, 5\nebreak\n"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", bytes.NewReader(body))
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created CreateSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.SessionID == "" {
		t.Fatalf("expected a non-empty session id")
	}

	stepRR := httptest.NewRecorder()
	stepReq := httptest.NewRequest(http.MethodPost, "/api/v1/session/"+created.SessionID+"/step", nil)
	s.Handler().ServeHTTP(stepRR, stepReq)
	if stepRR.Code != http.StatusOK {
		t.Fatalf("expected 200 from step, got %d", stepRR.Code)
	}

	var stepResult StepResultResponse
	if err := json.Unmarshal(stepRR.Body.Bytes(), &stepResult); err != nil {
		t.Fatalf("failed to decode step result: %v", err)
	}
	if stepResult.Kind != "retired" {
		t.Fatalf("expected retired, got %q", stepResult.Kind)
	}
}

func TestCreateSessionWithAssemblyErrorReturns422(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	body, _ := json.Marshal(CreateSessionRequest{Source: "bogus_mnemonic x1, x2, x3\n"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", bytes.NewReader(body))
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/nope", nil)
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
