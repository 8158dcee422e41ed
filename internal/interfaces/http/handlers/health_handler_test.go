package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	handler := NewHealthHandler("test-version")
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != 200 {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHealthHandler_ReadinessNoCheckers(t *testing.T) {
	handler := NewHealthHandler("test-version")
	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != 200 {
		t.Errorf("expected status 200 with no checkers configured, got %d", w.Code)
	}
}
