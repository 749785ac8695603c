package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
)

func runReadiness(t *testing.T, h *HealthDependenciesHandler) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, body
}

func TestLiveness(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := NewHealthHandler().Liveness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	ok := Check{Name: "stub", Ping: func(context.Context) error { return nil }}
	files := FileCheck("users_file", filepath.Join(t.TempDir(), "users.txt"))

	rec, body := runReadiness(t, NewHealthDependenciesHandler(ok, files))
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Errorf("expected ok/200, got %s/%d", body.Status, rec.Code)
	}
	if body.Dependencies["users_file"].Status != "ok" {
		t.Errorf("file check: %+v", body.Dependencies["users_file"])
	}
}

func TestReadiness_Degraded(t *testing.T) {
	bad := Check{Name: "broker", Ping: func(context.Context) error { return errors.New("connection refused") }}
	missing := FileCheck("users_file", filepath.Join(t.TempDir(), "nope", "users.txt"))

	rec, body := runReadiness(t, NewHealthDependenciesHandler(bad, missing))
	if rec.Code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Errorf("expected degraded/503, got %s/%d", body.Status, rec.Code)
	}
	if body.Dependencies["broker"].Error != "connection refused" {
		t.Errorf("unexpected broker status: %+v", body.Dependencies["broker"])
	}
	if body.Dependencies["users_file"].Status != "unhealthy" {
		t.Errorf("missing directory must be unhealthy: %+v", body.Dependencies["users_file"])
	}
}
