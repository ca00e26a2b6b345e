package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCounter struct {
	total int64
	err   error
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) {
	return f.total, f.err
}

func TestHealth_Live(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestHealth_Ready(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{total: 3})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Recipes == nil || *resp.Recipes != 3 {
		t.Errorf("recipes = %v, want 3", resp.Recipes)
	}
}

func TestHealth_ReadyDatabaseDown(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{err: errors.New("database is locked")})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealth_Stats(t *testing.T) {
	h := NewHealthHandler(&fakeCounter{total: 12})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats SystemStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Recipes != 12 {
		t.Errorf("recipes = %d, want 12", stats.Recipes)
	}
	if stats.NumCPU < 1 {
		t.Errorf("num_cpu = %d", stats.NumCPU)
	}
}
