package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthzOK(t *testing.T) {
	srv := NewServer(ServerOptions{
		Checks: map[string]Check{
			"store": func(context.Context) error { return nil },
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Checks["store"] != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthzDegraded(t *testing.T) {
	srv := NewServer(ServerOptions{
		Checks: map[string]Check{
			"redis": func(context.Context) error { return errors.New("connection refused") },
			"store": func(context.Context) error { return nil },
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("body should carry the failing check: %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	MustRegister()
	IncUpdate("message")

	srv := NewServer(ServerOptions{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "telegram_updates_received_total") {
		t.Fatal("expected telegram_updates_received_total in exposition")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := NewServer(ServerOptions{})
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
