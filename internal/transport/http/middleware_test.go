package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		token          string
		header         string
		expectedStatus int
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusNoContent},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"empty configured token disables surface", "", "Bearer anything", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/sales", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			BearerAuth(tt.token, next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/webhook/payment", "/webhook/payment"},
		{"/venues/ATL/availability", "/venues/{venue}/availability"},
		{"/venues/FL/availability", "/venues/{venue}/availability"},
		{"/admin/sales/move", "/admin/sales/move"},
		{"/wp-login.php", "other"},
		{"/venues/ATL", "other"},
		{"/", "other"},
	}
	for _, tt := range tests {
		if got := routePattern(tt.path); got != tt.want {
			t.Fatalf("routePattern(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	RequestLogger(next, logger).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status passthrough, got %d", rec.Code)
	}
	line := buf.String()
	if !strings.Contains(line, `"path":"/health"`) || !strings.Contains(line, `"status":418`) {
		t.Fatalf("unexpected log line %s", line)
	}
}
