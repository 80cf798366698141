package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lex-codes11/skipbot/internal/metrics"
)

// RequestLogger logs basic request details and latency, and feeds the
// request-duration histogram.
func RequestLogger(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.RequestDuration.WithLabelValues(routePattern(r.URL.Path)).Observe(elapsed.Seconds())
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")
	})
}

// routePattern collapses request paths onto the registered routes so the
// duration histogram keeps a fixed label set; arbitrary scanner paths would
// otherwise mint a new series each.
func routePattern(path string) string {
	if _, ok := parseAvailabilityPath(path); ok {
		return "/venues/{venue}/availability"
	}
	switch path {
	case "/health", "/metrics", "/webhook/payment",
		"/admin/sales", "/admin/sales/move", "/admin/passphrases":
		return path
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// BearerAuth guards the administrative surface. The engine behind it runs
// no identity checks of its own, so nothing may reach it without passing
// here first. An empty configured token disables the surface outright.
func BearerAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "admin surface disabled")
			return
		}
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
