package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropchain/internal/platform/logger"
	platformmetrics "cropchain/internal/platform/metrics"
	"cropchain/pkg/platform/httputil"
	"cropchain/pkg/requestcontext"
)

func newTestRouter(checks map[string]HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Logger:     logger.Discard(),
		Latency:    platformmetrics.NewWithRegisterer(reg),
		Gatherer:   reg,
		AdminToken: "operator-secret",
		Public: []Routes{RouteFunc(func(r chi.Router) {
			r.Get("/api/echo", func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"request_id": requestcontext.RequestID(ctx),
					"client_ip":  requestcontext.ClientIP(ctx),
					"has_time":   !requestcontext.Now(ctx).IsZero(),
				})
			})
			r.Post("/api/echo", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			r.Get("/api/panic", func(http.ResponseWriter, *http.Request) {
				panic("boom")
			})
		})},
		Admin: []Routes{RouteFunc(func(r chi.Router) {
			r.Get("/admin/ping", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})},
		Checks: checks,
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterMiddleware(t *testing.T) {
	router := newTestRouter(nil)

	t.Run("request metadata reaches handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
		req.Header.Set("X-Request-ID", "req-123")
		req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

		rec := serve(router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
		assert.JSONEq(t, `{"request_id":"req-123","client_ip":"198.51.100.7","has_time":true}`, rec.Body.String())
	})

	t.Run("panics become 500", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})

	t.Run("non-json body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("a=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := serve(router, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("admin routes need the token", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		req.Header.Set("X-Admin-Token", "operator-secret")
		rec = serve(router, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("metrics exposes route latency", func(t *testing.T) {
		serve(router, httptest.NewRequest(http.MethodGet, "/api/echo", nil))
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `cropchain_http_requests_total{method="GET",route="/api/echo",status="200"}`)
	})
}

func TestHealth(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		rec := serve(newTestRouter(nil), httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("failing dependency degrades", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"connection refused"}}`, rec.Body.String())
	})
}
