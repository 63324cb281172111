package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropchain/internal/platform/logger"
	"cropchain/internal/ratelimit/metrics"
	"cropchain/internal/ratelimit/models"
	"cropchain/internal/ratelimit/store/bucket"
	"cropchain/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, models.Limit) (*models.RateLimitResult, error) {
	return nil, errors.New("store unavailable")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func chatRequest(ip string, at time.Time) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "curl")
	ctx = requestcontext.WithTime(ctx, at)
	return req.WithContext(ctx)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limit := models.Limit{PerMinute: 2, Burst: 2}

	t.Run("allows within budget and sets headers", func(t *testing.T) {
		mw := New(bucket.NewInMemoryBucketStore(), logger.Discard(), WithLimit(models.ClassChat, limit))
		h := mw.RateLimit(models.ClassChat)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, chatRequest("10.0.0.1", now))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("rejects over budget with 429 body", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegisterer(reg)
		mw := New(bucket.NewInMemoryBucketStore(), logger.Discard(),
			WithLimit(models.ClassChat, limit), WithMetrics(m))
		h := mw.RateLimit(models.ClassChat)(okHandler())

		for range limit.Burst {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, chatRequest("10.0.0.2", now))
			require.Equal(t, http.StatusNoContent, rec.Code)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, chatRequest("10.0.0.2", now))

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		var body models.RateLimitExceededResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limited", body.Error)
		assert.Equal(t, 30, body.RetryAfter)

		assert.InDelta(t, 2, testutil.ToFloat64(m.Decisions.WithLabelValues("chat", "allowed")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Decisions.WithLabelValues("chat", "rejected")), 0)
	})

	t.Run("other clients keep their budget", func(t *testing.T) {
		mw := New(bucket.NewInMemoryBucketStore(), logger.Discard(), WithLimit(models.ClassChat, models.Limit{PerMinute: 1, Burst: 1}))
		h := mw.RateLimit(models.ClassChat)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, chatRequest("10.0.0.3", now))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, chatRequest("10.0.0.4", now))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("falls back to request address without metadata", func(t *testing.T) {
		mw := New(bucket.NewInMemoryBucketStore(), logger.Discard(), WithLimit(models.ClassChat, models.Limit{PerMinute: 1, Burst: 1}))
		h := mw.RateLimit(models.ClassChat)(okHandler())

		first := httptest.NewRequest(http.MethodPost, "/api/ai/chat", nil)
		first.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, first)
		require.Equal(t, http.StatusNoContent, rec.Code)

		second := httptest.NewRequest(http.MethodPost, "/api/ai/chat", nil)
		second.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("store failure lets the request through", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewWithRegisterer(reg)
		mw := New(failingStore{}, logger.Discard(), WithLimit(models.ClassChat, limit), WithMetrics(m))
		h := mw.RateLimit(models.ClassChat)(okHandler())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, chatRequest("10.0.0.5", now))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Errors), 0)
	})

	t.Run("class without limit and disabled middleware pass through", func(t *testing.T) {
		unlimited := New(failingStore{}, logger.Discard())
		rec := httptest.NewRecorder()
		unlimited.RateLimit(models.ClassRead)(okHandler()).ServeHTTP(rec, chatRequest("10.0.0.6", now))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

		disabled := New(failingStore{}, logger.Discard(), WithLimit(models.ClassChat, limit), WithDisabled(true))
		rec = httptest.NewRecorder()
		disabled.RateLimit(models.ClassChat)(okHandler()).ServeHTTP(rec, chatRequest("10.0.0.6", now))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestNewLimit(t *testing.T) {
	limit, err := models.NewLimit(30, 0)
	require.NoError(t, err)
	assert.Equal(t, models.Limit{PerMinute: 30, Burst: 30}, limit)

	_, err = models.NewLimit(0, 5)
	assert.Error(t, err)
}
