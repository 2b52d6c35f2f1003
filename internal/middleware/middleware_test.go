package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	tb := NewTokenBucket(2, 0.5, now)

	assert.True(t, tb.Allow(now))
	assert.True(t, tb.Allow(now))
	assert.False(t, tb.Allow(now))

	assert.False(t, tb.Allow(now.Add(time.Second)))
	assert.True(t, tb.Allow(now.Add(2*time.Second)))
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 0.001)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:2000"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:1000"))

	rl.now = func() time.Time { return time.Now().Add(time.Hour) }
	rl.Sweep(time.Minute)
	assert.Empty(t, rl.buckets)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	m.AnalysisDone(nil)
	m.AnalysisDone(errors.New("x"))
	m.Fallback()

	rec := httptest.NewRecorder()
	m.Handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 2, got["requests_total"])
	assert.EqualValues(t, 1, got["requests_success"])
	assert.EqualValues(t, 1, got["requests_failed"])
	assert.EqualValues(t, 0, got["requests_in_progress"])
	assert.EqualValues(t, 2, got["analyses_total"])
	assert.EqualValues(t, 1, got["analyses_failed"])
	assert.EqualValues(t, 1, got["fallbacks_served"])
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hi"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/users/u1/history", strings.NewReader("secret diary")))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/v1/users/u1/history", fields["path"])
	assert.EqualValues(t, http.StatusCreated, fields["status"])
	assert.EqualValues(t, 2, fields["bytes"])
	for _, v := range fields {
		assert.NotEqual(t, "secret diary", v)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"store": ok})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"store": down})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "connection refused", status.Checks["store"].Message)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateUserID("wx_user-01"))
	assert.Error(t, ValidateUserID(""))
	assert.Error(t, ValidateUserID("../etc"))
	assert.Error(t, ValidateUserID(strings.Repeat("a", 65)))

	assert.NoError(t, ValidateText("最近好累"))
	assert.NoError(t, ValidateText(strings.Repeat("累", MaxTextRunes)))
	assert.Error(t, ValidateText(strings.Repeat("累", MaxTextRunes+1)))

	assert.Equal(t, "abc", SanitizeString(" a\x00b\x07c "))

	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 50, ValidateLimit(500))
	assert.Equal(t, 7, ValidateLimit(7))
}
