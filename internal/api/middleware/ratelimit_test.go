package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	handler := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusTooManyRequests, do())
}

func TestVisitorMapSweepsStaleEntries(t *testing.T) {
	now := time.Now()
	v := &visitorMap{
		entries: map[string]*visitorEntry{
			"198.51.100.1": {limiter: rate.NewLimiter(1, 1), last: now.Add(-visitorStaleAfter - time.Minute)},
			"198.51.100.2": {limiter: rate.NewLimiter(1, 1), last: now},
		},
		lastSweep: now.Add(-visitorSweepEvery - time.Minute),
	}

	v.get("198.51.100.3", 1, 1)

	require.NotContains(t, v.entries, "198.51.100.1")
	require.Contains(t, v.entries, "198.51.100.2")
	require.Contains(t, v.entries, "198.51.100.3")
}
