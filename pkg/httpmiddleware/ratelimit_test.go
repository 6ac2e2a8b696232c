package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(h http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Run("allows up to max per window", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())
		for i := range 3 {
			w := hit(h, "10.0.0.1:1000", nil)
			require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		}

		w := hit(h, "10.0.0.1:1000", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("429 carries headers and a JSON body", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
		hit(h, "10.0.0.2:1000", nil)
		w := hit(h, "10.0.0.2:1000", nil)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, float64(429), body["code"])
		assert.Equal(t, "rate limit exceeded", body["message"])
	})

	t.Run("remaining budget counts down", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

		for _, want := range []string{"2", "1", "0"} {
			w := hit(h, "10.0.0.5:1000", nil)
			assert.Equal(t, want, w.Header().Get("X-RateLimit-Remaining"))
		}
	})

	t.Run("window expiry resets the budget", func(t *testing.T) {
		rl := newRateLimiter(RateLimitConfig{Max: 1, Window: 50 * time.Millisecond})
		now := time.Now()

		_, _, allowed := rl.allow("k", now)
		require.True(t, allowed)
		_, _, allowed = rl.allow("k", now)
		require.False(t, allowed)
		_, _, allowed = rl.allow("k", now.Add(50*time.Millisecond))
		assert.True(t, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.3:1", nil).Code)
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4:1", nil).Code)
		// Same client, different port: still the same key.
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.3:2", nil).Code)
	})

	t.Run("custom key func", func(t *testing.T) {
		h := RateLimit(RateLimitConfig{
			Max:     1,
			Window:  time.Minute,
			KeyFunc: func(r *http.Request) string { return r.Header.Get("X-API-Key") },
		})(okHandler())

		assert.Equal(t, http.StatusOK, hit(h, "", map[string]string{"X-API-Key": "key-a"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(h, "", map[string]string{"X-API-Key": "key-a"}).Code)
		assert.Equal(t, http.StatusOK, hit(h, "", map[string]string{"X-API-Key": "key-b"}).Code)
	})
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:4444", nil, "192.0.2.1"},
		{"x-real-ip wins over remote addr", "192.0.2.1:4444", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"forwarded chain uses first entry", "192.0.2.1:4444", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, "203.0.113.50"},
		{"single forwarded entry", "192.0.2.1:4444", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(req))
		})
	}
}
