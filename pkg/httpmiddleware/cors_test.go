package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(h http.Handler, method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := CORS(CORSConfig{})(okHandler())

		w := corsRequest(h, http.MethodGet, "https://shop.example", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight for allowed origin", func(t *testing.T) {
		h := CORS(CORSConfig{
			AllowOrigins: []string{"https://Shop.Example"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       600,
		})(okHandler())

		w := corsRequest(h, http.MethodOptions, "https://shop.example", map[string]string{
			"Access-Control-Request-Method": http.MethodPost,
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
		// Configured spelling is echoed despite case-insensitive matching.
		assert.Equal(t, "https://Shop.Example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Values("Vary"), "Origin")
	})

	t.Run("preflight echoes requested headers when none configured", func(t *testing.T) {
		h := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())

		w := corsRequest(h, http.MethodOptions, "https://shop.example", map[string]string{
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "X-Custom",
		})

		assert.Equal(t, "X-Custom", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		h := CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}})(okHandler())

		w := corsRequest(h, http.MethodGet, "https://evil.example", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials disable the wildcard", func(t *testing.T) {
		h := CORS(CORSConfig{
			AllowOrigins:     []string{"https://shop.example"},
			AllowCredentials: true,
		})(okHandler())

		w := corsRequest(h, http.MethodGet, "https://shop.example", nil)
		assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("no origin header passes through untouched", func(t *testing.T) {
		h := CORS(CORSConfig{})(okHandler())

		w := corsRequest(h, http.MethodGet, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
