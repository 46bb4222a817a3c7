package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler(origins []string) http.Handler {
	config := DefaultCORSConfig()
	config.AllowedOrigins = origins

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CORS(config)(next)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := corsHandler([]string{"https://dashboard.example.com"})

	req := httptest.NewRequest("GET", "/api/blocked-requests", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	handler := corsHandler([]string{"https://dashboard.example.com"})

	req := httptest.NewRequest("GET", "/api/blocked-requests", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExtensionWildcard(t *testing.T) {
	handler := corsHandler([]string{"chrome-extension://*"})

	req := httptest.NewRequest("POST", "/api/blocked-requests", nil)
	req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "chrome-extension://abcdefghijklmnop", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_EmptyListFailsClosed(t *testing.T) {
	handler := corsHandler(nil)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := corsHandler([]string{"https://dashboard.example.com"})

	req := httptest.NewRequest("OPTIONS", "/api/blocked-requests", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
