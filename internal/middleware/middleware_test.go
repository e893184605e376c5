package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/softsell/internal/identity"
	"github.com/ashureev/softsell/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimiterPerVisitor(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(60, 2)
	h := l.Middleware(okHandler())

	send := func(visitor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		req = req.WithContext(identity.WithVisitor(req.Context(), visitor, ""))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("v1").Code)
	assert.Equal(t, http.StatusNoContent, send("v1").Code)
	limited := send("v1")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("v2").Code, "other visitors are unaffected")
}

func TestRateLimiterThrottlesCookielessClientsByIP(t *testing.T) {
	t.Parallel()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "ratelimit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	l := NewRateLimiter(60, 1)
	h := identity.Middleware(repo, true)(l.Middleware(okHandler()))

	send := func(remote string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		req.RemoteAddr = remote
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("10.0.0.1:1000")
	require.Equal(t, http.StatusNoContent, first.Code)
	for i := range 4 {
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1000").Code, "cookieless request %d", i+2)
	}
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:1000").Code, "other addresses are unaffected")

	// A returning visitor gets its own bucket.
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:1000", cookies[0]).Code)
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1000", cookies[0]).Code)
}

func TestRateLimiterFallsBackToIP(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(60, 1)
	h := l.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.RemoteAddr = "10.0.0.1:5678"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterEvict(t *testing.T) {
	t.Parallel()

	now := time.Now()
	l := NewRateLimiter(60, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(11 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Evict())
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "fresh")
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := CORS([]string{"https://softsell.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://softsell.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://softsell.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), identity.SessionHeaderName)

	req = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	t.Parallel()

	h := CORS([]string{"*"})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://anywhere.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
