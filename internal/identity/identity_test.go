package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ashureev/softsell/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestMiddlewareIssuesVisitorCookie(t *testing.T) {
	repo := newRepo(t)

	var seenVisitor, seenSession string
	var seenNew bool
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenVisitor = VisitorIDFromContext(r.Context())
		seenSession = SessionIDFromContext(r.Context())
		seenNew = IsNewVisitor(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	req.Header.Set(SessionHeaderName, "tab-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, isValidVisitorID(seenVisitor), "unexpected visitor id %q", seenVisitor)
	assert.Equal(t, "tab-1", seenSession)
	assert.True(t, seenNew)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookieName, cookies[0].Name)
	assert.Equal(t, seenVisitor, cookies[0].Value)

	visitor, err := repo.GetVisitor(context.Background(), seenVisitor)
	require.NoError(t, err)
	require.NotNil(t, visitor)
}

func TestMiddlewareReusesExistingCookie(t *testing.T) {
	repo := newRepo(t)
	existing := "visitor_0123456789abcdef0123456789abcdef"

	var seen string
	seenNew := true
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorIDFromContext(r.Context())
		seenNew = IsNewVisitor(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: existing})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, existing, seen)
	assert.False(t, seenNew)
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	repo := newRepo(t)

	var seen string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: "../../etc/passwd"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEqual(t, "../../etc/passwd", seen)
	assert.True(t, isValidVisitorID(seen))
}

func TestSanitizeSessionID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tab-42", sanitizeSessionID(" tab-42 "))
	assert.Equal(t, DefaultSessionIDValue, sanitizeSessionID(""))
	assert.Equal(t, DefaultSessionIDValue, sanitizeSessionID("bad id with spaces"))
	assert.Equal(t, DefaultSessionIDValue, SessionIDFromContext(context.Background()))
}
