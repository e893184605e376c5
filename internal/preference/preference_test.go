package preference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/softsell/internal/identity"
	"github.com/ashureev/softsell/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo), repo
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stored string
		osDark bool
		want   bool
	}{
		{"", false, false},
		{"", true, true},
		{"true", false, true},
		{"false", true, false},
		{"yes", true, false},
		{"TRUE", true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.stored, tt.osDark), "stored=%q os=%v", tt.stored, tt.osDark)
	}
}

func TestOSPrefersDark(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, OSPrefersDark(req))

	req.Header.Set(ColorSchemeHintHeader, `"dark"`)
	assert.True(t, OSPrefersDark(req))

	req = httptest.NewRequest(http.MethodGet, "/?prefers=light", nil)
	req.Header.Set(ColorSchemeHintHeader, "dark")
	assert.False(t, OSPrefersDark(req), "query overrides header")
}

func TestServiceDarkMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := newService(t)

	dark, err := svc.DarkMode(ctx, "v1", true)
	require.NoError(t, err)
	assert.True(t, dark, "no stored value follows the OS")

	require.NoError(t, svc.SetDarkMode(ctx, "v1", false))
	dark, err = svc.DarkMode(ctx, "v1", true)
	require.NoError(t, err)
	assert.False(t, dark, "stored value wins")

	stored, ok, err := repo.GetPreference(ctx, "v1", DarkModeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", stored)
}

func TestServiceToggle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	dark, err := svc.Toggle(ctx, "v1", false)
	require.NoError(t, err)
	assert.True(t, dark)

	dark, err = svc.Toggle(ctx, "v1", false)
	require.NoError(t, err)
	assert.False(t, dark)

	dark, err = svc.DarkMode(ctx, "v2", false)
	require.NoError(t, err)
	assert.False(t, dark, "preferences are per visitor")
}

func TestHandler(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.WithVisitor(req.Context(), "v1", "")))
		})
	})
	NewHandler(svc).RegisterRoutes(r)

	do := func(method, path, body string) (int, ThemeResponse, http.Header) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(ColorSchemeHintHeader, "dark")
		r.ServeHTTP(rec, req)
		var resp ThemeResponse
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		}
		return rec.Code, resp, rec.Header()
	}

	code, resp, header := do(http.MethodGet, "/api/preferences/theme", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.DarkMode)
	assert.Equal(t, ColorSchemeHintHeader, header.Get("Accept-CH"))

	code, resp, _ = do(http.MethodPost, "/api/preferences/theme/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.DarkMode)

	code, resp, _ = do(http.MethodPut, "/api/preferences/theme", `{"darkMode":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.DarkMode)

	code, _, _ = do(http.MethodPut, "/api/preferences/theme", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
