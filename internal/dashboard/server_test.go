package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lolahq/lola/pkg/api"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestIndexServesEmbeddedPage(t *testing.T) {
	s := New(newBackend(t, func(w http.ResponseWriter, r *http.Request) {}), "", "", zerolog.Nop())
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html")
}

func TestResponsesProxiesListing(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/responses", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sessions":[{"id":"abc123","status":"completed","created_at":"2026-08-01T10:00:00Z","answers_count":7}],"pagination":{"page":2,"per_page":20,"total":41,"pages":3}}`)
	})
	s := New(backend, "", "", zerolog.Nop())
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/responses?page=2&per_page=20")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list api.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "abc123", list.Sessions[0].ID)
	assert.Equal(t, 3, list.Pagination.Pages)
}

func TestResponseDetailPassesBackendStatusThrough(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Response not found"}`)
	})
	s := New(backend, "", "", zerolog.Nop())
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/response/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Response not found", payload["error"])
}

func TestExportProxiesCSV(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "session_id,completed\nabc123,true\n")
	})
	s := New(backend, "", "", zerolog.Nop())
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "responses.csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "abc123")
}

func TestReloadRepointsBackend(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lola.json")
	writeConfig := func(baseURL string) {
		cfg := fmt.Sprintf(`{"api":{"base_url":%q,"timeout_seconds":5},"data_dir":%q}`, baseURL, dir)
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	}

	writeConfig("http://localhost:5000")
	s := New(api.New("http://localhost:5000", 5*time.Second, zerolog.Nop()), "", cfgPath, zerolog.Nop())

	// same base URL: client instance is kept
	before := s.backend()
	s.reload()
	assert.Same(t, before, s.backend())

	// changed base URL: client is swapped
	writeConfig("http://localhost:6000")
	s.reload()
	assert.NotSame(t, before, s.backend())
	assert.Equal(t, "http://localhost:6000", s.backend().BaseURL())

	// invalid config keeps the previous backend
	current := s.backend()
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"api":{"base_url":"::bad::"}}`), 0600))
	s.reload()
	assert.Same(t, current, s.backend())
}
