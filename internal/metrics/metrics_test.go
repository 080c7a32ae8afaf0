package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ActionsTotal)
	assert.NotNil(t, m.ViewsTotal)
	assert.NotNil(t, m.ActiveSessions)
	assert.NotNil(t, m.CatalogRecipes)

	// A second instance must not collide with the first.
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestRecordAction(t *testing.T) {
	m := NewMetrics()

	m.RecordAction("login", OutcomeOK)
	m.RecordAction("login", OutcomeOK)
	m.RecordAction("login", OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("login", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("login", OutcomeInvalid)))
}

func TestRequestTrackingMiddleware(t *testing.T) {
	m := NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	ts := httptest.NewServer(m.RequestTrackingMiddleware(mux))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/recipes/1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/nowhere")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /recipes/{id}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordView("home", "content")
	m.CatalogRecipes.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `recipe_catalog_views_total{state="content",tab="home"} 1`)
	assert.True(t, strings.Contains(string(body), "recipe_catalog_recipes 3"))
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.json"), make([]byte, 2048), 0644))

	h := GetSysHealth(time.Now().Add(-time.Minute), 3, 2, dir)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Recipes)
	assert.Equal(t, 2, h.ActiveSessions)
	assert.Equal(t, "2.0 KB", h.DataDiskSize)
	assert.Positive(t, h.Goroutines)

	m := NewMetrics()
	m.RecordHealth(h)
	assert.Equal(t, float64(h.Goroutines), testutil.ToFloat64(m.GoroutinesCount))

	assert.Empty(t, GetSysHealth(time.Now(), 0, 0, "").DataDiskSize)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
