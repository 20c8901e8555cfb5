package httpserve

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFilterMatch(t *testing.T) {
	srv := New(":0", 4096, 1<<20)

	body := `{"expression": ".year > 1980", "record": {"year": 1999}}`
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"match": true}`, rec.Body.String())
}

func TestHandleFilterRejectsOversizedExpression(t *testing.T) {
	srv := New(":0", 4, 1<<20)

	body := `{"expression": ".year > 1980", "record": {}}`
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFilterRejectsBadCompile(t *testing.T) {
	srv := New(":0", 4096, 1<<20)

	body := `{"expression": "((1+2)", "record": {}}`
	req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFilterCachesCompiledPrograms(t *testing.T) {
	srv := New(":0", 4096, 1<<20)

	for i := 0; i < 3; i++ {
		body := `{"expression": ".n == 2", "record": {"n": 2}}`
		req := httptest.NewRequest(http.MethodPost, "/filter", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	srv.mu.RLock()
	defer srv.mu.RUnlock()
	assert.Len(t, srv.cache, 1)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	srv := New(":0", 4096, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
