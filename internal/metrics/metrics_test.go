package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observations(t *testing.T) {
	c := NewCollector("bacon")

	c.ObserveHTTP(http.MethodGet, "/api/bacon_distance", http.StatusOK, 3*time.Millisecond)
	c.ObserveHTTP(http.MethodGet, "/api/bacon_distance", http.StatusOK, time.Millisecond)
	c.ObserveQuery("reference", OutcomeFound, time.Millisecond)
	c.ObserveQuery("reference", OutcomeNotFound, 0)
	c.ObserveReload(nil, 10, 4)
	c.ObserveReload(errors.New("bad artifact"), 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/bacon_distance", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DistanceQueries.WithLabelValues("reference", OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DatasetReloads.WithLabelValues("error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.DatasetActors))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.DatasetMovies))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("bacon")
	c.ObserveQuery("pair", OutcomeInfinite, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bacon_distance_queries_total{kind="pair",outcome="infinite"} 1`)
	assert.Contains(t, string(body), "bacon_bfs_duration_seconds_count 1")
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", 200, 0)
		c.ObserveQuery("pair", OutcomeFound, 0)
		c.ObserveReload(nil, 1, 1)
	})
}
