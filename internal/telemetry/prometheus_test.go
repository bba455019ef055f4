package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRegistryReadsSnapshot(t *testing.T) {
	snap := CacheSnapshot{Hits: 3, Misses: 1, Size: 2, MaxSize: 10}
	reg := NewCacheRegistry(func() CacheSnapshot { return snap })

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "findocbot_embedding_cache_hits_total 3")
	assert.Contains(t, body, "findocbot_embedding_cache_misses_total 1")
	assert.Contains(t, body, "findocbot_embedding_cache_max_entries 10")

	snap.Hits = 7
	rec = httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "findocbot_embedding_cache_hits_total 7")
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/health", "200", 0.01)
		m.RecordIngestion(1.5, 4, "success")
		m.RecordAsk(true)
		m.RecordProviderCall("ollama", "embed_many", true)
		m.RecordCircuitBreakerState("gemini", "open")
	})
}
