package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue digs a labeled counter value out of a gathered family.
func counterValue(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gather().Gather()
	require.NoError(t, err)

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if matchLabels(m, labels) {
				if m.GetCounter() != nil {
					return m.GetCounter().GetValue()
				}
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRegistry_FetchCounters(t *testing.T) {
	r := New()
	r.ObserveFetch("yahoo", "ok", 120*time.Millisecond)
	r.ObserveFetch("yahoo", "ok", 80*time.Millisecond)
	r.ObserveFetch("yahoo", "error", 2*time.Second)

	assert.Equal(t, 2.0, counterValue(t, r, "glidepath_fetch_requests_total",
		map[string]string{"provider": "yahoo", "result": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, r, "glidepath_fetch_requests_total",
		map[string]string{"provider": "yahoo", "result": "error"}))
}

func TestRegistry_CacheCounters(t *testing.T) {
	r := New()
	r.CacheHit("memory")
	r.CacheHit("memory")
	r.CacheMiss("memory")

	assert.Equal(t, 2.0, counterValue(t, r, "glidepath_cache_hits_total",
		map[string]string{"backend": "memory"}))
	assert.Equal(t, 1.0, counterValue(t, r, "glidepath_cache_misses_total",
		map[string]string{"backend": "memory"}))
}

func TestRegistry_BreakerStateGauge(t *testing.T) {
	r := New()
	r.SetBreakerState("yahoo", "open")
	assert.Equal(t, 2.0, counterValue(t, r, "glidepath_breaker_state",
		map[string]string{"provider": "yahoo"}))

	r.SetBreakerState("yahoo", "closed")
	assert.Equal(t, 0.0, counterValue(t, r, "glidepath_breaker_state",
		map[string]string{"provider": "yahoo"}))

	// Unknown states are ignored rather than recorded.
	r.SetBreakerState("yahoo", "bogus")
	assert.Equal(t, 0.0, counterValue(t, r, "glidepath_breaker_state",
		map[string]string{"provider": "yahoo"}))
}
