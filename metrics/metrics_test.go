package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/warp/tuition-engine/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.PlanGenerated()
	m.PlanGenerated()
	m.Exported("csv", "file")
	m.CacheLookup(metrics.CacheHit)
	m.SetAuditMismatches(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlansGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("csv", "file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.CacheHit)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditMismatch))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.PlanGenerated()
		m.Exported("csv", "none")
		m.CacheLookup(metrics.CacheMiss)
		m.SetAuditMismatches(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.PlanGenerated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tuition_plans_generated_total 1")
}
