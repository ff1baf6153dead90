package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveResolution("cache")
	m.ObserveResolution("cache")
	m.ObserveResolution("remote")
	m.ObserveResolutionError()
	m.ObserveDistribution(2, 1, 3)
	m.ObserveRequest("GET /keys/chat/{chatId}", "200")

	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues("cache")); got != 2 {
		t.Errorf("cache resolutions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues("remote")); got != 1 {
		t.Errorf("remote resolutions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ResolutionErrors); got != 1 {
		t.Errorf("resolution errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DistributionOutcomes.WithLabelValues("skipped")); got != 3 {
		t.Errorf("skipped recipients = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ServerRequests.WithLabelValues("GET /keys/chat/{chatId}", "200")); got != 1 {
		t.Errorf("server requests = %v, want 1", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount() = (%d, %v)", n, err)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveResolution("cache")
	m.ObserveResolutionError()
	m.ObserveDistribution(1, 1, 1)
	m.ObserveRequest("r", "200")
}
