// Package metrics exposes Prometheus counters for chat session key
// resolution and distribution. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sigilchat"

// Metrics groups the collectors recorded by the session key manager and the
// development key server.
type Metrics struct {
	Resolutions          *prometheus.CounterVec
	ResolutionErrors     prometheus.Counter
	DistributionOutcomes *prometheus.CounterVec
	ServerRequests       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessionkey",
			Name:      "resolutions_total",
			Help:      "Chat session key resolutions by source.",
		}, []string{"source"}),
		ResolutionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessionkey",
			Name:      "resolution_errors_total",
			Help:      "Chat session key resolutions that failed.",
		}),
		DistributionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessionkey",
			Name:      "distribution_recipients_total",
			Help:      "Wrapped key copies by outcome.",
		}, []string{"outcome"}),
		ServerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keyserver",
			Name:      "requests_total",
			Help:      "Key server requests by route and status code.",
		}, []string{"route", "code"}),
	}

	if reg != nil {
		reg.MustRegister(m.Resolutions, m.ResolutionErrors, m.DistributionOutcomes, m.ServerRequests)
	}
	return m
}

// ObserveResolution counts a successful resolution from source.
func (m *Metrics) ObserveResolution(source string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(source).Inc()
}

// ObserveResolutionError counts a failed resolution.
func (m *Metrics) ObserveResolutionError() {
	if m == nil {
		return
	}
	m.ResolutionErrors.Inc()
}

// ObserveDistribution adds per-recipient outcome counts.
func (m *Metrics) ObserveDistribution(succeeded, failed, skipped int) {
	if m == nil {
		return
	}
	m.DistributionOutcomes.WithLabelValues("succeeded").Add(float64(succeeded))
	m.DistributionOutcomes.WithLabelValues("failed").Add(float64(failed))
	m.DistributionOutcomes.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveRequest counts a key server request.
func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.ServerRequests.WithLabelValues(route, code).Inc()
}
