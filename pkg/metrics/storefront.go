package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart, checkout and upstream activity.
type StorefrontMetrics struct {
	cartMutations   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	submitDuration  *prometheus.HistogramVec
	upstreamLatency *prometheus.HistogramVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_transitions_total",
		Help: "Checkout transition attempts by source stage, target stage and outcome.",
	}, []string{"from", "to", "outcome"})
	submitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_order_submission_duration_seconds",
		Help:    "Duration of order submissions including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_upstream_request_duration_seconds",
		Help:    "Latency of calls to the remote storefront API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	reg.MustRegister(cartMutations, transitions, submitDuration, upstreamLatency)
	return &StorefrontMetrics{
		cartMutations:   cartMutations,
		transitions:     transitions,
		submitDuration:  submitDuration,
		upstreamLatency: upstreamLatency,
	}
}

// IncCartMutation counts one cart mutation (add, update, remove, clear).
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncTransition counts a checkout transition attempt.
func (m *StorefrontMetrics) IncTransition(from, to, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(outcome)).Inc()
}

func (m *StorefrontMetrics) ObserveSubmission(outcome string, d time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

func (m *StorefrontMetrics) ObserveUpstream(method, status string, d time.Duration) {
	if m == nil || m.upstreamLatency == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
