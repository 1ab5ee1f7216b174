package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and remote sync outcomes.
type CartMetrics struct {
	mutations      *prometheus.CounterVec
	syncFailures   *prometheus.CounterVec
	staleDiscards  *prometheus.CounterVec
	localFallbacks *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied locally.",
	}, []string{"op"})
	syncFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failures_total",
		Help: "Remote cart sync attempts that failed.",
	}, []string{"op"})
	staleDiscards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_stale_discards_total",
		Help: "Remote cart responses discarded as stale.",
	}, []string{"op"})
	localFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_local_fallbacks_total",
		Help: "Operations served from local state after a remote failure.",
	}, []string{"op"})
	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_sync_duration_seconds",
		Help:    "Duration of remote cart sync calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(mutations, syncFailures, staleDiscards, localFallbacks, syncDuration)
	return &CartMetrics{
		mutations:      mutations,
		syncFailures:   syncFailures,
		staleDiscards:  staleDiscards,
		localFallbacks: localFallbacks,
		syncDuration:   syncDuration,
	}
}

// IncMutation increments the mutation counter for the named operation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncSyncFailure increments the remote failure counter for the named operation.
func (c *CartMetrics) IncSyncFailure(op string) {
	if c == nil || c.syncFailures == nil {
		return
	}
	c.syncFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncStaleDiscard increments the stale response counter for the named operation.
func (c *CartMetrics) IncStaleDiscard(op string) {
	if c == nil || c.staleDiscards == nil {
		return
	}
	c.staleDiscards.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncLocalFallback increments the degraded fallback counter for the named operation.
func (c *CartMetrics) IncLocalFallback(op string) {
	if c == nil || c.localFallbacks == nil {
		return
	}
	c.localFallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveSyncDuration records the duration of a remote sync call.
func (c *CartMetrics) ObserveSyncDuration(op string, duration time.Duration) {
	if c == nil || c.syncDuration == nil {
		return
	}
	c.syncDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
