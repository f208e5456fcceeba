// Package prom exports cache.Metrics signals as Prometheus metrics.
package prom

import (
	"strconv"

	"github.com/IvanBrykalov/numacache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits          *prometheus.CounterVec
	misses        prometheus.Counter
	filterRejects prometheus.Counter
	evicts        *prometheus.CounterVec
	size          *prometheus.GaugeVec

	// pre-resolved children for the two hit kinds
	localHits  prometheus.Counter
	remoteHits prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "hits_total",
				Help:        "Cache hits by where the entry was found (local shard or replicated from a remote one)",
				ConstLabels: constLabels,
			},
			[]string{"source"},
		),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		filterRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "filter_rejects_total",
			Help:        "Misses answered by the membership filter without a cross-shard scan",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "SIEVE evictions by shard affinity",
				ConstLabels: constLabels,
			},
			[]string{"affinity"},
		),
		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "size_entries",
				Help:        "Number of resident entries by shard affinity",
				ConstLabels: constLabels,
			},
			[]string{"affinity"},
		),
	}
	a.localHits = a.hits.WithLabelValues("local")
	a.remoteHits = a.hits.WithLabelValues("remote")
	reg.MustRegister(a.hits, a.misses, a.filterRejects, a.evicts, a.size)
	return a
}

// LocalHit increments the hit counter for the caller's own shard.
func (a *Adapter) LocalHit() { a.localHits.Inc() }

// RemoteHit increments the hit counter for replicated entries.
func (a *Adapter) RemoteHit() { a.remoteHits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// FilterReject increments the filter-reject counter.
func (a *Adapter) FilterReject() { a.filterRejects.Inc() }

// Evict increments the eviction counter of shard af.
func (a *Adapter) Evict(af cache.Affinity) {
	a.evicts.WithLabelValues(label(af)).Inc()
}

// Size sets the resident-entries gauge of shard af.
func (a *Adapter) Size(af cache.Affinity, entries int) {
	a.size.WithLabelValues(label(af)).Set(float64(entries))
}

func label(a cache.Affinity) string { return strconv.Itoa(int(a)) }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
