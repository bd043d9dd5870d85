package concurrentmap

// metrics.go is a thin Prometheus abstraction, generalized from the
// teacher's pkg/metrics.go (same noop/Prometheus sink split, same
// shard-labelled CounterVec/GaugeVec shape) but re-targeted from cache
// hit/miss/eviction/arena-rotation metrics to the map's own operations:
// hits, misses, inserts, removes, resizes, and EBR retire/reclaim counts
// (the latter two unlabelled, since EBR is table-global; the sharded Map
// never reports to them).

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink abstracts the concrete backend (Prometheus vs noop) so the
// hot path never branches on whether metrics are enabled.
type metricsSink interface {
	incHit(shard uint8)
	incMiss(shard uint8)
	incInsert(shard uint8)
	incRemove(shard uint8)
	incResize()
	addEBRRetired(delta int64)
	addEBRReclaimed(delta int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit(uint8)          {}
func (noopMetrics) incMiss(uint8)         {}
func (noopMetrics) incInsert(uint8)       {}
func (noopMetrics) incRemove(uint8)       {}
func (noopMetrics) incResize()            {}
func (noopMetrics) addEBRRetired(int64)   {}
func (noopMetrics) addEBRReclaimed(int64) {}

type promMetrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	inserts     *prometheus.CounterVec
	removes     *prometheus.CounterVec
	resizes     prometheus.Counter
	ebrRetired  prometheus.Counter
	ebrReclaim  prometheus.Counter
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"shard"}
	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "hits_total",
			Help:      "Number of successful Get lookups.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "misses_total",
			Help:      "Number of Get lookups that found nothing.",
		}, label),
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "inserts_total",
			Help:      "Number of Insert/Alter calls that stored a value.",
		}, label),
		removes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "removes_total",
			Help:      "Number of Remove/RemoveIf calls that deleted a value.",
		}, label),
		resizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "resizes_total",
			Help:      "Number of shard/table grow operations.",
		}),
		ebrRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "ebr_retired_total",
			Help:      "Number of entry boxes handed to the EBR engine for deferred reclamation.",
		}),
		ebrReclaim: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concurrentmap",
			Name:      "ebr_reclaimed_total",
			Help:      "Number of entry boxes actually returned to the pool by the EBR engine.",
		}),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.inserts, pm.removes, pm.resizes, pm.ebrRetired, pm.ebrReclaim)
	return pm
}

func (m *promMetrics) incHit(shard uint8)    { m.hits.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incMiss(shard uint8)   { m.misses.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incInsert(shard uint8) { m.inserts.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incRemove(shard uint8) { m.removes.WithLabelValues(strconv.Itoa(int(shard))).Inc() }
func (m *promMetrics) incResize()            { m.resizes.Inc() }
func (m *promMetrics) addEBRRetired(delta int64) {
	m.ebrRetired.Add(float64(delta))
}
func (m *promMetrics) addEBRReclaimed(delta int64) {
	m.ebrReclaim.Add(float64(delta))
}

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
