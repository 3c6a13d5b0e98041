package memstore

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors a MemStore reports through:
// point-in-time gauges alongside monotonic counters.
type Metrics struct {
	heapSize      prometheus.Gauge
	flushableSize prometheus.Gauge
	snapshotCount prometheus.Gauge
	flushes       prometheus.Counter
	flushSeconds  prometheus.Counter
}

// NewMetrics builds a Metrics instance labeled with the given column family
// path.
func NewMetrics(path string) *Metrics {
	labels := prometheus.Labels{"path": path}
	return &Metrics{
		heapSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memstore",
			Name:        "heap_bytes",
			Help:        "Approximate heap bytes held by the live set.",
			ConstLabels: labels,
		}),
		flushableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memstore",
			Name:        "flushable_bytes",
			Help:        "Bytes awaiting flush in the snapshot set, or 0 when no flush is in progress.",
			ConstLabels: labels,
		}),
		snapshotCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memstore",
			Name:        "snapshot_active",
			Help:        "1 while a snapshot is outstanding (between snapshot() and clearSnapshot()), else 0.",
			ConstLabels: labels,
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memstore",
			Name:        "flushes_total",
			Help:        "Total number of completed snapshot/clearSnapshot cycles.",
			ConstLabels: labels,
		}),
		flushSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memstore",
			Name:        "flush_seconds_total",
			Help:        "Cumulative wall-clock time between a snapshot() call and its matching clearSnapshot().",
			ConstLabels: labels,
		}),
	}
}

// Collectors returns every collector owned by m, for registration with a
// prometheus.Registerer.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.heapSize, m.flushableSize, m.snapshotCount, m.flushes, m.flushSeconds,
	}
}
