package connectivity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records recompute activity. A nil *Metrics records nothing.
type Metrics struct {
	recomputeDuration *prometheus.HistogramVec
	netsRecomputed    prometheus.Counter
	builds            *prometheus.CounterVec
	diagnostics       *prometheus.CounterVec
	unconnected       prometheus.Gauge
}

// NewMetrics registers the connectivity metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// recomputeDuration tracks build and recalculate latency
		recomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connectivity_recompute_duration_seconds",
			Help:    "Connectivity recompute duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}, []string{"operation"}),

		netsRecomputed: f.NewCounter(prometheus.CounterOpts{
			Name: "connectivity_nets_recomputed_total",
			Help: "Total nets reclustered and re-ratsnested",
		}),

		// builds counts full builds by result
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connectivity_builds_total",
			Help: "Total full builds by result",
		}, []string{"result"}),

		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connectivity_diagnostics_total",
			Help: "Total non-fatal conditions by kind",
		}, []string{"kind"}),

		unconnected: f.NewGauge(prometheus.GaugeOpts{
			Name: "connectivity_unconnected_edges",
			Help: "Visible ratsnest edges after the last recompute",
		}),
	}
}

func (m *Metrics) observe(operation string, start time.Time, nets, unconnected int) {
	if m == nil {
		return
	}
	m.recomputeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	m.netsRecomputed.Add(float64(nets))
	m.unconnected.Set(float64(unconnected))
}

func (m *Metrics) build(result string) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result).Inc()
}

func (m *Metrics) diagnostic(d Diagnostic) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(diagnosticKind(d)).Inc()
}
