package forum

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "messagefeed"

type Metrics struct {
	Transitions *prometheus.CounterVec
	Height      prometheus.Gauge
}

// NewMetrics registers the application metrics with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transitions_total",
			Help:      "Delivered transactions by result and rejection reason.",
		}, []string{"result", "reason"}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "block_height",
			Help:      "Height of the last committed block.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Height)
	}
	return m
}

func (m *Metrics) observe(err error) {
	if err == nil {
		m.Transitions.WithLabelValues("accepted", "ok").Inc()
		return
	}
	m.Transitions.WithLabelValues("rejected", resultReason(err)).Inc()
}
