package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports generation latency to Prometheus. Stats keeps serving the
// windowed percentiles of /api/stats/llm; the histogram is for scraping.
type Metrics struct {
	Duration *prometheus.HistogramVec
	Requests *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nlchat_llm_request_duration_seconds",
				Help:    "Language model request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model", "profile"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nlchat_llm_requests_total",
				Help: "Total number of language model requests",
			},
			[]string{"model", "profile", "status"},
		),
	}
	reg.MustRegister(m.Duration, m.Requests)
	return m
}

// observe is a no-op on a nil receiver. status is "success" or a
// remote-service sub-kind.
func (m *Metrics) observe(p Profile, elapsed time.Duration, status string) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(p.Model, p.Name).Observe(elapsed.Seconds())
	m.Requests.WithLabelValues(p.Model, p.Name, status).Inc()
}
