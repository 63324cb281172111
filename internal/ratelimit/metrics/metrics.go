package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
	Errors    prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_ratelimit_decisions_total",
			Help: "Rate limit checks by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_ratelimit_errors_total",
			Help: "Rate limit checks that failed and let the request through",
		}),
	}
}

func (m *Metrics) IncrementAllowed(class string) {
	m.Decisions.WithLabelValues(class, "allowed").Inc()
}

func (m *Metrics) IncrementRejected(class string) {
	m.Decisions.WithLabelValues(class, "rejected").Inc()
}

func (m *Metrics) IncrementErrors() {
	m.Errors.Inc()
}
