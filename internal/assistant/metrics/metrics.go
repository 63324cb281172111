package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Replies *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Replies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_assistant_replies_total",
			Help: "Assistant replies by source (model or fallback reason) and tool called",
		}, []string{"source", "tool"}),
	}
}

func (m *Metrics) IncrementReply(source, tool string) {
	m.Replies.WithLabelValues(source, tool).Inc()
}
