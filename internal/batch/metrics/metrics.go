package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BatchesCreated prometheus.Counter
	StageUpdates   *prometheus.CounterVec
	QRRenders      prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_batches_created_total",
			Help: "Total number of crop batches created",
		}),
		StageUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_batch_stage_updates_total",
			Help: "Stage updates appended to batches, by stage",
		}, []string{"stage"}),
		QRRenders: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_batch_qr_renders_total",
			Help: "QR code images rendered for batches",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.BatchesCreated.Inc()
}

// IncrementStageUpdate labels unknown stages as "other" to bound cardinality.
func (m *Metrics) IncrementStageUpdate(stage string) {
	switch stage {
	case "farmer", "mandi", "transport", "retailer":
	default:
		stage = "other"
	}
	m.StageUpdates.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncrementQRRender() {
	m.QRRenders.Inc()
}
