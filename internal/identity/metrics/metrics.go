package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
type Metrics struct {
	CredentialsIssued  prometheus.Counter
	CredentialsRevoked prometheus.Counter
	WalletsLinked      prometheus.Counter
	Rejections         *prometheus.CounterVec
	IssueDuration      prometheus.Histogram
}

// New registers on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_credentials_issued_total",
			Help: "Total number of verification credentials issued",
		}),
		CredentialsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_credentials_revoked_total",
			Help: "Total number of verification credentials revoked",
		}),
		WalletsLinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "cropchain_wallets_linked_total",
			Help: "Total number of wallet addresses linked to accounts",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_credential_rejections_total",
			Help: "Credential operations rejected, by operation and error code",
		}, []string{"operation", "code"}),
		IssueDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropchain_credential_issue_duration_seconds",
			Help:    "Duration of IssueCredential including signature recovery",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIssued() {
	m.CredentialsIssued.Inc()
}

func (m *Metrics) IncrementRevoked() {
	m.CredentialsRevoked.Inc()
}

func (m *Metrics) IncrementWalletLinked() {
	m.WalletsLinked.Inc()
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

// ObserveIssue records the duration since start.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}
