package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Fetches     *prometheus.CounterVec
	CacheLookup *prometheus.CounterVec
	Rates       *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_price_fetches_total",
			Help: "Price refreshes by source (live or fallback)",
		}, []string{"source"}),
		CacheLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cropchain_price_cache_lookups_total",
			Help: "Price snapshot cache lookups by result",
		}, []string{"result"}),
		Rates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cropchain_price_rate",
			Help: "Latest known price per coin and fiat currency",
		}, []string{"asset", "currency"}),
	}
}

func (m *Metrics) IncrementFetch(source string) {
	m.Fetches.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookup.WithLabelValues(result).Inc()
}

func (m *Metrics) SetRate(asset, currency string, value float64) {
	m.Rates.WithLabelValues(asset, currency).Set(value)
}
