// Package metrics exports the storefront's business counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "krushee"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics owns its own registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	purchasesTotal *prometheus.CounterVec
	checkoutsTotal *prometheus.CounterVec
	revenueTotal   prometheus.Counter
	addressSaves   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Purchase attempts by result kind.",
		},
		[]string{"result"},
	)
	m.checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		},
		[]string{"result"},
	)
	m.revenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_amount_total",
			Help:      "Sum of recorded revenue amounts.",
		},
	)
	m.addressSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_saves_total",
			Help:      "Address saves by outcome.",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(
		m.purchasesTotal,
		m.checkoutsTotal,
		m.revenueTotal,
		m.addressSaves,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Purchase counts one purchase attempt; result is "success" or an error kind.
func (m *Metrics) Purchase(result string, amount float64) {
	if m == nil {
		return
	}
	m.purchasesTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess && amount > 0 {
		m.revenueTotal.Add(amount)
	}
}

func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddressSave(outcome string) {
	if m == nil {
		return
	}
	m.addressSaves.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
