// Package metrics exposes production counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/everforgeworks/factory-sim/internal/game"
)

// Metrics holds the factory collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Ticks     prometheus.Counter
	Produced  *prometheus.CounterVec
	Consumed  *prometheus.CounterVec
	Working   prometheus.Gauge
	Buildings *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "factory",
			Name:      "ticks_total",
			Help:      "Completed simulation steps.",
		}),
		Produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory",
			Name:      "resource_produced_total",
			Help:      "Resource units produced, by resource.",
		}, []string{"resource"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory",
			Name:      "resource_consumed_total",
			Help:      "Resource units consumed, by resource.",
		}, []string{"resource"}),
		Working: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "factory",
			Name:      "buildings_working",
			Help:      "Buildings that ran during the last step.",
		}),
		Buildings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "factory",
			Name:      "buildings",
			Help:      "Placed buildings, by type.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(m.Ticks, m.Produced, m.Consumed, m.Working, m.Buildings)
	return m
}

// ObserveTick folds a step into the counters.
func (m *Metrics) ObserveTick(rep game.TickReport) {
	m.Ticks.Inc()
	m.Working.Set(float64(rep.Working()))
	for _, b := range rep.Buildings {
		m.ObserveReport(b)
	}
}

// ObserveReport counts a single building's movements.
func (m *Metrics) ObserveReport(r game.Report) {
	for res, amt := range r.Produced {
		m.Produced.WithLabelValues(res.String()).Add(amt)
	}
	for res, amt := range r.Consumed {
		m.Consumed.WithLabelValues(res.String()).Add(amt)
	}
}

// SetBuildings refreshes the per-type building gauge.
func (m *Metrics) SetBuildings(list []game.Snapshot) {
	counts := make(map[game.BuildingType]int)
	for _, b := range list {
		counts[b.Type]++
	}
	for _, kind := range game.BuildingTypes {
		m.Buildings.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
