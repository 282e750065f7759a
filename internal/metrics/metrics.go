// Package metrics exposes ZoneRun runtime metrics through a dedicated
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

// Metrics holds the ZoneRun collectors. A dedicated registry keeps the
// /metrics output free of default Go collectors noise from embedders.
type Metrics struct {
	registry *prometheus.Registry

	BarsProcessed prometheus.Counter
	Events        *prometheus.CounterVec
	ActiveZones   *prometheus.GaugeVec
	BarDuration   prometheus.Histogram
}

// New creates and registers the ZoneRun collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BarsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zonerun_bars_processed_total",
			Help: "Bars accepted by the zone engine",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonerun_zone_events_total",
			Help: "Zone lifecycle events by type",
		}, []string{"event"}),
		ActiveZones: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zonerun_active_zones",
			Help: "Zones visible after ranking, per side",
		}, []string{"side"}),
		BarDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zonerun_bar_processing_seconds",
			Help:    "End-to-end per-bar processing duration",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
	}
	m.registry.MustRegister(m.BarsProcessed, m.Events, m.ActiveZones, m.BarDuration)
	return m
}

// ObserveBar records one processed bar and its snapshot.
func (m *Metrics) ObserveBar(snap *zone.Snapshot, elapsed time.Duration) {
	m.BarsProcessed.Inc()
	m.BarDuration.Observe(elapsed.Seconds())
	m.ActiveZones.WithLabelValues("support").Set(float64(len(snap.Supports)))
	m.ActiveZones.WithLabelValues("resistance").Set(float64(len(snap.Resistances)))
	for _, ev := range snap.Events {
		m.Events.WithLabelValues(string(ev.Type)).Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather exposes the registry for tests and embedders.
func (m *Metrics) Gather() prometheus.Gatherer {
	return m.registry
}
