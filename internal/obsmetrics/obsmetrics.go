// Package obsmetrics exposes the fixed set of run-scoped Prometheus
// metrics the driver updates as it processes a population, trimmed
// from a general-purpose provider abstraction down to exactly what
// this system needs.
package obsmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the private-registry metric set for one process.
type Metrics struct {
	reg *prometheus.Registry

	AgentsProcessed  prometheus.Counter
	AgentsIneligible prometheus.Counter
	AgentsInfeasible prometheus.Counter
	EventsEmitted    *prometheus.CounterVec
	EnergyDeliveredWs prometheus.Counter
	RunDurationSeconds prometheus.Histogram
}

// New registers every metric against a fresh private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		AgentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batsim_agents_processed_total",
			Help: "Number of agents processed by the driver.",
		}),
		AgentsIneligible: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batsim_agents_ineligible_total",
			Help: "Number of agents excluded by the capability resolver.",
		}),
		AgentsInfeasible: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batsim_agents_infeasible_total",
			Help: "Number of agents with no feasible charging plan.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batsim_charge_events_total",
			Help: "Charge events emitted, by kind.",
		}, []string{"kind"}),
		EnergyDeliveredWs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "batsim_energy_delivered_watt_seconds_total",
			Help: "Total delivered energy across all agents, in watt-seconds.",
		}),
		RunDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batsim_run_duration_seconds",
			Help:    "Wall-clock duration of a full population run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.AgentsProcessed, m.AgentsIneligible, m.AgentsInfeasible, m.EventsEmitted, m.EnergyDeliveredWs, m.RunDurationSeconds)
	return m
}

// Handler exposes the registry over HTTP for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
