package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the domain-stack addition from SPEC_FULL.md §6: a small set
// of Prometheus gauges/counters the watchdog and reliability layer update,
// served from a side HTTP listener next to the UDP game port.
type Metrics struct {
	registry *prometheus.Registry

	SessionsActive    prometheus.Gauge
	SessionsInactive  prometheus.Gauge
	GamesRunning      prometheus.Gauge
	GamesLobby        prometheus.Gauge
	FramesRetransmits prometheus.Counter
}

// NewMetrics builds and registers the gauges/counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ludo_sessions_active",
			Help: "Number of sessions currently marked active.",
		}),
		SessionsInactive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ludo_sessions_inactive",
			Help: "Number of sessions currently marked inactive (within reconnect grace).",
		}),
		GamesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ludo_games_running",
			Help: "Number of games in the running state.",
		}),
		GamesLobby: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ludo_games_lobby",
			Help: "Number of games still in the lobby state.",
		}),
		FramesRetransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ludo_frames_retransmitted_total",
			Help: "Count of outbound frames retransmitted due to MAX_PACKET_AGE expiry.",
		}),
	}
	reg.MustRegister(m.SessionsActive, m.SessionsInactive, m.GamesRunning, m.GamesLobby, m.FramesRetransmits)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
