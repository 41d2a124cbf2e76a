package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/l1jgo/followctl/internal/movement"
)

// Metrics holds Prometheus metric descriptors for the host loop.
type Metrics struct {
	startTime time.Time

	commandsTotal  *prometheus.CounterVec
	searchesTotal  *prometheus.CounterVec
	searchExplored prometheus.Histogram
	ticksTotal     prometheus.Counter
	tickSeconds    prometheus.Histogram
	threadsActive  prometheus.Gauge
	routesActive   prometheus.Gauge
	uptimeSeconds  prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer, startTime time.Time) *Metrics {
	m := &Metrics{
		startTime: startTime,
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "followctl_commands_total",
			Help: "Event commands dispatched, by code and result.",
		}, []string{"code", "result"}),
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "followctl_path_searches_total",
			Help: "Bounded path searches, by result.",
		}, []string{"result"}),
		searchExplored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "followctl_path_search_explored_nodes",
			Help:    "Nodes closed per path search.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "followctl_ticks_total",
			Help: "Game loop ticks run since start.",
		}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "followctl_tick_duration_seconds",
			Help:    "Wall time spent in one tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		threadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "followctl_event_threads",
			Help: "Event threads still running.",
		}),
		routesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "followctl_move_routes",
			Help: "Move routes currently installed.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "followctl_uptime_seconds",
			Help: "Process uptime in seconds.",
		}),
	}

	reg.MustRegister(
		m.commandsTotal,
		m.searchesTotal,
		m.searchExplored,
		m.ticksTotal,
		m.tickSeconds,
		m.threadsActive,
		m.routesActive,
		m.uptimeSeconds,
	)
	return m
}

// ObserveCommand counts one dispatched command.
func (m *Metrics) ObserveCommand(code string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commandsTotal.WithLabelValues(code, result).Inc()
}

// ObserveSearch implements movement.SearchObserver.
func (m *Metrics) ObserveSearch(result movement.SearchResult, explored int) {
	m.searchesTotal.WithLabelValues(result.String()).Inc()
	m.searchExplored.Observe(float64(explored))
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.ticksTotal.Inc()
	m.tickSeconds.Observe(d.Seconds())
}

func (m *Metrics) SetThreads(n int) { m.threadsActive.Set(float64(n)) }
func (m *Metrics) SetRoutes(n int)  { m.routesActive.Set(float64(n)) }

// Handler returns an http.Handler that refreshes uptime before serving g.
func (m *Metrics) Handler(g prometheus.Gatherer) http.Handler {
	inner := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())
		inner.ServeHTTP(w, r)
	})
}
