package services

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warehouse-fleet/models"
)

// Request outcomes recorded by TasksRequested.
const (
	RequestAccepted         = "accepted"
	RequestUnknownSKU       = "unknown_sku"
	RequestShelfUnreachable = "shelf_unreachable"
)

// Metrics holds the fleet's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TasksRequested *prometheus.CounterVec
	TasksFinished  *prometheus.CounterVec
	Ticks          prometheus.Counter
	SimClock       prometheus.Gauge
	TickDuration   prometheus.Histogram
	RobotsByState  *prometheus.GaugeVec
	QueueDepth     *prometheus.GaugeVec
}

// NewMetrics - 전용 레지스트리에 컬렉터 등록
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		TasksRequested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_requests_total",
			Help:      "Retrieval requests by outcome",
		}, []string{"result"}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Tasks reaching a terminal status",
		}, []string{"status"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation steps executed",
		}),
		SimClock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sim_clock",
			Help:      "Simulated time units elapsed",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent inside one Step",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		RobotsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "robots",
			Help:      "Robots per state",
		}, []string{"state"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "robot_queue_depth",
			Help:      "Queued tasks per robot",
		}, []string{"robot"}),
	}

	registry.MustRegister(
		m.TasksRequested,
		m.TasksFinished,
		m.Ticks,
		m.SimClock,
		m.TickDuration,
		m.RobotsByState,
		m.QueueDepth,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordRequest(result string) {
	if m == nil {
		return
	}
	m.TasksRequested.WithLabelValues(result).Inc()
}

func (m *Metrics) recordTaskEvent(status models.TaskStatus) {
	if m == nil || !status.Terminal() {
		return
	}
	m.TasksFinished.WithLabelValues(string(status)).Inc()
}

// recordTick - 틱 종료 시 게이지 갱신
func (m *Metrics) recordTick(clock float64, took time.Duration, robots []models.AgentSnapshot) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.SimClock.Set(clock)
	m.TickDuration.Observe(took.Seconds())
	m.recordRobots(robots)
}

func (m *Metrics) recordRobots(robots []models.AgentSnapshot) {
	if m == nil {
		return
	}
	counts := make(map[models.AgentState]int, len(models.AllAgentStates))
	for _, r := range robots {
		counts[r.State]++
		m.QueueDepth.WithLabelValues(strconv.Itoa(r.AgentID)).Set(float64(r.QueueLength))
	}
	for _, s := range models.AllAgentStates {
		m.RobotsByState.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
