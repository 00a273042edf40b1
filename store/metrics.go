package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// metrics is a no-op when the runtime was built without WithMetrics.
type metrics struct {
	writes            prometheus.Counter
	redundantWrites   prometheus.Counter
	notifications     prometheus.Counter
	getterEvaluations *prometheus.CounterVec
	watchRuns         prometheus.Counter
	flushes           prometheus.Counter
	handlersRun       prometheus.Counter
	handlerErrors     prometheus.Counter
	pendingHandlers   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, opts ...MetricsOption) *metrics {
	if reg == nil {
		return &metrics{}
	}

	cfg := MetricsConfig{Namespace: "tablestore"}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}

	return &metrics{
		writes:          counter("state_writes_total", "State writes that changed a field"),
		redundantWrites: counter("state_redundant_writes_total", "State writes ignored because the value was unchanged"),
		notifications:   counter("notifications_total", "Subscribers invalidated by state writes"),
		getterEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "getter_evaluations_total",
			Help:        "Getter definition invocations",
			ConstLabels: cfg.ConstLabels,
		}, []string{"getter"}),
		watchRuns:     counter("watch_runs_total", "Watch body invocations"),
		flushes:       counter("flushes_total", "Flushes that had pending handlers"),
		handlersRun:   counter("flush_handlers_total", "Handlers run by flushes"),
		handlerErrors: counter("flush_handler_errors_total", "Handlers that returned an error or panicked during a flush"),
		pendingHandlers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "pending_handlers",
			Help:        "Handlers waiting for the next flush",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (m *metrics) write(changed bool, subscribers int) {
	if m.writes == nil {
		return
	}
	if !changed {
		m.redundantWrites.Inc()
		return
	}
	m.writes.Inc()
	m.notifications.Add(float64(subscribers))
}

func (m *metrics) evaluation(getter string) {
	if m.getterEvaluations != nil {
		m.getterEvaluations.WithLabelValues(getter).Inc()
	}
}

func (m *metrics) watchRun() {
	if m.watchRuns != nil {
		m.watchRuns.Inc()
	}
}

func (m *metrics) flush() {
	if m.flushes != nil {
		m.flushes.Inc()
	}
}

func (m *metrics) handlerRuns(n int) {
	if m.handlersRun != nil {
		m.handlersRun.Add(float64(n))
	}
}

func (m *metrics) handlerError() {
	if m.handlerErrors != nil {
		m.handlerErrors.Inc()
	}
}

func (m *metrics) pending(n int) {
	if m.pendingHandlers != nil {
		m.pendingHandlers.Set(float64(n))
	}
}
