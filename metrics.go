package relay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes used as metric label values.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeCanceled    = "canceled"
	OutcomeUnsupported = "unsupported"
)

// MetricsCollector provides Prometheus metrics for the request pipeline and
// the interceptor gate. It is safe for concurrent use; all methods are no-ops
// on a nil collector.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	gateWaiting *prometheus.GaugeVec
	gateEvents  *prometheus.CounterVec

	interceptorInvocations *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)

	mc := &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total number of dispatched calls by outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "Duration of dispatched calls in seconds, including gate waits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_requests_in_flight",
				Help: "Number of calls not yet settled",
			},
			[]string{"method"},
		),
		gateWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_gate_waiting",
				Help: "Number of calls suspended on the interceptor gate",
			},
			[]string{"phase"},
		),
		gateEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_gate_events_total",
				Help: "Interceptor gate lock, unlock and cancel events that changed state",
			},
			[]string{"event"},
		),
		interceptorInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_interceptor_invocations_total",
				Help: "Total number of interceptor handler invocations",
			},
			[]string{"phase", "result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_errors_total",
				Help: "Total number of errors raised by the pipeline",
			},
			[]string{"type", "method"},
		),
	}

	if reg, ok := registry.(*prometheus.Registry); ok {
		mc.registry = reg
	}

	return mc
}

// RecordRequest records call count and duration.
func (mc *MetricsCollector) RecordRequest(method, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}

	mc.requestsTotal.WithLabelValues(method, outcome).Inc()
	mc.requestDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method).Dec()
}

// RecordGateWaitStart increments the waiting gauge for a gate phase.
func (mc *MetricsCollector) RecordGateWaitStart(phase string) {
	if mc == nil {
		return
	}

	mc.gateWaiting.WithLabelValues(phase).Inc()
}

// RecordGateWaitEnd decrements the waiting gauge for a gate phase.
func (mc *MetricsCollector) RecordGateWaitEnd(phase string) {
	if mc == nil {
		return
	}

	mc.gateWaiting.WithLabelValues(phase).Dec()
}

// RecordGateEvent counts a lock, unlock or cancel that changed gate state.
func (mc *MetricsCollector) RecordGateEvent(event string) {
	if mc == nil {
		return
	}

	mc.gateEvents.WithLabelValues(event).Inc()
}

// RecordInterceptor counts one interceptor handler invocation.
func (mc *MetricsCollector) RecordInterceptor(phase string, success bool) {
	if mc == nil {
		return
	}

	result := "ok"
	if !success {
		result = "error"
	}
	mc.interceptorInvocations.WithLabelValues(phase, result).Inc()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, method string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method).Inc()
}

// GetRegistry exposes the underlying prometheus registry. It is nil when the
// collector was built on a Registerer that is not a *prometheus.Registry.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	return mc.registry
}
