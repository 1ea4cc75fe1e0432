package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Labels to use for partitioning requests.
	requestLabels = []string{"endpoint", "status", "cause"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"endpoint"}

	// Labels to use for calls to remote dependencies.
	dependencyLabels = []string{"dependency", "operation", "status"}

	// Labels to use for latencies of calls to remote dependencies.
	dependencyLatencyLabels = []string{"dependency", "operation"}
)

// ServiceMetrics are the metrics for the requests served by the
// HTTP endpoints
type ServiceMetrics struct {
	// Counts of requests made to each service endpoint.
	Requests *prometheus.CounterVec

	// Latencies of requests for each endpoint.
	RequestLatencies *prometheus.SummaryVec
}

// NewServiceMetrics creates and registers with reg the request metrics:
//
// 1. Counts of service endpoints hit.
// 2. Latencies for requests.
func NewServiceMetrics(reg prometheus.Registerer, serviceName string) *ServiceMetrics {
	metrics := &ServiceMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests", serviceName),
				Help: "How many service requests were made, partitioned by request endpoint, status, and cause of failure.",
			},
			requestLabels,
		),
		RequestLatencies: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: fmt.Sprintf("%s_request_durations", serviceName),
				Help: "How long requests take to process, partitioned by the request endpoint.",
			},
			requestLatencyLabels,
		),
	}
	reg.MustRegister(metrics.RequestLatencies)
	reg.MustRegister(metrics.Requests)
	return metrics
}

// RequestCounter returns the counter for the calling request.
// Provided labels should be endpoint, status, cause.
func (m *ServiceMetrics) RequestCounter(labels ...string) prometheus.Counter {
	return m.Requests.WithLabelValues(padLabels(labels, requestLabels)...)
}

// RequestTimer creates a new latency timer for the provided request operation.
func (m *ServiceMetrics) RequestTimer(labels ...string) *prometheus.Timer {
	return prometheus.NewTimer(m.RequestLatencies.WithLabelValues(padLabels(labels, requestLatencyLabels)...))
}

// DependencyMetrics are the metrics of the calls made to remote
// dependencies such as the key service, the artifact store or
// the chain node
type DependencyMetrics struct {
	// Counts of calls to remote dependencies.
	Calls *prometheus.CounterVec

	// Latencies of calls to remote dependencies.
	CallLatencies *prometheus.SummaryVec
}

// NewDependencyMetrics creates and registers with reg the metrics for
// calls to remote dependencies
func NewDependencyMetrics(reg prometheus.Registerer, serviceName string) *DependencyMetrics {
	metrics := &DependencyMetrics{
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_dependency_calls", serviceName),
				Help: "How many calls were made to remote dependencies, partitioned by dependency, operation and status.",
			},
			dependencyLabels,
		),
		CallLatencies: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: fmt.Sprintf("%s_dependency_durations", serviceName),
				Help: "How long calls to remote dependencies take, partitioned by dependency and operation.",
			},
			dependencyLatencyLabels,
		),
	}
	reg.MustRegister(metrics.Calls)
	reg.MustRegister(metrics.CallLatencies)
	return metrics
}

// Observe records a call to a remote dependency that started at the
// creation of timer and finished with err
func (m *DependencyMetrics) Observe(timer *prometheus.Timer, dependency, operation string, err error) {
	timer.ObserveDuration()

	status := "success"
	if err != nil {
		status = "failure"
	}

	m.Calls.WithLabelValues(dependency, operation, status).Inc()
}

// DependencyTimer creates a new latency timer for a call to a dependency
func (m *DependencyMetrics) DependencyTimer(dependency, operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.CallLatencies.WithLabelValues(dependency, operation))
}

func padLabels(labels, names []string) []string {
	if len(labels) > len(names) {
		labels = labels[:len(names)]
	}

	return append(labels, make([]string, len(names)-len(labels))...)
}
