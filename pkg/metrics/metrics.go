// Package metrics records backoffice request and action outcomes in Prometheus
// collectors and optionally pushes them to a Pushgateway at process exit.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder owns a private registry so repeated runs in one process (tests)
// never collide on the default registerer.
type Recorder struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	actions        *prometheus.CounterVec
	actionLatency  *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_requests_total",
			Help: "Backoffice HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_request_duration_seconds",
			Help:    "Backoffice HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_actions_total",
			Help: "Runner actions by name and outcome.",
		}, []string{"action", "outcome"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_action_duration_seconds",
			Help:    "End-to-end action duration including login.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	r.registry.MustRegister(r.requests, r.requestLatency, r.actions, r.actionLatency)
	return r
}

// ObserveRequest records one HTTP exchange. status 0 means the request never
// produced a response.
func (r *Recorder) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(endpoint, code).Inc()
	r.requestLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveAction records the outcome of one runner action. outcome is the
// error category name, or "success".
func (r *Recorder) ObserveAction(action, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(action, outcome).Inc()
	r.actionLatency.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Actions exposes the action counter, labelled by action and outcome.
func (r *Recorder) Actions() *prometheus.CounterVec {
	return r.actions
}

// Push sends all collected metrics to a Pushgateway under the given job and
// grouping labels.
func (r *Recorder) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(r.registry)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	return pusher.PushContext(ctx)
}
