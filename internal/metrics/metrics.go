package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	agentExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_agent_executions_total",
		Help: "Total number of agent executions by agent and outcome",
	}, []string{"agent", "status"})
	agentDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warden_agent_duration_seconds",
		Help:    "Agent execution latency, including the model call",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"agent"})
	workflowRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_workflow_runs_total",
		Help: "Total number of orchestrator workflow runs by workflow and outcome",
	}, []string{"workflow", "outcome"})
	escalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_escalations_total",
		Help: "Total number of overdue remediation escalations by level",
	}, []string{"level"})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_http_requests_total",
		Help: "Total number of API requests by method, route and status code",
	}, []string{"method", "route", "code"})
	httpDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warden_http_request_duration_seconds",
		Help:    "API request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		agentExecutionsTotal,
		agentDurationSeconds,
		workflowRunsTotal,
		escalationsTotal,
		httpRequestsTotal,
		httpDurationSeconds,
	)
}

// ObserveAgent records one agent execution.
func ObserveAgent(agent string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failed"
	}
	agentExecutionsTotal.WithLabelValues(agent, status).Inc()
	agentDurationSeconds.WithLabelValues(agent).Observe(elapsed.Seconds())
}

// IncWorkflow counts a finished workflow run.
func IncWorkflow(workflow string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	workflowRunsTotal.WithLabelValues(workflow, outcome).Inc()
}

// IncEscalation counts an escalation raised at level.
func IncEscalation(level int) {
	escalationsTotal.WithLabelValues(strconv.Itoa(level)).Inc()
}

// ObserveHTTP records one handled API request. route is the matched route
// template, not the raw path.
func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDurationSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}
