package service

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/paper-scout/scout/internal/model"
)

// MetricsService handles Prometheus metrics collection
type MetricsService struct {
	registry *prometheus.Registry

	// Tool metrics
	toolCallsTotal *prometheus.CounterVec
	toolLatency    *prometheus.HistogramVec

	// Conversation metrics
	turnsTotal    *prometheus.CounterVec
	historyTokens prometheus.Gauge

	// HTTP server metrics
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewMetricsService creates a metrics service with its own registry
func NewMetricsService() *MetricsService {
	ms := &MetricsService{
		registry: prometheus.NewRegistry(),

		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "outcome"},
		),

		toolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_tool_latency_seconds",
				Help:    "Tool invocation latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"tool"},
		),

		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_turns_total",
				Help: "Total number of user turns handled",
			},
			[]string{"outcome"},
		),

		historyTokens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scout_history_tokens",
				Help: "Token count of the conversation history sent with the latest stream",
			},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_http_requests_total",
				Help: "Total number of HTTP requests served by tool servers",
			},
			[]string{"route", "status"},
		),

		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_http_request_latency_seconds",
				Help:    "Tool server request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"route"},
		),
	}

	// Register all metrics
	ms.registry.MustRegister(
		ms.toolCallsTotal,
		ms.toolLatency,
		ms.turnsTotal,
		ms.historyTokens,
		ms.requestsTotal,
		ms.requestLatency,
	)

	return ms
}

// RecordToolCall records metrics from a ToolCallLog entry
func (ms *MetricsService) RecordToolCall(log *model.ToolCallLog) {
	ms.toolCallsTotal.With(prometheus.Labels{
		"tool":    log.ToolName,
		"outcome": string(log.Outcome),
	}).Inc()
	ms.toolLatency.With(prometheus.Labels{"tool": log.ToolName}).Observe(log.LatencySeconds)
}

// RecordTurn counts one finished user turn
func (ms *MetricsService) RecordTurn(outcome string) {
	ms.turnsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// SetHistoryTokens records the size of the latest stream request
func (ms *MetricsService) SetHistoryTokens(n int) {
	ms.historyTokens.Set(float64(n))
}

// RecordRequest records one served HTTP request
func (ms *MetricsService) RecordRequest(route string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	ms.requestsTotal.With(prometheus.Labels{
		"route":  route,
		"status": strconv.Itoa(status),
	}).Inc()
	ms.requestLatency.With(prometheus.Labels{"route": route}).Observe(latency.Seconds())
}

// GetRegistry returns the Prometheus registry
func (ms *MetricsService) GetRegistry() *prometheus.Registry {
	return ms.registry
}

// GetToolCallsCounter returns the invocation counter for one tool and outcome
func (ms *MetricsService) GetToolCallsCounter(tool, outcome string) prometheus.Counter {
	return ms.toolCallsTotal.With(prometheus.Labels{"tool": tool, "outcome": outcome})
}

// GetTurnsCounter returns the turn counter for one outcome
func (ms *MetricsService) GetTurnsCounter(outcome string) prometheus.Counter {
	return ms.turnsTotal.With(prometheus.Labels{"outcome": outcome})
}
