// Package metrics exposes Prometheus counters for turns and tool calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

const namespace = "tool_agent"

// Metrics owns its registry so tests and multiple agents do not collide.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	turns        *prometheus.CounterVec
	turnSteps    *prometheus.HistogramVec
	turnDuration *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	sinkErrors   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		// Labels: variant (agent, graph, router, chat), status (turn status)
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "total",
			Help:      "Completed turns by variant and status",
		}, []string{"variant", "status"}),
		turnSteps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "policy_steps",
			Help:      "Policy invocations per turn",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		}, []string{"variant"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "duration_seconds",
			Help:      "Wall time of a turn in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"variant"}),
		// Labels: tool, outcome (success, failure)
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "invocations_total",
			Help:      "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
		sinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "errors_total",
			Help:      "Transcripts that could not be written",
		}),
	}
	m.registry.MustRegister(
		m.turns,
		m.turnSteps,
		m.turnDuration,
		m.toolCalls,
		m.sinkErrors,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveTurn(variant string, res contractx.TurnResult, took time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(variant, string(res.Status)).Inc()
	m.turnSteps.WithLabelValues(variant).Observe(float64(res.Steps))
	m.turnDuration.WithLabelValues(variant).Observe(took.Seconds())
}

func (m *Metrics) ObserveToolCall(rec contractx.ToolInvocationRecord) {
	if m == nil {
		return
	}
	outcome := "success"
	if !rec.Outcome.IsSuccess() {
		outcome = "failure"
	}
	m.toolCalls.WithLabelValues(rec.ToolName, outcome).Inc()
}

func (m *Metrics) ObserveSinkError() {
	if m == nil {
		return
	}
	m.sinkErrors.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
