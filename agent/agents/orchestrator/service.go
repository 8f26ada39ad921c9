package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/chative-tool-agent/agent/audit"
	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	metricsx "github.com/tanpawarit/chative-tool-agent/agent/metrics"
	nodex "github.com/tanpawarit/chative-tool-agent/agent/nodes/orchestrator"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	// Variant labels logs, metrics and transcripts (agent, graph, router, chat).
	Variant string
	Metrics *metricsx.Metrics
}

// Orchestrator wraps one TurnRunner with validation, auditing and metrics.
type Orchestrator struct {
	runner  contractx.TurnRunner
	sink    audit.Sink
	metrics *metricsx.Metrics
	variant string

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
}

func New(
	runner contractx.TurnRunner,
	sink audit.Sink,
	cfg Config,
) (*Orchestrator, error) {
	if runner == nil {
		return nil, errors.New("turn runner is required")
	}
	if sink == nil {
		sink = audit.NopSink{}
	}

	variant := strings.TrimSpace(cfg.Variant)
	if variant == "" {
		variant = "agent"
	}

	o := &Orchestrator{
		runner:  runner,
		sink:    sink,
		metrics: cfg.Metrics,
		variant: variant,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one turn for text.
func (o *Orchestrator) HandleMessage(ctx context.Context, text string) (contractx.TurnResult, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		return contractx.TurnResult{}, err
	}

	o.metrics.ObserveTurn(o.variant, out.Result, out.Took)
	log.Info().
		Str("turn_id", out.TurnID).
		Str("variant", o.variant).
		Str("status", string(out.Result.Status)).
		Int("steps", out.Result.Steps).
		Int("tool_calls", len(out.Result.History)).
		Dur("duration", out.Took).
		Msg("turn completed")
	return out.Result, nil
}
