// Package loop runs the policy/tool cycle as a plain bounded for-loop.
package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	nodex "github.com/tanpawarit/chative-tool-agent/agent/nodes"
	statex "github.com/tanpawarit/chative-tool-agent/agent/state"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

// ToolTrace observes every tool invocation in the order it happened.
type ToolTrace func(rec contractx.ToolInvocationRecord)

type Option func(*Agent)

func WithToolTrace(trace ToolTrace) Option {
	return func(a *Agent) {
		if trace != nil {
			a.traces = append(a.traces, trace)
		}
	}
}

type Agent struct {
	policy  contractx.Policy
	catalog *toolx.Catalog
	cfg     contractx.LoopConfig
	traces  []ToolTrace
}

var _ contractx.TurnRunner = (*Agent)(nil)

func New(policy contractx.Policy, catalog *toolx.Catalog, cfg contractx.LoopConfig, opts ...Option) (*Agent, error) {
	if policy == nil {
		return nil, errors.New("policy is required")
	}
	if catalog == nil {
		catalog = toolx.Default()
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{policy: policy, catalog: catalog, cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// RunTurn invokes the policy at most MaxSteps times. Malformed output, missing
// expressions, tool failures and unknown actions all resolve into the result;
// err is reserved for policy transport failures.
func (a *Agent) RunTurn(ctx context.Context, question string) (contractx.TurnResult, error) {
	st, err := statex.NewAgentState(question)
	if err != nil {
		return contractx.TurnResult{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	for step := 1; step <= a.cfg.MaxSteps; step++ {
		d, err := nodex.PolicyStep(ctx, st, a.policy)
		if err != nil {
			return contractx.TurnResult{}, err
		}
		log.Debug().Int("step", step).Str("action", string(d.Action)).Msg("loop decision")

		switch d.Action {
		case contractx.ActionAnswer:
			return a.finish(st, step, d)
		case contractx.ActionUseTool:
			expr := d.Expression()
			if strings.TrimSpace(expr) == "" {
				return a.finish(st, step, d)
			}

			rec := a.catalog.Execute(ctx, "", expr)
			st.Record(rec)
			a.trace(rec)
			log.Debug().Int("step", step).Str("tool", rec.ToolName).Str("outcome", rec.Outcome.String()).Msg("loop tool call")

			if !rec.Outcome.IsSuccess() && a.cfg.OnToolFailure == contractx.FailureStop {
				out, status := nodex.ConcludeToolFailure(rec)
				return result(st, step, out, status), nil
			}
		default:
			return a.finish(st, step, d)
		}
	}

	out, status := nodex.ConcludeBudget()
	log.Debug().Int("max_steps", a.cfg.MaxSteps).Msg("loop budget exhausted")
	return result(st, a.cfg.MaxSteps, out, status), nil
}

func (a *Agent) finish(st *statex.AgentState, steps int, d contractx.Decision) (contractx.TurnResult, error) {
	out, status := nodex.ConcludeDecision(d)
	return result(st, steps, out, status), nil
}

func (a *Agent) trace(rec contractx.ToolInvocationRecord) {
	for _, t := range a.traces {
		t(rec)
	}
}

func result(st *statex.AgentState, steps int, out string, status contractx.TurnStatus) contractx.TurnResult {
	return contractx.TurnResult{
		Output:  out,
		Status:  status,
		History: st.History(),
		Steps:   steps,
	}
}
