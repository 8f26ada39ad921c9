package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	nodex "github.com/tanpawarit/chative-tool-agent/agent/nodes"
	statex "github.com/tanpawarit/chative-tool-agent/agent/state"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

type Option func(*Agent)

// WithToolTrace registers a callback for every tool record appended to history.
func WithToolTrace(trace func(contractx.ToolInvocationRecord)) Option {
	return func(a *Agent) {
		if trace != nil {
			a.traces = append(a.traces, trace)
		}
	}
}

// Agent drives the machine for at most MaxSteps policy visits.
type Agent struct {
	policy  contractx.Policy
	catalog *toolx.Catalog
	cfg     contractx.LoopConfig
	traces  []func(contractx.ToolInvocationRecord)
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

// run is the per-turn machine instance.
type run struct {
	st      *statex.AgentState
	view    View
	visits  int
	lastRec *contractx.ToolInvocationRecord
}

func (a *Agent) RunTurn(ctx context.Context, question string) (contractx.TurnResult, error) {
	st, err := statex.NewAgentState(question)
	if err != nil {
		return contractx.TurnResult{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	r := &run{st: st}
	state, from := StatePolicy, StatePolicy
	for state != StateTerminal {
		switch state {
		case StatePolicy:
			if r.visits >= a.cfg.MaxSteps {
				out, status := nodex.ConcludeBudget()
				log.Debug().Int("max_steps", a.cfg.MaxSteps).Msg("graph budget exhausted")
				return r.result(out, status), nil
			}
			r.visits++
			d, err := nodex.PolicyStep(ctx, st, a.policy)
			if err != nil {
				return contractx.TurnResult{}, err
			}
			r.view.Decision = d
			log.Debug().Int("step", r.visits).Str("action", string(d.Action)).Msg("graph policy node")
		case StateTool:
			rec, err := nodex.ToolStep(ctx, st, a.catalog)
			if err != nil {
				return contractx.TurnResult{}, err
			}
			outcome := rec.Outcome
			r.view.Outcome = &outcome
			r.lastRec = &rec
			for _, t := range a.traces {
				t(rec)
			}
			log.Debug().Int("step", r.visits).Str("tool", rec.ToolName).Str("outcome", outcome.String()).Msg("graph tool node")
		}

		from = state
		state = Select(state, r.view, a.cfg.OnToolFailure)
	}

	return r.terminal(from), nil
}

// terminal builds the result for the state the machine left to reach Terminal.
func (r *run) terminal(from State) contractx.TurnResult {
	if from == StateTool && r.lastRec != nil {
		out, status := nodex.ConcludeToolFailure(*r.lastRec)
		return r.result(out, status)
	}
	out, status := nodex.ConcludeDecision(r.view.Decision)
	return r.result(out, status)
}

func (r *run) result(out string, status contractx.TurnStatus) contractx.TurnResult {
	return contractx.TurnResult{
		Output:  out,
		Status:  status,
		History: r.st.History(),
		Steps:   r.visits,
	}
}
