// Package contracttest provides scripted collaborators for controller tests.
package contracttest

import (
	"context"
	"errors"
	"sync"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/decision"
)

var ErrScriptExhausted = errors.New("scripted policy has no response left")

// PolicyCall is what a scripted policy observed on one invocation.
type PolicyCall struct {
	Question string
	History  []contractx.ToolInvocationRecord
}

// ScriptedPolicy replays raw model outputs through the decision parser.
// When Repeat is set the last output is reused once the script runs out.
type ScriptedPolicy struct {
	Outputs []string
	Repeat  bool
	Err     error

	mu    sync.Mutex
	idx   int
	calls []PolicyCall
}

var _ contractx.Policy = (*ScriptedPolicy)(nil)

func NewScriptedPolicy(outputs ...string) *ScriptedPolicy {
	return &ScriptedPolicy{Outputs: outputs}
}

func (p *ScriptedPolicy) Decide(_ context.Context, question string, history []contractx.ToolInvocationRecord) (contractx.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]contractx.ToolInvocationRecord, len(history))
	copy(snapshot, history)
	p.calls = append(p.calls, PolicyCall{Question: question, History: snapshot})

	if p.Err != nil {
		return contractx.Decision{}, p.Err
	}
	if p.idx >= len(p.Outputs) {
		if !p.Repeat || len(p.Outputs) == 0 {
			return contractx.Decision{}, ErrScriptExhausted
		}
		return decision.Parse(p.Outputs[len(p.Outputs)-1]), nil
	}
	out := p.Outputs[p.idx]
	p.idx++
	return decision.Parse(out), nil
}

func (p *ScriptedPolicy) Calls() []PolicyCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PolicyCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// ScriptedClassifier returns one parsed route decision per call.
type ScriptedClassifier struct {
	Outputs []string
	Err     error

	mu  sync.Mutex
	idx int
}

var _ contractx.Classifier = (*ScriptedClassifier)(nil)

func NewScriptedClassifier(outputs ...string) *ScriptedClassifier {
	return &ScriptedClassifier{Outputs: outputs}
}

func (c *ScriptedClassifier) Classify(context.Context, string) (contractx.RouteDecision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return contractx.RouteDecision{}, c.Err
	}
	if c.idx >= len(c.Outputs) {
		return contractx.RouteDecision{}, ErrScriptExhausted
	}
	out := c.Outputs[c.idx]
	c.idx++
	return decision.ParseRoute(out), nil
}
