// Package router answers a question with one classification call followed by
// at most one tool call. It never loops back to the classifier.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

type Option func(*Agent)

func WithToolTrace(trace func(contractx.ToolInvocationRecord)) Option {
	return func(a *Agent) {
		if trace != nil {
			a.traces = append(a.traces, trace)
		}
	}
}

type Agent struct {
	classifier contractx.Classifier
	catalog    *toolx.Catalog
	traces     []func(contractx.ToolInvocationRecord)

	runner compose.Runnable[string, contractx.TurnResult]
}

var _ contractx.TurnRunner = (*Agent)(nil)

func New(ctx context.Context, classifier contractx.Classifier, catalog *toolx.Catalog, opts ...Option) (*Agent, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if catalog == nil {
		catalog = toolx.Default()
	}

	a := &Agent{classifier: classifier, catalog: catalog}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	runner, err := a.compileRouteGraph(ctx)
	if err != nil {
		return nil, err
	}
	a.runner = runner
	return a, nil
}

func (a *Agent) RunTurn(ctx context.Context, question string) (contractx.TurnResult, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return contractx.TurnResult{}, fmt.Errorf("%w: question is empty", contractx.ErrValidation)
	}

	res, err := a.runner.Invoke(ctx, q)
	if err != nil {
		return contractx.TurnResult{}, err
	}
	log.Debug().Str("route", string(res.Route)).Str("status", string(res.Status)).Msg("router turn")
	return res, nil
}

func (a *Agent) toolRoute(ctx context.Context, d contractx.RouteDecision) contractx.TurnResult {
	res := contractx.TurnResult{Route: contractx.RouteTool, Steps: 1}

	expr := d.Expression()
	if strings.TrimSpace(expr) == "" {
		res.Output = contractx.RouteMissingExpressionMessage
		res.Status = contractx.TurnMissingExpression
		return res
	}

	rec := a.catalog.Execute(ctx, "", expr)
	for _, t := range a.traces {
		t(rec)
	}
	res.History = []contractx.ToolInvocationRecord{rec}

	if !rec.Outcome.IsSuccess() {
		res.Output = contractx.ToolErrorMessage(rec.ToolName, rec.Outcome.Message())
		res.Status = contractx.TurnToolFailed
		return res
	}
	res.Output = contractx.ToolResultMessage(expr, rec.Outcome.Value())
	res.Status = contractx.TurnToolRouted
	return res
}

// answerRoute serves chat and research. Research performs no retrieval; the
// classifier's own answer is final.
func answerRoute(d contractx.RouteDecision) contractx.TurnResult {
	res := contractx.TurnResult{Route: d.Route, Steps: 1}
	if strings.TrimSpace(d.Answer()) == "" {
		res.Output = contractx.NoAnswerProducedByPolicy
		res.Status = contractx.TurnNoAnswer
		return res
	}
	res.Output = d.Answer()
	res.Status = contractx.TurnAnswered
	return res
}

func unknownRoute(d contractx.RouteDecision) contractx.TurnResult {
	return contractx.TurnResult{
		Output: contractx.UnknownRouteMessage(d.Route),
		Status: contractx.TurnUnknownAction,
		Route:  d.Route,
		Steps:  1,
	}
}
