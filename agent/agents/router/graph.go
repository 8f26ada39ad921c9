package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

const (
	nodeClassify     = "classify"
	nodeToolRoute    = "tool_route"
	nodeAnswerRoute  = "answer_route"
	nodeUnknownRoute = "unknown_route"
)

type routeState struct {
	Question string
	Decision contractx.RouteDecision
}

func (a *Agent) compileRouteGraph(ctx context.Context) (compose.Runnable[string, contractx.TurnResult], error) {
	graph := compose.NewGraph[string, contractx.TurnResult]()

	if err := graph.AddLambdaNode(nodeClassify,
		compose.InvokableLambda(func(ctx context.Context, question string) (*routeState, error) {
			d, err := a.classifier.Classify(ctx, question)
			if err != nil {
				return nil, fmt.Errorf("classify: %w", err)
			}
			return &routeState{Question: question, Decision: d}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add router classify node: %w", err)
	}

	if err := graph.AddLambdaNode(nodeToolRoute,
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (contractx.TurnResult, error) {
			return a.toolRoute(ctx, in.Decision), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add router tool node: %w", err)
	}

	if err := graph.AddLambdaNode(nodeAnswerRoute,
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (contractx.TurnResult, error) {
			return answerRoute(in.Decision), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add router answer node: %w", err)
	}

	if err := graph.AddLambdaNode(nodeUnknownRoute,
		compose.InvokableLambda(func(ctx context.Context, in *routeState) (contractx.TurnResult, error) {
			return unknownRoute(in.Decision), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add router unknown node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *routeState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: router state is nil", contractx.ErrValidation)
			}
			return selectNode(in.Decision.Route), nil
		},
		map[string]bool{
			nodeToolRoute:    true,
			nodeAnswerRoute:  true,
			nodeUnknownRoute: true,
		},
	)
	if err := graph.AddBranch(nodeClassify, branch); err != nil {
		return nil, fmt.Errorf("add router branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodeClassify},
		{nodeToolRoute, compose.END},
		{nodeAnswerRoute, compose.END},
		{nodeUnknownRoute, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add router edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}

func selectNode(route contractx.Route) string {
	switch route {
	case contractx.RouteTool:
		return nodeToolRoute
	case contractx.RouteChat, contractx.RouteResearch:
		return nodeAnswerRoute
	default:
		return nodeUnknownRoute
	}
}
