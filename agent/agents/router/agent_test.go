package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/contract/contracttest"
)

func runRouter(t *testing.T, raw string) contractx.TurnResult {
	t.Helper()
	a, err := New(context.Background(), contracttest.NewScriptedClassifier(raw), nil)
	require.NoError(t, err)
	res, err := a.RunTurn(context.Background(), "question")
	require.NoError(t, err)
	return res
}

func TestRouterToolRoute(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"tool_route","expression":"10/2"}`)
	require.Equal(t, "The result of 10/2 is 5.0.", res.Output)
	require.Contains(t, res.Output, "10/2")
	require.Contains(t, res.Output, "5.0")
	require.Equal(t, contractx.TurnToolRouted, res.Status)
	require.Equal(t, contractx.RouteTool, res.Route)
	require.Len(t, res.History, 1)
}

func TestRouterMathAlias(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"math","tool_expression":"2 ** 10"}`)
	require.Equal(t, "The result of 2 ** 10 is 1024.0.", res.Output)
}

func TestRouterToolFailure(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"tool_route","tool_expression":"1 / 0","answer_text":"ignored"}`)
	require.Equal(t, contractx.TurnToolFailed, res.Status)
	require.Contains(t, res.Output, "Tool error (calculator): invalid expression: 1 / 0")
	require.NotContains(t, res.Output, "ignored")
}

func TestRouterToolMissingExpression(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"tool_route"}`)
	require.Equal(t, contractx.RouteMissingExpressionMessage, res.Output)
	require.Empty(t, res.History)
}

func TestRouterAnswerRoutes(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"chat","answer_text":"Hi there!"}`)
	require.Equal(t, "Hi there!", res.Output)
	require.Equal(t, contractx.RouteChat, res.Route)

	res = runRouter(t, `{"route":"research","answer_text":"Paris."}`)
	require.Equal(t, "Paris.", res.Output)
	require.Equal(t, contractx.RouteResearch, res.Route)

	res = runRouter(t, `{"route":"research"}`)
	require.Equal(t, contractx.NoAnswerProducedByPolicy, res.Output)
	require.Equal(t, contractx.TurnNoAnswer, res.Status)
}

func TestRouterDefaultsAndFallbacks(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"answer_text":"no route given"}`)
	require.Equal(t, contractx.RouteChat, res.Route)
	require.Equal(t, "no route given", res.Output)

	res = runRouter(t, `plain prose`)
	require.Equal(t, contractx.RouteChat, res.Route)
	require.Equal(t, "plain prose", res.Output)
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	res := runRouter(t, `{"route":"weather","answer_text":"sunny"}`)
	require.Equal(t, "Unknown route from policy: weather", res.Output)
	require.Equal(t, contractx.TurnUnknownAction, res.Status)
}

func TestRouterClassifierError(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), &contracttest.ScriptedClassifier{Err: contractx.ErrModelInvoke}, nil)
	require.NoError(t, err)
	_, err = a.RunTurn(context.Background(), "q")
	require.True(t, errors.Is(err, contractx.ErrModelInvoke))
}

func TestRouterToolTrace(t *testing.T) {
	t.Parallel()

	var seen []contractx.ToolInvocationRecord
	a, err := New(context.Background(),
		contracttest.NewScriptedClassifier(`{"route":"tool_route","tool_expression":"7 % 3"}`),
		nil,
		WithToolTrace(func(rec contractx.ToolInvocationRecord) { seen = append(seen, rec) }),
	)
	require.NoError(t, err)
	_, err = a.RunTurn(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.True(t, seen[0].Outcome.Equal(contractx.Success(1)))
}
