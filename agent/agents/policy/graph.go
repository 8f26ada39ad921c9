package policy

import (
	"context"
	"fmt"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/decision"
)

func compilePolicyGraph(
	ctx context.Context,
	client contractx.ChatClient,
	temperature float32,
	systemPrompt string,
) (compose.Runnable[map[string]any, decision.Result], error) {
	runner, err := compileDecisionGraph(ctx, client, temperature, systemPrompt,
		"Decide next action for this state:\n{{.input}}",
		decision.Decode,
		"policy.decision_graph",
	)
	if err != nil {
		return nil, fmt.Errorf("compile policy graph: %w", err)
	}
	return runner, nil
}

func compileClassifierGraph(
	ctx context.Context,
	client contractx.ChatClient,
	temperature float32,
	systemPrompt string,
) (compose.Runnable[map[string]any, decision.RouteResult], error) {
	runner, err := compileDecisionGraph(ctx, client, temperature, systemPrompt,
		"Decide route for this question and respond with JSON only:\n{{.input}}",
		decision.DecodeRoute,
		"router.classify_graph",
	)
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return runner, nil
}

// compileDecisionGraph wires prompt -> chat -> parse. The parse step is total,
// so the only failures are template and transport errors.
func compileDecisionGraph[T any](
	ctx context.Context,
	client contractx.ChatClient,
	temperature float32,
	systemPrompt string,
	userTemplate string,
	parse func(string) T,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userTemplate),
	)

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add decision prompt node: %w", err)
	}
	if err := graph.AddLambdaNode("model",
		compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) (string, error) {
			return client.Chat(ctx, msgs, temperature)
		}),
	); err != nil {
		return nil, fmt.Errorf("add decision model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_decision",
		compose.InvokableLambda(func(ctx context.Context, raw string) (T, error) {
			return parse(raw), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add decision parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_decision"},
		{"parse_decision", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add decision edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile decision graph: %w", err)
	}
	return runner, nil
}
