package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/decision"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

// LLMPolicy asks a chat model for the next action of the tool loop.
type LLMPolicy struct {
	runner compose.Runnable[map[string]any, decision.Result]
	tools  string
}

var _ contractx.Policy = (*LLMPolicy)(nil)

// policyContext is the JSON state shown to the model on every step.
type policyContext struct {
	Question string                           `json:"question"`
	History  []contractx.ToolInvocationRecord `json:"history"`
}

func NewLLMPolicy(
	ctx context.Context,
	client contractx.ChatClient,
	temperature float32,
	systemPrompt string,
	catalog *toolx.Catalog,
) (*LLMPolicy, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: policy", contractx.ErrPromptMissing)
	}
	if catalog == nil {
		catalog = toolx.Default()
	}

	tools, err := catalog.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe tools: %w", err)
	}

	runner, err := compilePolicyGraph(ctx, client, temperature, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &LLMPolicy{runner: runner, tools: tools}, nil
}

func (p *LLMPolicy) Decide(
	ctx context.Context,
	question string,
	history []contractx.ToolInvocationRecord,
) (contractx.Decision, error) {
	if history == nil {
		history = []contractx.ToolInvocationRecord{}
	}
	input, err := json.Marshal(policyContext{Question: question, History: history})
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: marshal policy payload: %v", contractx.ErrValidation, err)
	}

	out, err := p.runner.Invoke(ctx, map[string]any{
		"tools": p.tools,
		"input": string(input),
	})
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: policy invoke: %v", contractx.ErrModelInvoke, err)
	}

	if out.Status == decision.Malformed {
		log.Warn().Int("history_len", len(history)).Msg("policy output is not a JSON object; treating it as the answer")
	}
	return out.Decision, nil
}
