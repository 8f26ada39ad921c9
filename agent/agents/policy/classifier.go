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
)

// LLMClassifier asks a chat model to pick one route for a question.
type LLMClassifier struct {
	runner compose.Runnable[map[string]any, decision.RouteResult]
}

var _ contractx.Classifier = (*LLMClassifier)(nil)

func NewLLMClassifier(
	ctx context.Context,
	client contractx.ChatClient,
	temperature float32,
	systemPrompt string,
) (*LLMClassifier, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: router", contractx.ErrPromptMissing)
	}

	runner, err := compileClassifierGraph(ctx, client, temperature, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &LLMClassifier{runner: runner}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, question string) (contractx.RouteDecision, error) {
	input, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	if out.Status == decision.Malformed {
		log.Warn().Msg("router output is not a JSON object; treating it as a chat answer")
	}
	return out.Decision, nil
}
