package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	openrouterx "github.com/tanpawarit/chative-tool-agent/pkg/openrouter"
)

// EinoChatClient adapts an eino chat model to contract.ChatClient.
type EinoChatClient struct {
	model einomodel.BaseChatModel
}

var _ contractx.ChatClient = (*EinoChatClient)(nil)

func NewEinoChatClient(m einomodel.BaseChatModel) (*EinoChatClient, error) {
	if m == nil {
		return nil, errors.New("chat model is required")
	}
	return &EinoChatClient{model: m}, nil
}

func (c *EinoChatClient) Chat(ctx context.Context, messages []*schema.Message, temperature float32) (string, error) {
	msg, err := c.model.Generate(ctx, messages, einomodel.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// OpenAIChatClient talks to an OpenAI-compatible endpoint through the official SDK.
type OpenAIChatClient struct {
	client    *openaisdk.Client
	model     string
	maxTokens int
}

var _ contractx.ChatClient = (*OpenAIChatClient)(nil)

func NewOpenAIChatClient(client *openaisdk.Client, modelName string, maxTokens int) (*OpenAIChatClient, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &OpenAIChatClient{client: client, model: strings.TrimSpace(modelName), maxTokens: maxTokens}, nil
}

func (c *OpenAIChatClient) Chat(ctx context.Context, messages []*schema.Message, temperature float32) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openaisdk.Float(float64(temperature)),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}

// NewChatClient builds the chat client for a role using the configured backend.
func NewChatClient(ctx context.Context, cfg Config, agentType contractx.AgentType) (contractx.ChatClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	routerCfg := cfg.OpenRouterFor(agentType)
	switch strings.TrimSpace(cfg.Backend) {
	case BackendOpenAI:
		client := openrouterx.NewClient(routerCfg)
		if client == nil {
			return nil, fmt.Errorf("%w: create openai client for role=%s", contractx.ErrModelInvoke, agentType)
		}
		return NewOpenAIChatClient(client, routerCfg.Model, cfg.MaxCompletionToken)
	default:
		m, err := routerCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return NewEinoChatClient(m)
	}
}
