package policy

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	llmx "github.com/tanpawarit/chative-tool-agent/agent/llm"
	promptx "github.com/tanpawarit/chative-tool-agent/agent/prompt"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

// Registry bundles the model-backed collaborators of every agent variant.
type Registry struct {
	policy      contractx.Policy
	classifier  contractx.Classifier
	chat        contractx.ChatClient
	chatPrompt  string
	chatTemp    float32
	toolCatalog *toolx.Catalog
}

func (r *Registry) Policy() contractx.Policy {
	return r.policy
}

func (r *Registry) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *Registry) Chat() contractx.ChatClient {
	return r.chat
}

func (r *Registry) ChatPrompt() string {
	return r.chatPrompt
}

func (r *Registry) ChatTemperature() float32 {
	return r.chatTemp
}

func (r *Registry) Tools() *toolx.Catalog {
	return r.toolCatalog
}

func NewRegistry(ctx context.Context, cfg llmx.Config, catalog *toolx.Catalog) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = toolx.Default()
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	policyClient, err := llmx.NewChatClient(ctx, cfg, contractx.AgentTypePolicy)
	if err != nil {
		return nil, fmt.Errorf("create policy client: %w", err)
	}
	routerClient, err := llmx.NewChatClient(ctx, cfg, contractx.AgentTypeRouter)
	if err != nil {
		return nil, fmt.Errorf("create router client: %w", err)
	}
	chatClient, err := llmx.NewChatClient(ctx, cfg, contractx.AgentTypeChat)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	pol, err := NewLLMPolicy(ctx, policyClient, cfg.TemperatureFor(contractx.AgentTypePolicy), prompts.Policy, catalog)
	if err != nil {
		return nil, err
	}
	classifier, err := NewLLMClassifier(ctx, routerClient, cfg.TemperatureFor(contractx.AgentTypeRouter), prompts.Router)
	if err != nil {
		return nil, err
	}

	return &Registry{
		policy:      pol,
		classifier:  classifier,
		chat:        chatClient,
		chatPrompt:  prompts.Chat,
		chatTemp:    cfg.TemperatureFor(contractx.AgentTypeChat),
		toolCatalog: catalog,
	}, nil
}
