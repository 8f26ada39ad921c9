package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	openrouterx "github.com/tanpawarit/chative-tool-agent/pkg/openrouter"
)

const (
	BackendEino   = "eino"
	BackendOpenAI = "openai"
)

type Config struct {
	Backend            string        `envconfig:"BACKEND" split_words:"true" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PolicyModel       string  `envconfig:"POLICY_MODEL" split_words:"true"`
	RouterModel       string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	ChatModel         string  `envconfig:"CHAT_MODEL" split_words:"true"`
	PolicyTemperature float32 `envconfig:"POLICY_TEMPERATURE" split_words:"true" default:"0"`
	RouterTemperature float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"0"`
	ChatTemperature   float32 `envconfig:"CHAT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch strings.TrimSpace(c.Backend) {
	case "", BackendEino, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unsupported llm backend=%q", contractx.ErrValidation, c.Backend)
	}
	return nil
}

// TemperatureFor returns the sampling temperature for a role. Negative
// per-role values fall back to the default temperature.
func (c Config) TemperatureFor(agentType contractx.AgentType) float32 {
	temp := c.Temperature
	switch agentType {
	case contractx.AgentTypePolicy:
		if c.PolicyTemperature >= 0 {
			temp = c.PolicyTemperature
		}
	case contractx.AgentTypeRouter:
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	case contractx.AgentTypeChat:
		if c.ChatTemperature >= 0 {
			temp = c.ChatTemperature
		}
	}
	return temp
}

func (c Config) ModelFor(agentType contractx.AgentType) string {
	modelName := strings.TrimSpace(c.Model)
	var override string
	switch agentType {
	case contractx.AgentTypePolicy:
		override = c.PolicyModel
	case contractx.AgentTypeRouter:
		override = c.RouterModel
	case contractx.AgentTypeChat:
		override = c.ChatModel
	}
	if v := strings.TrimSpace(override); v != "" {
		modelName = v
	}
	return modelName
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.ModelFor(agentType),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.TemperatureFor(agentType),
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
