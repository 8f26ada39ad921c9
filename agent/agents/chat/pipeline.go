// Package chat is a plain multi-turn assistant: one model call per turn,
// no tool loop and no decision parsing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

// Pipeline keeps the conversation in memory for the life of the process.
type Pipeline struct {
	client      contractx.ChatClient
	temperature float32

	mu      sync.Mutex
	history []*schema.Message
}

var _ contractx.TurnRunner = (*Pipeline)(nil)

func New(client contractx.ChatClient, systemPrompt string, temperature float32) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: chat", contractx.ErrPromptMissing)
	}
	return &Pipeline{
		client:      client,
		temperature: temperature,
		history:     []*schema.Message{schema.SystemMessage(systemPrompt)},
	}, nil
}

// RunTurn appends the question, asks the model once and appends its reply.
// A failed call leaves the conversation as it was before the turn.
func (p *Pipeline) RunTurn(ctx context.Context, question string) (contractx.TurnResult, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return contractx.TurnResult{}, fmt.Errorf("%w: question is empty", contractx.ErrValidation)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := append(p.snapshot(), schema.UserMessage(q))
	reply, err := p.client.Chat(ctx, msgs, p.temperature)
	if err != nil {
		return contractx.TurnResult{}, err
	}
	p.history = append(msgs, schema.AssistantMessage(reply, nil))
	log.Debug().Int("messages", len(p.history)).Msg("chat turn")

	if strings.TrimSpace(reply) == "" {
		return contractx.TurnResult{Output: contractx.NoAnswerProduced, Status: contractx.TurnNoAnswer, Steps: 1}, nil
	}
	return contractx.TurnResult{Output: reply, Status: contractx.TurnAnswered, Steps: 1}, nil
}

// Reset drops everything but the system prompt.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = p.history[:1]
}

// Messages returns a copy of the conversation including the system prompt.
func (p *Pipeline) Messages() []*schema.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Pipeline) snapshot() []*schema.Message {
	out := make([]*schema.Message, len(p.history))
	copy(out, p.history)
	return out
}
