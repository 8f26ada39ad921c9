package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

var ErrInvalidMessage = errors.New("message is empty")

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	TurnID string
	Result contractx.TurnResult
	Took   time.Duration
}

type GraphState struct {
	TurnID string
	Text   string
	Now    time.Time

	Result contractx.TurnResult
	Took   time.Duration
}

func ValidateRequest(in GraphInput, nowFn func() time.Time, newID func() string) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		TurnID: newID(),
		Text:   text,
		Now:    nowFn().UTC(),
	}, nil
}
