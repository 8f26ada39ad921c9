package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ChatClient turns a role-tagged conversation into raw model text.
// The text is not guaranteed to be JSON.
type ChatClient interface {
	Chat(ctx context.Context, messages []*schema.Message, temperature float32) (string, error)
}

// Tool evaluates one string input. A failure is returned as an error whose
// message is the descriptive reason.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) (float64, error)
}

// Policy chooses the next action given the question and the tool history so far.
type Policy interface {
	Decide(ctx context.Context, question string, history []ToolInvocationRecord) (Decision, error)
}

// Classifier picks a route for a question in a single call.
type Classifier interface {
	Classify(ctx context.Context, question string) (RouteDecision, error)
}

// TurnRunner processes one user question start to finish.
type TurnRunner interface {
	RunTurn(ctx context.Context, question string) (TurnResult, error)
}
