package contract

import (
	"fmt"
	"strings"
)

const (
	NoAnswerProduced         = "(no answer produced)"
	NoAnswerProducedByPolicy = "(no answer produced by policy)"

	MissingExpressionMessage      = "Policy requested a tool but gave no expression."
	RouteMissingExpressionMessage = "Router selected tool route but did not provide an expression."
)

func UnknownActionMessage(action Action) string {
	return fmt.Sprintf("Unknown action from policy: %s", action)
}

func UnknownRouteMessage(route Route) string {
	return fmt.Sprintf("Unknown route from policy: %s", route)
}

func ToolErrorMessage(tool string, message string) string {
	return fmt.Sprintf("Tool error (%s): %s", tool, message)
}

func ToolResultMessage(expression string, value float64) string {
	return fmt.Sprintf("The result of %s is %s.", expression, FormatNumber(value))
}

type TurnStatus string

const (
	TurnAnswered          TurnStatus = "answered"
	TurnMissingExpression TurnStatus = "missing_expression"
	TurnToolFailed        TurnStatus = "tool_failed"
	TurnUnknownAction     TurnStatus = "unknown_action"
	TurnBudgetExhausted   TurnStatus = "budget_exhausted"
	TurnToolRouted        TurnStatus = "tool_routed"
	TurnNoAnswer          TurnStatus = "no_answer"
)

// TurnResult is the single final output of one turn plus the tool history
// accumulated while producing it.
type TurnResult struct {
	Output  string                 `json:"output"`
	Status  TurnStatus             `json:"status"`
	Route   Route                  `json:"route,omitempty"`
	History []ToolInvocationRecord `json:"history,omitempty"`
	Steps   int                    `json:"steps"`
}

// FailurePolicy selects what happens after a tool invocation fails.
type FailurePolicy string

const (
	// FailureStop ends the turn with the tool's error message.
	FailureStop FailurePolicy = "stop"
	// FailureContinue records the failure and asks the policy again.
	FailureContinue FailurePolicy = "continue"
)

const DefaultMaxSteps = 4

// LoopConfig is shared by every iterative controller so that they agree on
// budget and failure handling.
type LoopConfig struct {
	MaxSteps      int           `envconfig:"MAX_STEPS" split_words:"true" default:"4"`
	OnToolFailure FailurePolicy `envconfig:"ON_TOOL_FAILURE" split_words:"true" default:"stop"`
}

func (c LoopConfig) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("%w: max steps must be >= 1, got %d", ErrValidation, c.MaxSteps)
	}
	switch FailurePolicy(strings.TrimSpace(string(c.OnToolFailure))) {
	case FailureStop, FailureContinue:
	default:
		return fmt.Errorf("%w: invalid tool failure policy %q", ErrValidation, c.OnToolFailure)
	}
	return nil
}

// WithDefaults fills zero values.
func (c LoopConfig) WithDefaults() LoopConfig {
	if c.MaxSteps == 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	c.OnToolFailure = FailurePolicy(strings.TrimSpace(string(c.OnToolFailure)))
	if c.OnToolFailure == "" {
		c.OnToolFailure = FailureStop
	}
	return c
}
