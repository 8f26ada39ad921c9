package nodes

import (
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

// ConcludeDecision maps a decision that ends the turn onto its final output.
// A use_tool decision reaches here only when it carries no expression.
func ConcludeDecision(d contractx.Decision) (string, contractx.TurnStatus) {
	switch d.Action {
	case contractx.ActionAnswer:
		if strings.TrimSpace(d.Answer()) == "" {
			return contractx.NoAnswerProduced, contractx.TurnNoAnswer
		}
		return d.Answer(), contractx.TurnAnswered
	case contractx.ActionUseTool:
		return contractx.MissingExpressionMessage, contractx.TurnMissingExpression
	default:
		return contractx.UnknownActionMessage(d.Action), contractx.TurnUnknownAction
	}
}

// ConcludeToolFailure surfaces a failed invocation as the turn output.
func ConcludeToolFailure(rec contractx.ToolInvocationRecord) (string, contractx.TurnStatus) {
	return contractx.ToolErrorMessage(rec.ToolName, rec.Outcome.Message()), contractx.TurnToolFailed
}

func ConcludeBudget() (string, contractx.TurnStatus) {
	return contractx.NoAnswerProduced, contractx.TurnBudgetExhausted
}
