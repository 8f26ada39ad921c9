// Package graph runs the policy/tool cycle as an explicit state machine.
//
// Transition selection is a pure function of the last decision and the last
// tool outcome. Policy and tool calls happen only in node bodies.
package graph

import (
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

type State int

const (
	StatePolicy State = iota
	StateTool
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePolicy:
		return "policy"
	case StateTool:
		return "tool"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// View is the read-only slice of AgentState the selector looks at.
type View struct {
	Decision contractx.Decision
	// Outcome of the most recent tool call, nil before the first one.
	Outcome *contractx.Outcome
}

// Select returns the state that follows from.
//
//	Policy -> Tool      use_tool with an expression
//	Policy -> Terminal  anything else
//	Tool   -> Policy    success, or failure under FailureContinue
//	Tool   -> Terminal  failure under FailureStop
func Select(from State, view View, onFailure contractx.FailurePolicy) State {
	switch from {
	case StatePolicy:
		d := view.Decision
		if d.Action == contractx.ActionUseTool && strings.TrimSpace(d.Expression()) != "" {
			return StateTool
		}
		return StateTerminal
	case StateTool:
		if view.Outcome != nil && !view.Outcome.IsSuccess() && onFailure == contractx.FailureStop {
			return StateTerminal
		}
		return StatePolicy
	default:
		return StateTerminal
	}
}
