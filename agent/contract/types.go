package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action drives the iterative loop and may recur within a turn.
type Action string

const (
	ActionAnswer  Action = "answer"
	ActionUseTool Action = "use_tool"
)

// actionAliases maps synonyms some prompts emit onto canonical actions.
var actionAliases = map[string]Action{
	"use_calculator": ActionUseTool,
}

// NormalizeAction maps a raw action value onto a known Action.
// The bool is false when the value is not recognized.
func NormalizeAction(raw string) (Action, bool) {
	v := strings.TrimSpace(raw)
	switch Action(v) {
	case ActionAnswer, ActionUseTool:
		return Action(v), true
	}
	if a, ok := actionAliases[v]; ok {
		return a, true
	}
	return Action(raw), false
}

// Route is chosen once per turn by the classifier.
type Route string

const (
	RouteChat     Route = "chat"
	RouteTool     Route = "tool_route"
	RouteResearch Route = "research"
)

var routeAliases = map[string]Route{
	"math": RouteTool,
}

func NormalizeRoute(raw string) (Route, bool) {
	v := strings.TrimSpace(raw)
	switch Route(v) {
	case RouteChat, RouteTool, RouteResearch:
		return Route(v), true
	}
	if r, ok := routeAliases[v]; ok {
		return r, true
	}
	return Route(raw), false
}

// Decision is the parsed output of one policy invocation.
type Decision struct {
	Action         Action  `json:"action"`
	ToolExpression *string `json:"tool_expression,omitempty"`
	AnswerText     *string `json:"answer_text,omitempty"`
}

// Expression returns the tool expression, or "" when absent.
func (d Decision) Expression() string {
	if d.ToolExpression == nil {
		return ""
	}
	return *d.ToolExpression
}

// Answer returns the answer text, or "" when absent.
func (d Decision) Answer() string {
	if d.AnswerText == nil {
		return ""
	}
	return *d.AnswerText
}

// RouteDecision is the parsed output of the single-shot classifier.
type RouteDecision struct {
	Route          Route   `json:"route"`
	ToolExpression *string `json:"tool_expression,omitempty"`
	AnswerText     *string `json:"answer_text,omitempty"`
}

func (d RouteDecision) Expression() string {
	if d.ToolExpression == nil {
		return ""
	}
	return *d.ToolExpression
}

func (d RouteDecision) Answer() string {
	if d.AnswerText == nil {
		return ""
	}
	return *d.AnswerText
}

// Outcome is the result of one tool invocation: exactly one of
// Success{value} or Failure{message}.
type Outcome struct {
	failed  bool
	value   float64
	message string
}

func Success(value float64) Outcome {
	return Outcome{value: value}
}

func Failure(message string) Outcome {
	return Outcome{failed: true, message: message}
}

func (o Outcome) IsSuccess() bool { return !o.failed }

// Value is meaningful only when IsSuccess is true.
func (o Outcome) Value() float64 { return o.value }

// Message is meaningful only when IsSuccess is false.
func (o Outcome) Message() string { return o.message }

// Equal reports whether both outcomes carry the same tag and payload.
func (o Outcome) Equal(other Outcome) bool {
	return o == other
}

func (o Outcome) String() string {
	if o.failed {
		return "error: " + o.message
	}
	return FormatNumber(o.value)
}

// ToolInvocationRecord is an immutable entry of the invocation history.
type ToolInvocationRecord struct {
	ToolName string
	Input    string
	Outcome  Outcome
}

type toolInvocationJSON struct {
	Tool       string   `json:"tool"`
	Expression string   `json:"expression"`
	Result     *float64 `json:"result,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// MarshalJSON renders the record the way it is replayed to the policy.
func (r ToolInvocationRecord) MarshalJSON() ([]byte, error) {
	out := toolInvocationJSON{
		Tool:       r.ToolName,
		Expression: r.Input,
	}
	if r.Outcome.IsSuccess() {
		v := r.Outcome.Value()
		out.Result = &v
	} else {
		out.Error = r.Outcome.Message()
	}
	return json.Marshal(out)
}

func (r *ToolInvocationRecord) UnmarshalJSON(data []byte) error {
	var in toolInvocationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.ToolName = in.Tool
	r.Input = in.Expression
	switch {
	case in.Result != nil:
		r.Outcome = Success(*in.Result)
	case in.Error != "":
		r.Outcome = Failure(in.Error)
	default:
		return fmt.Errorf("%w: tool record has neither result nor error", ErrValidation)
	}
	return nil
}

// FormatNumber renders a float the way it is shown to users: plain decimal
// with at least one fractional digit (14 -> "14.0"), exponent form outside
// [1e-4, 1e16).
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if math.IsInf(v, 0) || math.IsNaN(v) || (abs != 0 && (abs < 1e-4 || abs >= 1e16)) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// AgentType selects per-role model settings.
type AgentType string

const (
	AgentTypePolicy AgentType = "policy"
	AgentTypeRouter AgentType = "router"
	AgentTypeChat   AgentType = "chat"
)
