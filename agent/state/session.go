package state

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

var ErrEmptyQuestion = errors.New("question is empty")

// AgentState is the record threaded through one turn.
// - question is fixed at creation
// - history is append-only and replayed to the policy on every step
// - lastDecision is replaced after each policy call
//
// An AgentState belongs to a single turn and must not be shared.
type AgentState struct {
	question     string
	history      History
	lastDecision *contractx.Decision
}

func NewAgentState(question string) (*AgentState, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	return &AgentState{question: q}, nil
}

func (s *AgentState) Question() string {
	return s.question
}

// History returns a copy of the invocation log in chronological order.
func (s *AgentState) History() []contractx.ToolInvocationRecord {
	return s.history.Records()
}

func (s *AgentState) Record(rec contractx.ToolInvocationRecord) {
	s.history.Append(rec)
}

func (s *AgentState) SetDecision(d contractx.Decision) {
	s.lastDecision = &d
}

// LastDecision returns the most recent decision, false before the first policy call.
func (s *AgentState) LastDecision() (contractx.Decision, bool) {
	if s.lastDecision == nil {
		return contractx.Decision{}, false
	}
	return *s.lastDecision, true
}

// History is an append-only log of tool invocations.
type History struct {
	records []contractx.ToolInvocationRecord
}

func (h *History) Append(rec contractx.ToolInvocationRecord) {
	h.records = append(h.records, rec)
}

func (h *History) Len() int {
	return len(h.records)
}

func (h *History) Records() []contractx.ToolInvocationRecord {
	if len(h.records) == 0 {
		return nil
	}
	out := make([]contractx.ToolInvocationRecord, len(h.records))
	copy(out, h.records)
	return out
}
