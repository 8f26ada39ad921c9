package nodes

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/contract/contracttest"
	statex "github.com/tanpawarit/chative-tool-agent/agent/state"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

func newState(t *testing.T, q string) *statex.AgentState {
	t.Helper()
	st, err := statex.NewAgentState(q)
	if err != nil {
		t.Fatalf("NewAgentState() error = %v", err)
	}
	return st
}

func TestPolicyStepStoresDecision(t *testing.T) {
	t.Parallel()

	st := newState(t, "What is 2 + 2?")
	pol := contracttest.NewScriptedPolicy(`{"action":"use_tool","tool_expression":"2+2"}`)

	d, err := PolicyStep(context.Background(), st, pol)
	if err != nil {
		t.Fatalf("PolicyStep() error = %v", err)
	}
	last, ok := st.LastDecision()
	if !ok || last.Expression() != "2+2" || d.Action != contractx.ActionUseTool {
		t.Fatalf("unexpected decision: %#v", last)
	}
}

func TestPolicyStepPropagatesError(t *testing.T) {
	t.Parallel()

	st := newState(t, "q")
	pol := &contracttest.ScriptedPolicy{Err: contractx.ErrModelInvoke}

	_, err := PolicyStep(context.Background(), st, pol)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if _, ok := st.LastDecision(); ok {
		t.Fatal("decision must not be set on error")
	}
}

func TestPolicyStepNilState(t *testing.T) {
	t.Parallel()

	_, err := PolicyStep(context.Background(), nil, contracttest.NewScriptedPolicy())
	if !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
}

func TestToolStepRecordsOutcome(t *testing.T) {
	t.Parallel()

	st := newState(t, "q")
	st.SetDecision(contractx.Decision{Action: contractx.ActionUseTool, ToolExpression: ptr("2 + 3 * 4")})

	rec, err := ToolStep(context.Background(), st, toolx.Default())
	if err != nil {
		t.Fatalf("ToolStep() error = %v", err)
	}
	if !rec.Outcome.IsSuccess() || rec.Outcome.Value() != 14 {
		t.Fatalf("unexpected record: %#v", rec)
	}

	st.SetDecision(contractx.Decision{Action: contractx.ActionUseTool, ToolExpression: ptr("2 +")})
	rec, err = ToolStep(context.Background(), st, toolx.Default())
	if err != nil {
		t.Fatalf("ToolStep() error = %v", err)
	}
	if rec.Outcome.IsSuccess() {
		t.Fatalf("expected failure record, got %#v", rec)
	}

	history := st.History()
	if len(history) != 2 || history[0].Input != "2 + 3 * 4" || history[1].Input != "2 +" {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestToolStepRequiresToolDecision(t *testing.T) {
	t.Parallel()

	st := newState(t, "q")
	if _, err := ToolStep(context.Background(), st, toolx.Default()); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConcludeDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		decision   contractx.Decision
		wantOutput string
		wantStatus contractx.TurnStatus
	}{
		{
			name:       "answer",
			decision:   contractx.Decision{Action: contractx.ActionAnswer, AnswerText: ptr("14")},
			wantOutput: "14",
			wantStatus: contractx.TurnAnswered,
		},
		{
			name:       "empty answer",
			decision:   contractx.Decision{Action: contractx.ActionAnswer, AnswerText: ptr("  ")},
			wantOutput: contractx.NoAnswerProduced,
			wantStatus: contractx.TurnNoAnswer,
		},
		{
			name:       "absent answer",
			decision:   contractx.Decision{Action: contractx.ActionAnswer},
			wantOutput: contractx.NoAnswerProduced,
			wantStatus: contractx.TurnNoAnswer,
		},
		{
			name:       "tool without expression",
			decision:   contractx.Decision{Action: contractx.ActionUseTool},
			wantOutput: contractx.MissingExpressionMessage,
			wantStatus: contractx.TurnMissingExpression,
		},
		{
			name:       "unknown action",
			decision:   contractx.Decision{Action: "search_web"},
			wantOutput: "Unknown action from policy: search_web",
			wantStatus: contractx.TurnUnknownAction,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, status := ConcludeDecision(tt.decision)
			if out != tt.wantOutput || status != tt.wantStatus {
				t.Fatalf("ConcludeDecision() = (%q, %s), want (%q, %s)", out, status, tt.wantOutput, tt.wantStatus)
			}
		})
	}
}

func TestConcludeToolFailure(t *testing.T) {
	t.Parallel()

	out, status := ConcludeToolFailure(contractx.ToolInvocationRecord{
		ToolName: "calculator",
		Input:    "1/0",
		Outcome:  contractx.Failure("invalid expression: 1/0: division by zero"),
	})
	if out != "Tool error (calculator): invalid expression: 1/0: division by zero" {
		t.Fatalf("unexpected output: %q", out)
	}
	if status != contractx.TurnToolFailed {
		t.Fatalf("unexpected status: %s", status)
	}
}

func ptr(s string) *string { return &s }
