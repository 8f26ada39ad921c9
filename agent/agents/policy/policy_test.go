package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

type fakeChatClient struct {
	responses []string
	err       error
	idx       int
	seen      [][]*schema.Message
	temps     []float32
}

func (f *fakeChatClient) Chat(ctx context.Context, messages []*schema.Message, temperature float32) (string, error) {
	f.seen = append(f.seen, messages)
	f.temps = append(f.temps, temperature)
	if f.err != nil {
		return "", f.err
	}
	if f.idx >= len(f.responses) {
		return "", errors.New("no fake response left")
	}
	out := f.responses[f.idx]
	f.idx++
	return out, nil
}

const testPolicyPrompt = "decide with tools:\n{{.tools}}"

func TestLLMPolicyDecideUseTool(t *testing.T) {
	t.Parallel()

	fake := &fakeChatClient{responses: []string{`{"action":"use_tool","tool_expression":"2 + 3 * 4","answer_text":null}`}}
	pol, err := NewLLMPolicy(context.Background(), fake, 0, testPolicyPrompt, toolx.Default())
	if err != nil {
		t.Fatalf("NewLLMPolicy() error = %v", err)
	}

	got, err := pol.Decide(context.Background(), "What is 2 + 3 * 4?", nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got.Action != contractx.ActionUseTool {
		t.Fatalf("unexpected action: %s", got.Action)
	}
	if got.Expression() != "2 + 3 * 4" {
		t.Fatalf("unexpected expression: %q", got.Expression())
	}

	if len(fake.seen) != 1 || len(fake.seen[0]) != 2 {
		t.Fatalf("expected one call with system+user messages, got %#v", fake.seen)
	}
	system := fake.seen[0][0].Content
	if !strings.Contains(system, "- calculator:") {
		t.Fatalf("system prompt should list the calculator, got %q", system)
	}
	user := fake.seen[0][1].Content
	if !strings.Contains(user, `"question":"What is 2 + 3 * 4?"`) || !strings.Contains(user, `"history":[]`) {
		t.Fatalf("unexpected user payload: %q", user)
	}
	if fake.temps[0] != 0 {
		t.Fatalf("unexpected temperature: %v", fake.temps[0])
	}
}

func TestLLMPolicyDecideIncludesHistory(t *testing.T) {
	t.Parallel()

	fake := &fakeChatClient{responses: []string{`{"action":"answer","answer_text":"It is 14."}`}}
	pol, err := NewLLMPolicy(context.Background(), fake, 0.2, testPolicyPrompt, nil)
	if err != nil {
		t.Fatalf("NewLLMPolicy() error = %v", err)
	}

	history := []contractx.ToolInvocationRecord{{
		ToolName: toolx.ToolCalculator,
		Input:    "2 + 3 * 4",
		Outcome:  contractx.Success(14),
	}}
	got, err := pol.Decide(context.Background(), "What is 2 + 3 * 4?", history)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got.Answer() != "It is 14." {
		t.Fatalf("unexpected answer: %q", got.Answer())
	}
	if user := fake.seen[0][1].Content; !strings.Contains(user, `"result":14`) {
		t.Fatalf("history missing from payload: %q", user)
	}
}

func TestLLMPolicyDecideMalformedFallsBackToAnswer(t *testing.T) {
	t.Parallel()

	fake := &fakeChatClient{responses: []string{"Hello! I am fine."}}
	pol, err := NewLLMPolicy(context.Background(), fake, 0, testPolicyPrompt, nil)
	if err != nil {
		t.Fatalf("NewLLMPolicy() error = %v", err)
	}

	got, err := pol.Decide(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got.Action != contractx.ActionAnswer || got.Answer() != "Hello! I am fine." {
		t.Fatalf("unexpected fallback decision: %#v", got)
	}
}

func TestLLMPolicyDecideModelError(t *testing.T) {
	t.Parallel()

	fake := &fakeChatClient{err: errors.New("boom")}
	pol, err := NewLLMPolicy(context.Background(), fake, 0, testPolicyPrompt, nil)
	if err != nil {
		t.Fatalf("NewLLMPolicy() error = %v", err)
	}

	_, err = pol.Decide(context.Background(), "hi", nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestNewLLMPolicyRequiresPrompt(t *testing.T) {
	t.Parallel()

	_, err := NewLLMPolicy(context.Background(), &fakeChatClient{}, 0, "  ", nil)
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}

func TestLLMClassifierClassify(t *testing.T) {
	t.Parallel()

	fake := &fakeChatClient{responses: []string{
		`{"route":"tool_route","tool_expression":"(10 - 4) / 3"}`,
		`{"route":"research","answer_text":"Paris is the capital of France."}`,
		"not json at all",
	}}
	classifier, err := NewLLMClassifier(context.Background(), fake, 0, "route it")
	if err != nil {
		t.Fatalf("NewLLMClassifier() error = %v", err)
	}

	got, err := classifier.Classify(context.Background(), "What is (10 - 4) / 3?")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Route != contractx.RouteTool || got.Expression() != "(10 - 4) / 3" {
		t.Fatalf("unexpected route decision: %#v", got)
	}
	if user := fake.seen[0][1].Content; !strings.Contains(user, `{"question":"What is (10 - 4) / 3?"}`) {
		t.Fatalf("unexpected router payload: %q", user)
	}

	got, err = classifier.Classify(context.Background(), "capital of France?")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Route != contractx.RouteResearch || got.Answer() != "Paris is the capital of France." {
		t.Fatalf("unexpected route decision: %#v", got)
	}

	got, err = classifier.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Route != contractx.RouteChat || got.Answer() != "not json at all" {
		t.Fatalf("unexpected fallback route decision: %#v", got)
	}
}
