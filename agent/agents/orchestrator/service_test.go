package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tanpawarit/chative-tool-agent/agent/agents/loop"
	"github.com/tanpawarit/chative-tool-agent/agent/audit"
	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	"github.com/tanpawarit/chative-tool-agent/agent/contract/contracttest"
	metricsx "github.com/tanpawarit/chative-tool-agent/agent/metrics"
)

type fakeSink struct {
	err      error
	recorded []*audit.Transcript
}

func (f *fakeSink) Record(ctx context.Context, t *audit.Transcript) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, t)
	return nil
}

func (f *fakeSink) Close() error {
	return nil
}

type fakeRunner struct {
	result contractx.TurnResult
	err    error
	seen   []string
}

func (f *fakeRunner) RunTurn(ctx context.Context, question string) (contractx.TurnResult, error) {
	f.seen = append(f.seen, question)
	if f.err != nil {
		return contractx.TurnResult{}, f.err
	}
	return f.result, nil
}

func newTestOrchestrator(t *testing.T, runner contractx.TurnRunner, sink audit.Sink, m *metricsx.Metrics) *Orchestrator {
	t.Helper()

	o, err := New(runner, sink, Config{Variant: "agent", Metrics: m})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	calls := 0
	o.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}
	o.newID = func() string { return "turn-fixed" }
	return o
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	o := newTestOrchestrator(t, runner, &fakeSink{}, nil)

	_, err := o.HandleMessage(context.Background(), "    ")
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if len(runner.seen) != 0 {
		t.Fatalf("runner must not be called for blank input, got %v", runner.seen)
	}
}

func TestHandleMessageRecordsTranscript(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	m := metricsx.New()
	pol := contracttest.NewScriptedPolicy(
		`{"action":"use_tool","tool_expression":"2 + 3 * 4"}`,
		`{"action":"answer","answer_text":"The answer is 14."}`,
	)
	agent, err := loop.New(pol, nil, contractx.LoopConfig{}, loop.WithToolTrace(m.ObserveToolCall))
	if err != nil {
		t.Fatalf("loop.New() error = %v", err)
	}
	o := newTestOrchestrator(t, agent, sink, m)

	res, err := o.HandleMessage(context.Background(), "  What is 2 + 3 * 4?  ")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if res.Output != "The answer is 14." {
		t.Fatalf("unexpected output: %q", res.Output)
	}

	if len(sink.recorded) != 1 {
		t.Fatalf("expected one transcript, got %d", len(sink.recorded))
	}
	tr := sink.recorded[0]
	if tr.TurnID != "turn-fixed" || tr.Variant != "agent" {
		t.Fatalf("unexpected transcript identity: %#v", tr)
	}
	if tr.Question != "What is 2 + 3 * 4?" {
		t.Fatalf("question should be trimmed, got %q", tr.Question)
	}
	if len(tr.History) != 1 || tr.History[0].Input != "2 + 3 * 4" {
		t.Fatalf("unexpected transcript history: %#v", tr.History)
	}
	if tr.Duration != 250*time.Millisecond {
		t.Fatalf("unexpected duration: %v", tr.Duration)
	}

	toolSeries, err := testutil.GatherAndCount(m.Registry(), "tool_agent_tool_invocations_total")
	if err != nil || toolSeries != 1 {
		t.Fatalf("tool invocation series = %d, err = %v", toolSeries, err)
	}
	turnSeries, err := testutil.GatherAndCount(m.Registry(), "tool_agent_turn_total")
	if err != nil || turnSeries != 1 {
		t.Fatalf("turn series = %d, err = %v", turnSeries, err)
	}
}

func TestHandleMessageSinkErrorDoesNotFailTurn(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{result: contractx.TurnResult{Output: "hi", Status: contractx.TurnAnswered, Steps: 1}}
	o := newTestOrchestrator(t, runner, &fakeSink{err: errors.New("redis down")}, metricsx.New())

	res, err := o.HandleMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if res.Output != "hi" {
		t.Fatalf("unexpected output: %q", res.Output)
	}
}

func TestHandleMessageRunnerError(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	o := newTestOrchestrator(t, &fakeRunner{err: contractx.ErrModelInvoke}, sink, nil)

	_, err := o.HandleMessage(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if len(sink.recorded) != 0 {
		t.Fatal("failed turns must not be recorded")
	}
}

func TestHandleMessageEmptyOutput(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, &fakeRunner{result: contractx.TurnResult{}}, &fakeSink{}, nil)

	_, err := o.HandleMessage(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewRequiresRunner(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, Config{}); err == nil {
		t.Fatal("expected error for nil runner")
	}
	o, err := New(&fakeRunner{}, nil, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if o.variant != "agent" {
		t.Fatalf("unexpected default variant: %s", o.variant)
	}
	if _, ok := o.sink.(audit.NopSink); !ok {
		t.Fatalf("expected NopSink default, got %T", o.sink)
	}
}
