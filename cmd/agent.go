package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/chative-tool-agent/agent/agents/chat"
	"github.com/tanpawarit/chative-tool-agent/agent/agents/graph"
	"github.com/tanpawarit/chative-tool-agent/agent/agents/loop"
	"github.com/tanpawarit/chative-tool-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/chative-tool-agent/agent/agents/policy"
	"github.com/tanpawarit/chative-tool-agent/agent/agents/router"
	"github.com/tanpawarit/chative-tool-agent/agent/audit"
	"github.com/tanpawarit/chative-tool-agent/agent/console"
	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	llmx "github.com/tanpawarit/chative-tool-agent/agent/llm"
	metricsx "github.com/tanpawarit/chative-tool-agent/agent/metrics"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
	configx "github.com/tanpawarit/chative-tool-agent/pkg/config"
)

const (
	variantAgent  = "agent"
	variantGraph  = "graph"
	variantRouter = "router"
	variantChat   = "chat"
)

var banners = map[string]string{
	variantAgent:  "Simple tool-using agent. Type 'exit' to quit.",
	variantGraph:  "State-machine tool agent. Type 'exit' to quit.",
	variantRouter: "Router agent. Type 'exit' to quit.",
	variantChat:   "Baseline pipeline chat. Type 'exit' to quit.",
}

func newAgentCmd(variant string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   variant,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), variant, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runInteractive(ctx context.Context, variant string, in io.Reader, out io.Writer) error {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	auditCfg, err := configx.New[audit.Config]("AUDIT")
	if err != nil {
		return fmt.Errorf("load audit config: %w", err)
	}

	sink, err := audit.New(ctx, *auditCfg)
	if err != nil {
		return fmt.Errorf("open audit sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn().Err(err).Msg("close audit sink")
		}
	}()

	m := metricsx.New()
	if metricsAddr != "" {
		go func() {
			if err := metricsx.Serve(ctx, metricsAddr, m); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	registry, err := policy.NewRegistry(ctx, *llmCfg, toolx.Default())
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}

	trace := func(rec contractx.ToolInvocationRecord) {
		m.ObserveToolCall(rec)
		if rec.Outcome.IsSuccess() {
			fmt.Fprintf(out, "[tool] %s(%s) = %s\n", rec.ToolName, rec.Input, rec.Outcome)
		}
	}

	runner, err := newRunner(ctx, variant, registry, trace)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(runner, sink, orchestrator.Config{Variant: variant, Metrics: m})
	if err != nil {
		return err
	}

	opts := console.Options{Banner: banners[variant]}
	if variant == variantRouter {
		opts.Format = console.RouteTagged
	}
	return console.Run(ctx, in, out, orch.HandleMessage, opts)
}

func newRunner(
	ctx context.Context,
	variant string,
	registry *policy.Registry,
	trace func(contractx.ToolInvocationRecord),
) (contractx.TurnRunner, error) {
	switch variant {
	case variantAgent, variantGraph:
		cfg, err := loopConfig()
		if err != nil {
			return nil, err
		}
		log.Debug().Str("variant", variant).Int("max_steps", cfg.MaxSteps).Str("on_tool_failure", string(cfg.OnToolFailure)).Msg("loop config")
		if variant == variantAgent {
			return loop.New(registry.Policy(), registry.Tools(), cfg, loop.WithToolTrace(trace))
		}
		return graph.New(registry.Policy(), registry.Tools(), cfg, graph.WithToolTrace(trace))
	case variantRouter:
		return router.New(ctx, registry.Classifier(), registry.Tools(), router.WithToolTrace(trace))
	case variantChat:
		return chat.New(registry.Chat(), registry.ChatPrompt(), registry.ChatTemperature())
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
}
