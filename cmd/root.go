// Package cmd wires configuration, model clients and agents into the CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	configx "github.com/tanpawarit/chative-tool-agent/pkg/config"
)

var (
	envFile       string
	maxSteps      int
	onToolFailure string
	metricsAddr   string

	rootCmd = &cobra.Command{
		Use:   "tool-agent",
		Short: "Interactive tool-orchestrating agents backed by an OpenAI-compatible model",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configx.SetEnvFile(envFile)
		},
		SilenceUsage: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env", "", "path to .env file (defaults to ./.env when present)")
	flags.IntVar(&maxSteps, "max-steps", 0, "policy invocations allowed per turn (overrides AGENT_MAX_STEPS)")
	flags.StringVar(&onToolFailure, "on-tool-failure", "", "stop or continue after a failed tool call (overrides AGENT_ON_TOOL_FAILURE)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(
		newAgentCmd(variantAgent, "Run the imperative policy/tool loop"),
		newAgentCmd(variantGraph, "Run the policy/tool loop as a state machine"),
		newAgentCmd(variantRouter, "Classify each question once and route it"),
		newAgentCmd(variantChat, "Plain multi-turn chat without tools"),
		newCalcCmd(),
	)
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loopConfig() (contractx.LoopConfig, error) {
	cfg, err := configx.New[contractx.LoopConfig]("AGENT")
	if err != nil {
		return contractx.LoopConfig{}, err
	}
	out := *cfg
	if maxSteps != 0 {
		out.MaxSteps = maxSteps
	}
	if onToolFailure != "" {
		out.OnToolFailure = contractx.FailurePolicy(onToolFailure)
	}
	out = out.WithDefaults()
	return out, out.Validate()
}
