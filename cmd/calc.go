package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate an arithmetic expression with the calculator tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")
			value, err := toolx.Calculator{}.Invoke(cmd.Context(), expr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), contractx.FormatNumber(value))
			return nil
		},
	}
}
