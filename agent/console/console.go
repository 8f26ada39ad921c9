// Package console is the line-oriented front end: read a line, run one turn,
// print one reply.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

const (
	UserPrompt  = "you> "
	AgentPrefix = "agent> "
)

// Handler runs one turn for a non-blank line.
type Handler func(ctx context.Context, text string) (contractx.TurnResult, error)

type Options struct {
	Banner string
	// Format renders a result; nil prints Output unchanged.
	Format func(contractx.TurnResult) string
}

// RouteTagged prefixes the output with the chosen route when there is one.
func RouteTagged(res contractx.TurnResult) string {
	if res.Route == "" {
		return res.Output
	}
	return fmt.Sprintf("[route=%s] %s", res.Route, res.Output)
}

// Run loops until exit/quit, EOF or ctx cancellation. Turn errors are printed
// and the loop keeps going.
func Run(ctx context.Context, in io.Reader, out io.Writer, handle Handler, opts Options) error {
	if opts.Banner != "" {
		fmt.Fprintf(out, "%s\n\n", opts.Banner)
	}
	format := opts.Format
	if format == nil {
		format = func(res contractx.TurnResult) string { return res.Output }
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(out, UserPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			fmt.Fprintln(out, "Exiting.")
			return nil
		}

		res, err := handle(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "%serror: %v\n\n", AgentPrefix, err)
			continue
		}
		fmt.Fprintf(out, "%s%s\n\n", AgentPrefix, format(res))
	}
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	return false
}
