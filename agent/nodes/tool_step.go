package nodes

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	statex "github.com/tanpawarit/chative-tool-agent/agent/state"
	toolx "github.com/tanpawarit/chative-tool-agent/agent/tool"
)

// ToolStep dispatches the expression of the last decision to the primary tool
// and appends the outcome to history, success or failure alike.
func ToolStep(
	ctx context.Context,
	st *statex.AgentState,
	catalog *toolx.Catalog,
) (contractx.ToolInvocationRecord, error) {
	if st == nil {
		return contractx.ToolInvocationRecord{}, ErrNilState
	}
	d, ok := st.LastDecision()
	if !ok || d.Action != contractx.ActionUseTool || strings.TrimSpace(d.Expression()) == "" {
		return contractx.ToolInvocationRecord{}, fmt.Errorf("%w: tool step without a tool decision", contractx.ErrValidation)
	}

	rec := catalog.Execute(ctx, "", d.Expression())
	st.Record(rec)
	return rec, nil
}
