package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result.Output == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no output", contractx.ErrValidation)
	}
	return GraphOutput{TurnID: in.TurnID, Result: in.Result, Took: in.Took}, nil
}
