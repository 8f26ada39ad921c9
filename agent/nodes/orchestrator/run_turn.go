package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

func RunTurn(
	ctx context.Context,
	in *GraphState,
	runner contractx.TurnRunner,
	nowFn func() time.Time,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	res, err := runner.RunTurn(ctx, in.Text)
	if err != nil {
		return nil, err
	}
	in.Result = res
	in.Took = nowFn().Sub(in.Now)
	return in, nil
}
