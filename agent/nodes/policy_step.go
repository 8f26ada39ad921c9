package nodes

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	statex "github.com/tanpawarit/chative-tool-agent/agent/state"
)

var ErrNilState = errors.New("agent state is nil")

// PolicyStep asks the policy for the next action and stores it as the last decision.
func PolicyStep(
	ctx context.Context,
	st *statex.AgentState,
	policy contractx.Policy,
) (contractx.Decision, error) {
	if st == nil {
		return contractx.Decision{}, ErrNilState
	}
	if err := ctx.Err(); err != nil {
		return contractx.Decision{}, err
	}

	d, err := policy.Decide(ctx, st.Question(), st.History())
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("policy step: %w", err)
	}
	st.SetDecision(d)
	return d, nil
}
