package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/chative-tool-agent/agent/audit"
	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

// RecordTranscript writes the finished turn to the audit sink. A sink failure
// is reported to onError and logged; it never fails the turn.
func RecordTranscript(
	ctx context.Context,
	in *GraphState,
	sink audit.Sink,
	variant string,
	onError func(error),
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	t := audit.NewTranscript(in.TurnID, variant, in.Text, in.Result, in.Took, in.Now)
	if err := sink.Record(ctx, t); err != nil {
		log.Warn().Err(err).Str("turn_id", in.TurnID).Msg("audit transcript not recorded")
		if onError != nil {
			onError(err)
		}
	}
	return in, nil
}
