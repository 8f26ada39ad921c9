package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	qstashx "github.com/tanpawarit/chative-tool-agent/pkg/qstash"
)

type fakePublisher struct {
	destination string
	body        any
	err         error
}

func (f *fakePublisher) PublishJSON(_ context.Context, destination string, body any) (qstashx.PublishResponse, error) {
	f.destination = destination
	f.body = body
	if f.err != nil {
		return qstashx.PublishResponse{}, f.err
	}
	return qstashx.PublishResponse{MessageID: "msg_1"}, nil
}

func TestQStashSinkRecordPublishesTranscript(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	sink, err := NewQStashSink(pub, " agent-turns ")
	require.NoError(t, err)

	tr := NewTranscript("turn-1", "graph", "2+2?", contractx.TurnResult{Output: "4", Status: contractx.TurnAnswered, Steps: 1}, time.Second, time.Now())
	require.NoError(t, sink.Record(context.Background(), tr))
	require.Equal(t, "agent-turns", pub.destination)
	require.Same(t, tr, pub.body)
	require.NoError(t, sink.Close())
}

func TestQStashSinkRecordErrors(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("boom")}
	sink, err := NewQStashSink(pub, "agent-turns")
	require.NoError(t, err)

	require.ErrorIs(t, sink.Record(context.Background(), nil), ErrNilTranscript)
	require.ErrorIs(t, sink.Record(context.Background(), &Transcript{}), ErrInvalidTurnID)
	require.Error(t, sink.Record(context.Background(), &Transcript{TurnID: "t"}))

	_, err = NewQStashSink(pub, "")
	require.Error(t, err)
	_, err = NewQStashSink(nil, "x")
	require.Error(t, err)
}
