package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qstashx "github.com/tanpawarit/chative-tool-agent/pkg/qstash"
)

type publisher interface {
	PublishJSON(ctx context.Context, destination string, body any) (qstashx.PublishResponse, error)
}

// QStashSink forwards each transcript to a QStash topic or URL for delivery
// to an external consumer.
type QStashSink struct {
	client      publisher
	destination string
}

var _ Sink = (*QStashSink)(nil)

func NewQStashSink(client publisher, destination string) (*QStashSink, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}
	return &QStashSink{client: client, destination: destination}, nil
}

func (s *QStashSink) Record(ctx context.Context, t *Transcript) error {
	if err := t.validate(); err != nil {
		return err
	}
	if _, err := s.client.PublishJSON(ctx, s.destination, t); err != nil {
		return fmt.Errorf("publish transcript %s: %w", t.TurnID, err)
	}
	return nil
}

func (s *QStashSink) Close() error { return nil }
