// Package audit keeps an append-only transcript of completed turns.
// Transcripts are written for inspection only and never read back by the agent.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
	qstashx "github.com/tanpawarit/chative-tool-agent/pkg/qstash"
)

var (
	ErrNilTranscript   = errors.New("transcript is nil")
	ErrInvalidTurnID   = errors.New("turn id is empty")
	ErrUnknownSinkKind = errors.New("unknown audit sink")
)

// Transcript is one completed turn as seen from the outside.
type Transcript struct {
	TurnID    string                           `json:"turn_id"`
	Variant   string                           `json:"variant"`
	Question  string                           `json:"question"`
	Output    string                           `json:"output"`
	Status    contractx.TurnStatus             `json:"status"`
	Route     contractx.Route                  `json:"route,omitempty"`
	Steps     int                              `json:"steps"`
	History   []contractx.ToolInvocationRecord `json:"history"`
	Duration  time.Duration                    `json:"duration"`
	CreatedAt time.Time                        `json:"created_at"`
}

// NewTranscript copies a turn result into a transcript.
func NewTranscript(turnID, variant, question string, res contractx.TurnResult, took time.Duration, at time.Time) *Transcript {
	history := make([]contractx.ToolInvocationRecord, len(res.History))
	copy(history, res.History)
	return &Transcript{
		TurnID:    turnID,
		Variant:   variant,
		Question:  question,
		Output:    res.Output,
		Status:    res.Status,
		Route:     res.Route,
		Steps:     res.Steps,
		History:   history,
		Duration:  took,
		CreatedAt: at.UTC(),
	}
}

func (t *Transcript) validate() error {
	if t == nil {
		return ErrNilTranscript
	}
	if strings.TrimSpace(t.TurnID) == "" {
		return ErrInvalidTurnID
	}
	return nil
}

// Sink is the persistence contract used by the orchestrator.
type Sink interface {
	Record(ctx context.Context, t *Transcript) error
	Close() error
}

// NopSink drops every transcript.
type NopSink struct{}

func (NopSink) Record(context.Context, *Transcript) error { return nil }

func (NopSink) Close() error { return nil }

const (
	SinkNone     = "none"
	SinkUpstash  = "upstash"
	SinkPostgres = "postgres"
	SinkQStash   = "qstash"
)

// Config is loaded with the AUDIT prefix.
type Config struct {
	Sink           string         `envconfig:"SINK" default:"none"`
	KeyPrefix      string         `envconfig:"KEY_PREFIX" split_words:"true" default:"agent:turn:"`
	TTL            time.Duration  `envconfig:"TTL" default:"24h"`
	UpstashURL     string         `envconfig:"UPSTASH_URL" split_words:"true"`
	UpstashToken   string         `envconfig:"UPSTASH_TOKEN" split_words:"true"`
	UpstashTimeout time.Duration  `envconfig:"UPSTASH_TIMEOUT" split_words:"true" default:"10s"`
	PostgresDSN    string         `envconfig:"POSTGRES_DSN" split_words:"true"`
	AutoMigrate    bool           `envconfig:"AUTO_MIGRATE" split_words:"true" default:"true"`
	QStash         qstashx.Config `envconfig:"QSTASH"`
	QStashTopic    string         `envconfig:"QSTASH_TOPIC" split_words:"true"`
}

// New builds the sink selected by cfg.Sink.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", SinkNone:
		return NopSink{}, nil
	case SinkUpstash:
		return NewUpstashSink(
			UpstashConfig{URL: cfg.UpstashURL, Token: cfg.UpstashToken, Timeout: cfg.UpstashTimeout},
			WithKeyPrefix(cfg.KeyPrefix),
			WithTTL(cfg.TTL),
		)
	case SinkPostgres:
		sink, err := NewPostgresSink(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := sink.Migrate(ctx); err != nil {
				_ = sink.Close()
				return nil, err
			}
		}
		return sink, nil
	case SinkQStash:
		client, err := qstashx.NewClient(cfg.QStash)
		if err != nil {
			return nil, err
		}
		return NewQStashSink(client, cfg.QStashTopic)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSinkKind, cfg.Sink)
	}
}
