package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

type turnRow struct {
	bun.BaseModel `bun:"table:agent_turns,alias:t"`

	TurnID     string                           `bun:"turn_id,pk"`
	Variant    string                           `bun:"variant,notnull"`
	Question   string                           `bun:"question,notnull"`
	Output     string                           `bun:"output,notnull"`
	Status     string                           `bun:"status,notnull"`
	Route      string                           `bun:"route,nullzero"`
	Steps      int                              `bun:"steps,notnull"`
	History    []contractx.ToolInvocationRecord `bun:"history,type:jsonb"`
	DurationMS int64                            `bun:"duration_ms,notnull"`
	CreatedAt  time.Time                        `bun:"created_at,notnull"`
}

func newTurnRow(t *Transcript) *turnRow {
	history := t.History
	if history == nil {
		history = []contractx.ToolInvocationRecord{}
	}
	return &turnRow{
		TurnID:     t.TurnID,
		Variant:    t.Variant,
		Question:   t.Question,
		Output:     t.Output,
		Status:     string(t.Status),
		Route:      string(t.Route),
		Steps:      t.Steps,
		History:    history,
		DurationMS: t.Duration.Milliseconds(),
		CreatedAt:  t.CreatedAt.UTC(),
	}
}

// PostgresSink appends one row per turn to agent_turns.
type PostgresSink struct {
	db *bun.DB
}

var _ Sink = (*PostgresSink)(nil)

func NewPostgresSink(dsn string) (*PostgresSink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresSink{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Migrate creates the table when it does not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("create agent_turns: %w", err)
	}
	return nil
}

func (s *PostgresSink) Record(ctx context.Context, t *Transcript) error {
	if err := t.validate(); err != nil {
		return err
	}
	if _, err := s.insertQuery(t).Exec(ctx); err != nil {
		return fmt.Errorf("insert turn %s: %w", t.TurnID, err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model((*turnRow)(nil)).IfNotExists()
}

func (s *PostgresSink) insertQuery(t *Transcript) *bun.InsertQuery {
	return s.db.NewInsert().Model(newTurnRow(t))
}
