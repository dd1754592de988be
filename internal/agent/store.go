package agent

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one persisted orchestrator run.
type Run struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Agent      string    `json:"agent"`
	Answer     string    `json:"answer"`
	ToolCalls  int       `json:"tool_calls"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStore persists run history in the agent_runs table.
type RunStore struct {
	db *sql.DB
}

// NewRunStore wraps a migrated database handle.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Save inserts one run.
func (s *RunStore) Save(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_runs (id, question, agent, answer, tool_calls, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Question, run.Agent, run.Answer, run.ToolCalls,
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("agent: save run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, agent, answer, tool_calls, started_at, finished_at
		FROM agent_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("agent: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Question, &r.Agent, &r.Answer, &r.ToolCalls, &started, &finished); err != nil {
			return nil, fmt.Errorf("agent: scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
