package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/chemkit/internal/hooks"
)

// Invocation is one recorded toolkit call.
type Invocation struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId,omitempty"`
	Tool      string        `json:"tool"`
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
	Rank      float64       `json:"rank,omitempty"` // FTS5 rank score (search results only)
}

// InvocationLog stores tool invocations with full-text search over their
// input and output.
type InvocationLog struct {
	db *DB
}

// NewInvocationLog creates an invocation log using the given database.
func NewInvocationLog(db *DB) *InvocationLog {
	return &InvocationLog{db: db}
}

// Record inserts an invocation, assigning an ID and timestamp when unset.
func (l *InvocationLog) Record(inv Invocation) (*Invocation, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	var errText sql.NullString
	if inv.Error != "" {
		errText = sql.NullString{String: inv.Error, Valid: true}
	}

	_, err := l.db.sql.Exec(
		`INSERT INTO tool_invocations (id, session_id, tool, input, output, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.SessionID, inv.Tool, inv.Input, inv.Output, errText,
		inv.Duration.Milliseconds(), inv.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const invocationColumns = `id, session_id, tool, input, output, error, duration_ms, created_at`

// Recent returns the n most recent invocations, newest first. n of 0
// defaults to 20.
func (l *InvocationLog) Recent(n int) ([]Invocation, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.sql.Query(
		`SELECT `+invocationColumns+`, 0 FROM tool_invocations
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// ByTool returns the n most recent invocations of one tool.
func (l *InvocationLog) ByTool(tool string, n int) ([]Invocation, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.sql.Query(
		`SELECT `+invocationColumns+`, 0 FROM tool_invocations
		 WHERE tool = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, tool, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// ForSession returns a session's invocations in call order.
func (l *InvocationLog) ForSession(sessionID string) ([]Invocation, error) {
	rows, err := l.db.sql.Query(
		`SELECT `+invocationColumns+`, 0 FROM tool_invocations
		 WHERE session_id = ? ORDER BY rowid`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// Search finds invocations whose input or output match every term of the
// query, ranked by relevance. Limit of 0 defaults to 20.
func (l *InvocationLog) Search(query string, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 20
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := l.db.sql.Query(
		`SELECT ti.id, ti.session_id, ti.tool, ti.input, ti.output, ti.error,
		        ti.duration_ms, ti.created_at, rank
		 FROM invocations_fts
		 JOIN tool_invocations ti ON ti.rowid = invocations_fts.rowid
		 WHERE invocations_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvocations(rows)
}

// ftsQuery quotes each whitespace-separated term so SMILES punctuation is
// not read as FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Prune deletes invocations recorded before the cutoff.
func (l *InvocationLog) Prune(before time.Time) (int64, error) {
	res, err := l.db.sql.Exec(
		`DELETE FROM tool_invocations WHERE created_at < ?`, before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HookHandler records every hooks.EventToolCall payload.
func (l *InvocationLog) HookHandler() hooks.Handler {
	return func(_ context.Context, p hooks.Payload) error {
		call, ok := hooks.ToolCallFromPayload(p)
		if !ok {
			return nil
		}
		_, err := l.Record(Invocation{
			SessionID: call.SessionID,
			Tool:      call.Tool,
			Input:     call.Input,
			Output:    call.Output,
			Error:     call.Error,
			Duration:  call.Duration,
		})
		return err
	}
}

func scanInvocations(rows *sql.Rows) ([]Invocation, error) {
	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var errText sql.NullString
		var durationMS int64
		var createdAt string

		if err := rows.Scan(
			&inv.ID, &inv.SessionID, &inv.Tool, &inv.Input, &inv.Output,
			&errText, &durationMS, &createdAt, &inv.Rank,
		); err != nil {
			continue
		}

		inv.Error = errText.String
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		inv.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}
