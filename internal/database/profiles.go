//go:build cgo

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

// ProfileSummary describes one stored profile.
type ProfileSummary struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
	Events     []string  `json:"events"`
	LinesRead  int       `json:"linesRead"`
	ErrorCount int       `json:"errorCount"`
	EntryCount int       `json:"entryCount"`
}

// EntryCost is one entry's total for a single event.
type EntryCost struct {
	Key          string `json:"key"`
	FileName     string `json:"fileName"`
	FunctionName string `json:"functionName"`
	Value        uint64 `json:"value"`
}

// CallRow is one stored caller->callee edge.
type CallRow struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Calls  uint64 `json:"calls"`
	Cost   uint64 `json:"cost"`
}

// SaveResult stores res in one transaction and returns the new profile id.
func (d *Database) SaveResult(ctx context.Context, source string, res *callgrind.Result) (string, error) {
	id := uuid.New().String()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, source, created_at, events, lines_read, error_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, source, time.Now().UTC(), strings.Join(res.Events, " "), int64(res.LinesRead), int64(len(res.Errors))); err != nil {
		return "", fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := insertEntries(ctx, tx, id, res.Profile); err != nil {
		return "", err
	}
	if err := insertCalls(ctx, tx, id, res.Calls); err != nil {
		return "", err
	}
	if err := insertErrors(ctx, tx, id, res.Errors); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.logger.Info().
		Str("profile_id", id).
		Str("source", source).
		Int("entries", len(res.Profile)).
		Int("calls", len(res.Calls)).
		Msg("Profile saved")

	return id, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, id string, db callgrind.Database) error {
	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_entries (
			profile_id, scope_key, file_id, function_id, file_name, function_name, line_count, first_line
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry statement: %w", err)
	}
	defer func() { _ = entryStmt.Close() }()

	eventStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_events (profile_id, scope_key, event, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event statement: %w", err)
	}
	defer func() { _ = eventStmt.Close() }()

	for _, key := range db.Keys() {
		e := db[key]
		var firstLine sql.NullInt64
		if len(e.Lines) > 0 {
			firstLine = sql.NullInt64{Int64: int64(e.Lines[0]), Valid: true}
		}
		if _, err := entryStmt.ExecContext(ctx,
			id,
			key.String(),
			key.File,
			key.Function,
			e.FileName,
			e.FunctionName,
			int64(len(e.Lines)),
			firstLine,
		); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", key, err)
		}
		for ev, v := range e.Events {
			if _, err := eventStmt.ExecContext(ctx, id, key.String(), ev, int64(v)); err != nil {
				return fmt.Errorf("failed to insert event %s for %s: %w", ev, key, err)
			}
		}
	}
	return nil
}

func insertCalls(ctx context.Context, tx *sql.Tx, id string, calls []callgrind.CallEdge) error {
	if len(calls) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_calls (profile_id, seq, caller_key, callee_key, calls, cost)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare call statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range calls {
		if _, err := stmt.ExecContext(ctx, id, int64(i), c.Caller.String(), c.Callee.String(), int64(c.Calls), int64(c.Cost)); err != nil {
			return fmt.Errorf("failed to insert call %s -> %s: %w", c.Caller, c.Callee, err)
		}
	}
	return nil
}

func insertErrors(ctx context.Context, tx *sql.Tx, id string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO profile_errors (profile_id, seq, line) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare error statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, line := range lines {
		if _, err := stmt.ExecContext(ctx, id, int64(i), line); err != nil {
			return fmt.Errorf("failed to insert error line %d: %w", i, err)
		}
	}
	return nil
}

// ListProfiles returns all stored profiles, newest first.
func (d *Database) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.source, p.created_at, p.events, p.lines_read, p.error_count,
			(SELECT count(*) FROM profile_entries e WHERE e.profile_id = p.id)
		FROM profiles p
		ORDER BY p.created_at DESC, p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProfileSummary
	for rows.Next() {
		var (
			p                             ProfileSummary
			events                        string
			linesRead, errCount, entryCnt int64
		)
		if err := rows.Scan(&p.ID, &p.Source, &p.CreatedAt, &events, &linesRead, &errCount, &entryCnt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Events = strings.Fields(events)
		p.LinesRead = int(linesRead)
		p.ErrorCount = int(errCount)
		p.EntryCount = int(entryCnt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopEntries returns the entries of profileID with the highest total for
// event, ties broken by scope key.
func (d *Database) TopEntries(ctx context.Context, profileID, event string, limit int) ([]EntryCost, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT e.scope_key, e.file_name, e.function_name, v.value
		FROM profile_events v
		JOIN profile_entries e ON e.profile_id = v.profile_id AND e.scope_key = v.scope_key
		WHERE v.profile_id = ? AND v.event = ?
		ORDER BY v.value DESC, e.scope_key
		LIMIT ?
	`, profileID, event, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EntryCost
	for rows.Next() {
		var (
			c     EntryCost
			value int64
		)
		if err := rows.Scan(&c.Key, &c.FileName, &c.FunctionName, &value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		c.Value = uint64(value)
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopCalls returns the edges of profileID with the highest inclusive cost.
func (d *Database) TopCalls(ctx context.Context, profileID string, limit int) ([]CallRow, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT caller_key, callee_key, calls, cost
		FROM profile_calls
		WHERE profile_id = ?
		ORDER BY cost DESC, seq
		LIMIT ?
	`, profileID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CallRow
	for rows.Next() {
		var (
			c           CallRow
			calls, cost int64
		)
		if err := rows.Scan(&c.Caller, &c.Callee, &calls, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		c.Calls = uint64(calls)
		c.Cost = uint64(cost)
		out = append(out, c)
	}
	return out, rows.Err()
}
