package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/gentest/internal/trace"
)

// ErrRunNotFound is returned by ReadRun and ReadTrace for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived harness run.
type Run struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Pass      bool   `json:"pass"`
	Error     string `json:"error,omitempty"`
	MaxSeq    int64  `json:"max_seq"`
}

// ArchiveRun writes a run and its trace events in one transaction and
// returns the generated run ID.
//
// Event detail maps are serialized to canonical JSON so stored traces
// compare byte-for-byte with freshly recorded ones.
func (s *Store) ArchiveRun(ctx context.Context, run Run, events []trace.Event) (string, error) {
	id := run.ID
	if id == "" {
		id = s.ids.Generate()
	}

	var maxSeq int64
	for _, ev := range events {
		if ev.Seq > maxSeq {
			maxSeq = ev.Seq
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, namespace, pass, error, max_seq)
		VALUES (?, ?, ?, ?, ?)
	`, id, run.Namespace, boolToInt(run.Pass), run.Error, maxSeq)
	if err != nil {
		return "", fmt.Errorf("failed to write run: %w", err)
	}

	for _, ev := range events {
		detail := ""
		if len(ev.Detail) > 0 {
			detailJSON, err := trace.MarshalCanonical(ev.Detail)
			if err != nil {
				return "", fmt.Errorf("failed to serialize event %d detail: %w", ev.Seq, err)
			}
			detail = string(detailJSON)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_events (run_id, seq, type, namespace, detail)
			VALUES (?, ?, ?, ?, ?)
		`, id, ev.Seq, ev.Type, ev.Namespace, detail)
		if err != nil {
			return "", fmt.Errorf("failed to write event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	return id, nil
}

// ReadRun reads a single archived run by ID.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, namespace, pass, error, max_seq
		FROM runs WHERE id = ?
	`, id)

	var run Run
	var pass int
	err := row.Scan(&run.ID, &run.Namespace, &pass, &run.Error, &run.MaxSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	run.Pass = pass != 0

	return &run, nil
}

// ListRuns returns all archived runs ordered by ID. UUIDv7 run IDs sort
// by creation time, so the default order is chronological.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, pass, error, max_seq
		FROM runs ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var pass int
		if err := rows.Scan(&run.ID, &run.Namespace, &pass, &run.Error, &run.MaxSeq); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Pass = pass != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// ReadTrace reads the archived trace events of a run, ordered by seq.
// Detail JSON is left as a raw string under the "raw" key; the archive
// exists for inspection, not for round-tripping values.
func (s *Store) ReadTrace(ctx context.Context, id string) ([]trace.Event, error) {
	if _, err := s.ReadRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, namespace, detail
		FROM run_events WHERE run_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	defer rows.Close()

	var events []trace.Event
	for rows.Next() {
		var ev trace.Event
		var detail string
		if err := rows.Scan(&ev.Seq, &ev.Type, &ev.Namespace, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if detail != "" {
			ev.Detail = map[string]any{"raw": detail}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
