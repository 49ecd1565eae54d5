package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/smartcoll/internal/queryir"
	"github.com/roach88/smartcoll/internal/querysql"
)

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Label)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by ID. Run IDs are UUIDv7 in
// production, so this is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label FROM runs ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Label); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTrace returns the events of a run in seq order. An empty collection
// name returns events from every collection.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadTrace(ctx context.Context, runID, collection string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.EventColumns+`
		FROM events
		WHERE run_id = ? AND (? = '' OR collection = ?)
		ORDER BY seq ASC
	`, runID, collection, collection)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	return collectEvents(rows)
}

// ReadOperation returns every event recorded for one operation in seq order.
func (s *Store) ReadOperation(ctx context.Context, runID, opID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.EventColumns+`
		FROM events
		WHERE run_id = ? AND op_id = ?
		ORDER BY seq ASC
	`, runID, opID)
	if err != nil {
		return nil, fmt.Errorf("query operation: %w", err)
	}
	return collectEvents(rows)
}

// ReadItemHistory returns every event about items with the given hash,
// across all runs, ordered by run then seq.
func (s *Store) ReadItemHistory(ctx context.Context, itemHash string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.EventColumns+`
		FROM events
		WHERE item_hash = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC
	`, itemHash)
	if err != nil {
		return nil, fmt.Errorf("query item history: %w", err)
	}
	return collectEvents(rows)
}

// ListCollections returns the distinct collection names of a run,
// alphabetically.
func (s *Store) ListCollections(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT collection
		FROM events
		WHERE run_id = ?
		ORDER BY collection COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return names, nil
}

// FindSuspended returns operations of a run that were canceled and never
// resumed, in cancel order. An empty collection name searches them all.
func (s *Store) FindSuspended(ctx context.Context, runID, collection string) ([]SuspendedOp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.run_id, c.collection, c.op_id, c.kind, c.position, c.item, c.seq
		FROM events c
		WHERE c.run_id = ?
		  AND (? = '' OR c.collection = ?)
		  AND c.event IN ('add-cancel', 'remove-cancel')
		  AND NOT EXISTS (
		      SELECT 1 FROM events r
		      WHERE r.run_id = c.run_id
		        AND r.op_id = c.op_id
		        AND r.event IN ('add-resume', 'remove-resume')
		  )
		ORDER BY c.seq ASC
	`, runID, collection, collection)
	if err != nil {
		return nil, fmt.Errorf("query suspended: %w", err)
	}
	defer rows.Close()

	ops := []SuspendedOp{}
	for rows.Next() {
		var op SuspendedOp
		var item sql.NullString
		if err := rows.Scan(&op.RunID, &op.Collection, &op.OpID, &op.Kind, &op.Position, &item, &op.CancelSeq); err != nil {
			return nil, fmt.Errorf("scan suspended: %w", err)
		}
		if op.Item, err = unmarshalItem(item); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suspended: %w", err)
	}
	return ops, nil
}

// SelectEvents compiles q for the events table and returns the matching
// events in (run, seq) order.
func (s *Store) SelectEvents(ctx context.Context, q queryir.Query) ([]EventRecord, error) {
	query, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

// GetLastSeq returns the highest seq recorded for a run, or 0.
// Used to continue a run's logical clock.
func (s *Store) GetLastSeq(ctx context.Context, runID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id = ?
	`, runID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

func collectEvents(rows *sql.Rows) ([]EventRecord, error) {
	defer rows.Close()

	recs := []EventRecord{}
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return recs, nil
}

func scanEvent(rows *sql.Rows) (EventRecord, error) {
	var rec EventRecord
	var item sql.NullString
	if err := rows.Scan(
		&rec.RunID, &rec.Seq, &rec.Collection, &rec.Event,
		&rec.OpID, &rec.Kind, &rec.Position, &item, &rec.ItemHash,
	); err != nil {
		return EventRecord{}, fmt.Errorf("scan event: %w", err)
	}
	v, err := unmarshalItem(item)
	if err != nil {
		return EventRecord{}, err
	}
	rec.Item = v
	return rec, nil
}
