package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING so reopening a run is harmless.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Label)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvent inserts an event record.
// Uses ON CONFLICT DO NOTHING for idempotency: a duplicate (run_id, seq) is
// silently ignored. The run must exist (foreign key constraint).
//
// The item is serialized to canonical JSON and hashed; rec.ItemHash is
// ignored on input.
func (s *Store) WriteEvent(ctx context.Context, rec EventRecord) error {
	item, hash, err := marshalItem(rec.Item)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(run_id, seq, collection, event, op_id, kind, position, item, item_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.RunID,
		rec.Seq,
		rec.Collection,
		rec.Event,
		rec.OpID,
		rec.Kind,
		rec.Position,
		item,
		hash,
	)
	if err != nil {
		return fmt.Errorf("write event %d: %w", rec.Seq, err)
	}
	return nil
}

// WriteEvents inserts records in a single transaction.
func (s *Store) WriteEvents(ctx context.Context, recs []EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(run_id, seq, collection, event, op_id, kind, position, item, item_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		item, hash, err := marshalItem(rec.Item)
		if err != nil {
			return fmt.Errorf("write event %d: %w", rec.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.Seq, rec.Collection, rec.Event,
			rec.OpID, rec.Kind, rec.Position, item, hash,
		); err != nil {
			return fmt.Errorf("write event %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
