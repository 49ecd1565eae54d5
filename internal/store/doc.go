// Package store provides SQLite-backed storage for smartcoll event traces.
//
// The store is an audit log, not a persistence layer: it records every event
// a collection emits and answers questions about the recorded history, but
// it never restores collection contents.
//
// The store implements an append-only log with:
//   - Runs: one row per recorded session
//   - Events: one row per emitted event, keyed by (run_id, seq)
//
// # Critical Patterns
//
// Logical Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Queries include ORDER BY seq ASC
//
// Item Identity
//   - Items are stored as canonical JSON with a domain-separated hash,
//     so equal items have equal item_hash across runs
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Enforce referential integrity
//
// # Usage
//
//	s, err := store.Open("trace.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	rec, err := store.NewRecorder(ctx, s, store.Run{ID: runID, Label: "demo"})
//	e := engine.New(engine.WithObserver(rec.Handler()))
package store
