// Package engine implements the smartcoll cooperative single-writer loop.
//
// Collections are not safe for concurrent use, and a canceled operation is
// meant to be resumed on a later turn, after the call stack that canceled it
// has unwound. The engine provides both: a FIFO task queue that any
// goroutine may feed, and one goroutine that runs every task against the
// collections it owns.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// 1. Tasks are enqueued to a FIFO queue (Enqueue, Defer, DeferResume)
// 2. Engine.Run() dequeues tasks one at a time
// 3. Each task runs to completion before the next starts
// 4. A failed task is logged and the loop continues
//
// Drain runs the queue synchronously on the calling goroutine and is used by
// the harness and tests. A drain is bounded by a step quota (WithMaxSteps)
// so a handler that cancels and re-defers forever terminates.
//
// Collections created through Engine.Collection share one logical clock, so
// every event across all of them carries a unique, increasing Seq.
package engine
