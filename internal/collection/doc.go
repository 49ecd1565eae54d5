// Package collection implements the smartcoll ordered collection and its
// operation lifecycle.
//
// Every add or remove of a single item is an Operation. The collection emits
// a before event carrying the Operation; observers may cancel it there. A
// canceled Operation is a value that outlives the call that created it: it
// sits in the collection's suspended arena until someone resumes it, possibly
// many scheduler turns later, or it is abandoned.
//
// EVENT SEQUENCE (per item):
//
//	<kind>-before → <kind> → <kind>-after [→ empty]
//	<kind>-before → <kind>-cancel ... <kind>-resume → <kind> → <kind>-after
//
// Batches interleave these sequences per item in input order; they are never
// grouped into phases.
//
// RESUMPTION:
//
// A canceled Operation may only be resumed at an edge of the list: append,
// first (0), or last (an index at or beyond len-1 measured when Resume is
// called). Interior positions fail with an OperationError because other
// operations may have shifted the indices since the cancel.
//
// CONCURRENCY:
//
// A Collection has exactly one logical writer. Emission is synchronous and
// re-entrant; handlers may call back into the collection. There is no
// locking. Callers on other goroutines must go through a single-writer loop
// (see internal/engine).
package collection
