// Package guard enforces a compiled collection spec on a live collection.
//
// Install registers before-event handlers that cancel operations:
//
//   - add-before: items that do not satisfy the spec's item schema are
//     canceled and abandoned.
//   - add-before, remove-before: the first guard whose When pattern matches
//     the item cancels the operation and applies its resume policy.
//
// Resume policies:
//
//	never      the operation stays suspended until something else resumes it
//	immediate  the operation is resumed from inside the before phase
//	deferred   the resume is handed to a Scheduler, usually the engine
package guard
