// Package ir provides the compiled representation of smartcoll collection
// specs.
//
// Specs are written in CUE (see internal/compiler) and compiled into these
// plain types, which the guard, view and harness packages consume. ir
// imports only internal/value.
//
// Key design constraints:
//   - NO float types anywhere: schema fields and patterns are int64-only
//   - All JSON tags use snake_case
//   - Slices keep declaration order; guards are evaluated in that order
package ir
