// Package view provides computed views and bound query features over a
// collection's items.
//
// A view is a named function of the current items, recomputed on every
// access. Every registry has the view "all". Features are a fixed catalog
// of list queries (where, pluck, first, ...) that a collection opts into by
// name with Bind.
package view
