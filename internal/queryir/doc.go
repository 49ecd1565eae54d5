// Package queryir provides a small query IR over recorded collection
// events.
//
// A Query is built from typed nodes and handed to a backend compiler
// (querysql for the SQLite trace store). Keeping the IR separate from SQL
// lets the CLI build filters from flags without string concatenation, and
// lets Validate reject unknown columns and ill-typed literals before any
// SQL exists.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case OneOf:
//	case And:
//	}
//
// Literal values are value.Value scalars (String, Int). Arrays, objects,
// booleans and null have no column to compare against; match items by
// their hash instead (see ItemHash).
package queryir
