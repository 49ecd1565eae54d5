package queryir

import (
	"github.com/roach88/smartcoll/internal/value"
)

// Query represents an abstract query over recorded events.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: column = literal
//   - OneOf: column IN (literal, ...)
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// ColumnType is the literal type a column compares against.
type ColumnType string

const (
	ColumnText ColumnType = "string"
	ColumnInt  ColumnType = "int"
)

// Event columns that predicates may reference.
const (
	ColRunID      = "run_id"
	ColSeq        = "seq"
	ColCollection = "collection"
	ColEvent      = "event"
	ColOpID       = "op_id"
	ColKind       = "kind"
	ColPosition   = "position"
	ColItemHash   = "item_hash"
)

// Columns maps each filterable column to its literal type. The item
// column itself is not filterable; use ItemHash.
var Columns = map[string]ColumnType{
	ColRunID:      ColumnText,
	ColSeq:        ColumnInt,
	ColCollection: ColumnText,
	ColEvent:      ColumnText,
	ColOpID:       ColumnText,
	ColKind:       ColumnText,
	ColPosition:   ColumnText,
	ColItemHash:   ColumnText,
}

// Select reads events matching Filter in (run, seq) order.
//
// Semantics:
//
//	SELECT <event columns> FROM events WHERE <filter> ORDER BY run_id, seq LIMIT <limit>
//
// Example:
//
//	Select{
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: ColRunID, Value: value.String("nightly-1")},
//	    OneOf{Field: ColEvent, Values: []value.Value{value.String("add-cancel"), value.String("remove-cancel")}},
//	  }},
//	}
type Select struct {
	Filter Predicate // WHERE conditions (nil = no filter)
	Limit  int       // maximum rows (0 = no limit)
}

func (Select) queryNode() {}

// Equals compares a column to a literal.
//
//	<field> = <value>
type Equals struct {
	Field string
	Value value.Value
}

func (Equals) predicateNode() {}

// OneOf matches a column against any of several literals.
//
//	<field> IN (<values>...)
//
// An empty Values list matches nothing.
type OneOf struct {
	Field  string
	Values []value.Value
}

func (OneOf) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ItemHash returns a predicate matching events about items equal to v.
func ItemHash(v value.Value) (Predicate, error) {
	h, err := value.Hash(v)
	if err != nil {
		return nil, err
	}
	return Equals{Field: ColItemHash, Value: value.String(h)}, nil
}

// Where conjoins the non-nil predicates. A single predicate is returned
// as is.
func Where(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return And{Predicates: kept}
}
