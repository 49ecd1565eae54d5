package queryir

import (
	"fmt"

	"github.com/roach88/smartcoll/internal/value"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when the query can be compiled as is.
	Valid bool

	// Problems describes each rejected node. Empty when Valid is true.
	Problems []string
}

// Validate checks a query before compilation.
//
// Rules:
//  1. Every predicate references a column in Columns
//  2. Every literal matches its column's type
//  3. Limit is not negative
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// Err returns the problems as one error, or nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	if len(r.Problems) == 1 {
		return fmt.Errorf("invalid query: %s", r.Problems[0])
	}
	return fmt.Errorf("invalid query: %s (and %d more)", r.Problems[0], len(r.Problems)-1)
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.Limit < 0 {
		v.addProblem("limit must be non-negative, got %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateLiteral(pred.Field, pred.Value)
	case *Equals:
		v.validateLiteral(pred.Field, pred.Value)
	case OneOf:
		v.validateOneOf(pred)
	case *OneOf:
		v.validateOneOf(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateOneOf(in OneOf) {
	if _, ok := Columns[in.Field]; !ok {
		v.addProblem("unknown column %q", in.Field)
		return
	}
	for _, val := range in.Values {
		v.validateLiteral(in.Field, val)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		if sub == nil {
			v.addProblem("nil predicate in and")
			continue
		}
		v.validatePredicate(sub)
	}
}

func (v *validator) validateLiteral(field string, val value.Value) {
	typ, ok := Columns[field]
	if !ok {
		v.addProblem("unknown column %q", field)
		return
	}
	switch val.(type) {
	case value.String:
		if typ != ColumnText {
			v.addProblem("column %q expects %s, got string", field, typ)
		}
	case value.Int:
		if typ != ColumnInt {
			v.addProblem("column %q expects %s, got int", field, typ)
		}
	default:
		v.addProblem("column %q expects %s, got %s", field, typ, value.TypeName(val))
	}
}
