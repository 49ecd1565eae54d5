package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/smartcoll/internal/ir"
)

// CompileCollection parses a CUE value into a CollectionSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the collection struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`collection: people: { ... }`)
//	spec, err := CompileCollection(v.LookupPath(cue.ParsePath("collection.people")))
//
// CompileCollection checks structure only. Run Validate on the result for
// the semantic rules.
func CompileCollection(v cue.Value) (*ir.CollectionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.CollectionSpec{
		Guards: []ir.Guard{},
		Views:  []ir.ViewSpec{},
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].Unquoted()
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, &CompileError{Field: "name", Message: "name must be a string", Pos: nameVal.Pos()}
		}
		spec.Name = name
	}

	var err error
	spec.Schema, err = parseSchema(v)
	if err != nil {
		return nil, err
	}

	spec.Guards, err = parseGuards(v)
	if err != nil {
		return nil, err
	}

	spec.Views, err = parseViews(v)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// parseSchema extracts the item schema. A missing schema accepts any item.
func parseSchema(v cue.Value) (*ir.ItemSchema, error) {
	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemaVal.Exists() {
		return nil, nil
	}

	typ, err := kindToType(schemaVal, "schema")
	if err != nil {
		return nil, err
	}
	schema := &ir.ItemSchema{Type: typ}

	strictVal := v.LookupPath(cue.ParsePath("strict"))
	if strictVal.Exists() {
		strict, err := strictVal.Bool()
		if err != nil {
			return nil, &CompileError{Field: "strict", Message: "strict must be a bool", Pos: strictVal.Pos()}
		}
		schema.Closed = strict
	}

	if typ != ir.TypeObject {
		return schema, nil
	}

	iter, err := schemaVal.Fields(cue.Optional(true))
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		fieldType, err := kindToType(iter.Value(), "schema."+name)
		if err != nil {
			return nil, err
		}
		schema.Fields = append(schema.Fields, ir.FieldSchema{
			Name:     name,
			Type:     fieldType,
			Optional: iter.IsOptional(),
		})
	}

	return schema, nil
}

// kindToType maps a CUE constraint to a schema type name.
// Numbers that admit floats are rejected.
func kindToType(v cue.Value, field string) (string, error) {
	k := v.IncompleteKind()
	switch k {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.ListKind:
		return ir.TypeArray, nil
	case cue.StructKind:
		return ir.TypeObject, nil
	case cue.NullKind:
		return ir.TypeNull, nil
	case cue.TopKind:
		return ir.TypeAny, nil
	}
	if k&cue.FloatKind != 0 {
		return "", &CompileError{
			Field:   field,
			Message: "float types are not allowed, use int",
			Pos:     v.Pos(),
		}
	}
	return "", &CompileError{
		Field:   field,
		Message: fmt.Sprintf("unsupported type %s", k),
		Pos:     v.Pos(),
	}
}

// parseGuards extracts guard rules in declaration order.
func parseGuards(v cue.Value) ([]ir.Guard, error) {
	guards := []ir.Guard{}

	guardsVal := v.LookupPath(cue.ParsePath("guards"))
	if !guardsVal.Exists() {
		return guards, nil
	}

	iter, err := guardsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "guards", Message: "guards must be a list", Pos: guardsVal.Pos()}
	}

	for i := 0; iter.Next(); i++ {
		guard, err := parseGuard(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		guards = append(guards, guard)
	}

	return guards, nil
}

func parseGuard(v cue.Value, i int) (ir.Guard, error) {
	field := fmt.Sprintf("guards[%d]", i)
	guard := ir.Guard{Resume: ir.ResumeNever}

	eventVal := v.LookupPath(cue.ParsePath("event"))
	if !eventVal.Exists() {
		return guard, &CompileError{
			Field:   field + ".event",
			Message: "guard requires 'event' field (\"add-before\" or \"remove-before\")",
			Pos:     v.Pos(),
		}
	}
	event, err := eventVal.String()
	if err != nil {
		return guard, formatCUEError(err)
	}
	guard.Event = event

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return guard, formatCUEError(err)
		}
		guard.Name = name
	}

	if whenVal := v.LookupPath(cue.ParsePath("when")); whenVal.Exists() {
		when, err := cueToValue(whenVal, field+".when")
		if err != nil {
			return guard, err
		}
		guard.When = when
	}

	if resumeVal := v.LookupPath(cue.ParsePath("resume")); resumeVal.Exists() {
		resume, err := resumeVal.String()
		if err != nil {
			return guard, formatCUEError(err)
		}
		guard.Resume = ir.ResumePolicy(resume)
	}

	return guard, nil
}

// parseViews extracts named views in declaration order.
func parseViews(v cue.Value) ([]ir.ViewSpec, error) {
	views := []ir.ViewSpec{}

	viewsVal := v.LookupPath(cue.ParsePath("views"))
	if !viewsVal.Exists() {
		return views, nil
	}

	iter, err := viewsVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: "views", Message: "views must be a struct", Pos: viewsVal.Pos()}
	}

	for iter.Next() {
		view := ir.ViewSpec{Name: iter.Selector().Unquoted()}
		whereVal := iter.Value().LookupPath(cue.ParsePath("where"))
		if whereVal.Exists() {
			where, err := cueToValue(whereVal, "views."+view.Name+".where")
			if err != nil {
				return nil, err
			}
			view.Where = where
		}
		views = append(views, view)
	}

	return views, nil
}

// CompileError represents a structural error in a CUE collection spec.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
