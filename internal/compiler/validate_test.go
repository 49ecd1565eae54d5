package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/smartcoll/internal/ir"
)

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValidSpec(t *testing.T) {
	spec := &ir.CollectionSpec{
		Name:   "people",
		Schema: &ir.ItemSchema{Type: ir.TypeObject, Fields: []ir.FieldSchema{{Name: "name", Type: ir.TypeString}}},
		Guards: []ir.Guard{{Event: ir.EventAddBefore, Resume: ir.ResumeImmediate}},
		Views:  []ir.ViewSpec{{Name: "adults"}},
	}

	assert.Empty(t, Validate(spec))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := &ir.CollectionSpec{
		Name: " ",
		Schema: &ir.ItemSchema{Type: ir.TypeObject, Fields: []ir.FieldSchema{
			{Name: "a", Type: "float64"},
			{Name: "a", Type: "decimal"},
		}},
		Guards: []ir.Guard{
			{Event: "add", Resume: ir.ResumeNever},
			{Event: ir.EventRemoveBefore, Resume: "later"},
		},
		Views: []ir.ViewSpec{{Name: "all"}, {Name: ""}, {Name: "x"}, {Name: "x"}},
	}

	errs := Validate(spec)

	assert.Equal(t, []string{
		ErrCollectionNameEmpty,
		ErrFloatTypeForbidden,
		ErrDuplicateName, ErrInvalidFieldType,
		ErrInvalidGuardEvent,
		ErrInvalidResume,
		ErrDuplicateName, ErrViewNameEmpty, ErrDuplicateName,
	}, codes(errs))
	assert.Equal(t, `[E102] guards[0].event: invalid guard event "add", must be "add-before" or "remove-before"`, errs[4].Error())
}

func TestValidationErrorWithLine(t *testing.T) {
	err := ValidationError{Field: "name", Message: "required", Code: ErrCollectionNameEmpty, Line: 3}
	assert.Equal(t, "[E101] line 3: name: required", err.Error())
}
