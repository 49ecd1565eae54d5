package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/smartcoll/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrCollectionNameEmpty = "E101" // name is required
	ErrInvalidGuardEvent   = "E102" // guard event must be a before event
	ErrInvalidResume       = "E103" // unknown resume policy
	ErrInvalidFieldType    = "E104" // invalid schema type
	ErrDuplicateName       = "E105" // duplicate field or view name
	ErrFloatTypeForbidden  = "E106" // float types not allowed
	ErrViewNameEmpty       = "E107" // view name is required
	ErrDuplicateCollection = "E108" // two specs define the same collection
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled collection spec.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.CollectionSpec) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrCollectionNameEmpty,
		})
	}

	if spec.Schema != nil {
		errs = append(errs, validateSchema(spec.Schema)...)
	}

	for i, g := range spec.Guards {
		field := fmt.Sprintf("guards[%d]", i)

		// E102: guards only run at before events
		if g.Event != ir.EventAddBefore && g.Event != ir.EventRemoveBefore {
			errs = append(errs, ValidationError{
				Field:   field + ".event",
				Message: fmt.Sprintf("invalid guard event %q, must be %q or %q", g.Event, ir.EventAddBefore, ir.EventRemoveBefore),
				Code:    ErrInvalidGuardEvent,
			})
		}

		// E103: resume policy
		if !slices.Contains(ir.ValidResumePolicies, g.Resume) {
			errs = append(errs, ValidationError{
				Field:   field + ".resume",
				Message: fmt.Sprintf("invalid resume policy %q, must be one of never, immediate, deferred", g.Resume),
				Code:    ErrInvalidResume,
			})
		}
	}

	viewNames := make(map[string]bool)
	for i, view := range spec.Views {
		field := fmt.Sprintf("views[%d]", i)
		if strings.TrimSpace(view.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "view name is required",
				Code:    ErrViewNameEmpty,
			})
			continue
		}
		// "all" is registered for every collection.
		if viewNames[view.Name] || view.Name == "all" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate view name: %q", view.Name),
				Code:    ErrDuplicateName,
			})
		}
		viewNames[view.Name] = true
	}

	return errs
}

func validateSchema(schema *ir.ItemSchema) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateFieldType(schema.Type, "schema.type", "schema")...)

	fieldNames := make(map[string]bool)
	for i, f := range schema.Fields {
		path := fmt.Sprintf("schema.fields[%d]", i)
		if fieldNames[f.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate field name: %q", f.Name),
				Code:    ErrDuplicateName,
			})
		}
		fieldNames[f.Name] = true
		errs = append(errs, validateFieldType(f.Type, path+".type", f.Name)...)
	}

	return errs
}

// validateFieldType validates a schema type string.
func validateFieldType(fieldType, fieldPath, fieldName string) []ValidationError {
	if isFloatType(fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("float type not allowed for %q, use int", fieldName),
			Code:    ErrFloatTypeForbidden,
		}}
	}
	if !slices.Contains(ir.ValidTypes, fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("invalid type %q for %q", fieldType, fieldName),
			Code:    ErrInvalidFieldType,
		}}
	}
	return nil
}

func isFloatType(t string) bool {
	switch strings.ToLower(t) {
	case "float", "float32", "float64", "number", "double":
		return true
	}
	return false
}
