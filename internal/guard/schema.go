package guard

import (
	"fmt"

	"github.com/roach88/smartcoll/internal/ir"
	"github.com/roach88/smartcoll/internal/value"
)

// SchemaError describes why an item does not satisfy an item schema.
type SchemaError struct {
	Field   string // empty for the item itself
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CheckItem reports whether v satisfies schema. A nil schema accepts
// every item.
func CheckItem(schema *ir.ItemSchema, v value.Value) error {
	if schema == nil {
		return nil
	}
	if !typeMatches(schema.Type, v) {
		return &SchemaError{Message: fmt.Sprintf("expected %s, got %s", schema.Type, value.TypeName(v))}
	}
	if schema.Type != ir.TypeObject {
		return nil
	}

	obj := v.(value.Object)
	declared := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		declared[f.Name] = true
		got, ok := obj[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return &SchemaError{Field: f.Name, Message: "required field missing"}
		}
		if !typeMatches(f.Type, got) {
			return &SchemaError{Field: f.Name, Message: fmt.Sprintf("expected %s, got %s", f.Type, value.TypeName(got))}
		}
	}
	if schema.Closed {
		for _, k := range obj.SortedKeys() {
			if !declared[k] {
				return &SchemaError{Field: k, Message: "field not allowed"}
			}
		}
	}
	return nil
}

func typeMatches(typ string, v value.Value) bool {
	switch typ {
	case ir.TypeAny, "":
		return v != nil
	case ir.TypeString:
		_, ok := v.(value.String)
		return ok
	case ir.TypeInt:
		_, ok := v.(value.Int)
		return ok
	case ir.TypeBool:
		_, ok := v.(value.Bool)
		return ok
	case ir.TypeArray:
		_, ok := v.(value.Array)
		return ok
	case ir.TypeObject:
		_, ok := v.(value.Object)
		return ok
	case ir.TypeNull:
		_, ok := v.(value.Null)
		return ok
	default:
		return false
	}
}
