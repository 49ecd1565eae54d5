package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/smartcoll/internal/value"
)

// cueToValue converts a concrete CUE value into an item value.
func cueToValue(v cue.Value, field string) (value.Value, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   field,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "integer out of int64 range", Pos: v.Pos()}
		}
		return value.Int(i), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.String(s), nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "float values are not allowed", Pos: v.Pos()}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := value.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := value.Object{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := cueToValue(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	}

	return nil, &CompileError{
		Field:   field,
		Message: fmt.Sprintf("unsupported value kind %s", v.Kind()),
		Pos:     v.Pos(),
	}
}
