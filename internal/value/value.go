package value

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the supported item shapes.
// Only Null, String, Int, Bool, Array and Object implement it.
type Value interface {
	value() // Sealed
}

// Null is the JSON null item.
type Null struct{}

func (Null) value() {}

// String is a string item.
type String string

func (String) value() {}

// Int is an integer item. Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool is a boolean item.
type Bool bool

func (Bool) value() {}

// Array is an ordered list of values. An Array is a single item; it is never
// unrolled into multiple operations by the collection.
type Array []Value

func (Array) value() {}

// Object maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// Pair is a key/value pair for Object construction.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
// Example: NewObject(P("name", String("Sam")), P("age", Int(31)))
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject builds an Object from pairs. Later pairs win on duplicate keys.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// NewArray builds an Array from values.
func NewArray(vals ...Value) Array {
	return Array(vals)
}

// TypeName returns a short name for the value's shape, used in logs and errors.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// SortedKeys returns keys in UTF-16 code unit order (RFC 8785).
// Go's sort.Strings compares UTF-8 bytes, which orders some keys differently.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
