package value

import "bytes"

// Equal reports whether two values are structurally equal.
//
// Strings are compared after NFC normalization, so precomposed and decomposed
// spellings of the same text are the same item. Values that cannot be serialized are
// never equal to anything.
func Equal(a, b Value) bool {
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Match reports whether item satisfies a removal pattern.
//
// An Object pattern matches any Object item that carries every pattern key
// with an equal value; extra keys on the item are ignored. Any other pattern
// matches by Equal.
func Match(item, pattern Value) bool {
	p, ok := pattern.(Object)
	if !ok {
		return Equal(item, pattern)
	}
	obj, ok := item.(Object)
	if !ok {
		return false
	}
	for k, want := range p {
		got, present := obj[k]
		if !present || !Equal(got, want) {
			return false
		}
	}
	return true
}

// IndexOf returns the index of the first item structurally equal to v, or -1.
func IndexOf(items []Value, v Value) int {
	for i, item := range items {
		if Equal(item, v) {
			return i
		}
	}
	return -1
}

// IndexMatch returns the index of the first item matching pattern, or -1.
func IndexMatch(items []Value, pattern Value) int {
	for i, item := range items {
		if Match(item, pattern) {
			return i
		}
	}
	return -1
}
