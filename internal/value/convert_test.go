package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	got, err := FromAny(map[string]any{
		"name": "Sam",
		"age":  31,
		"tags": []any{"a", true, nil},
		"w":    float64(80),
	})
	require.NoError(t, err)
	want := NewObject(
		P("name", String("Sam")),
		P("age", Int(31)),
		P("tags", NewArray(String("a"), Bool(true), Null{})),
		P("w", Int(80)),
	)
	assert.True(t, Equal(want, got))
}

func TestFromAny_RejectsFloat(t *testing.T) {
	_, err := FromAny(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")

	_, err = FromAny(json.Number("2.0"))
	require.Error(t, err)
}

func TestFromAny_RejectsUnsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestToAny_RoundTrip(t *testing.T) {
	in := NewObject(P("n", Int(1)), P("l", NewArray(String("x"), Null{})))
	out := ToAny(in)
	back, err := FromAny(out)
	require.NoError(t, err)
	assert.True(t, Equal(in, back))
}

func TestParse(t *testing.T) {
	v, err := Parse([]byte(`{"a":"a","n":9007199254740993}`))
	require.NoError(t, err)
	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Int(9007199254740993), obj["n"])

	_, err = Parse([]byte(`{"f":1.25}`))
	require.Error(t, err)

	_, err = Parse([]byte(`1 2`))
	require.Error(t, err)
}
