package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartcoll/internal/collection"
	"github.com/roach88/smartcoll/internal/value"
)

func letters(vals ...string) *collection.Collection {
	c := collection.New("letters")
	for _, v := range vals {
		c.Add(value.String(v))
	}
	return c
}

func TestBind_UnknownFeature(t *testing.T) {
	_, err := Bind(letters(), "where", "shuffle")
	assert.EqualError(t, err, `feature "shuffle" not found`)
}

func TestBound_CallUnbound(t *testing.T) {
	b, err := Bind(letters("a"), "size")
	require.NoError(t, err)
	assert.True(t, b.Has("size"))
	assert.False(t, b.Has("first"))

	_, err = b.Call("first")
	assert.EqualError(t, err, `feature "first" not bound on "letters"`)
}

func TestBound_SeesCurrentItems(t *testing.T) {
	c := letters("a", "b")
	b, err := Bind(c, "size")
	require.NoError(t, err)

	n, err := b.Call("size")
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), n)

	c.Add(value.String("c"))
	n, err = b.Call("size")
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), n)
}

func TestFeatures(t *testing.T) {
	c := people()
	c.Add(value.String("loose"))
	b, err := Bind(c, FeatureNames()...)
	require.NoError(t, err)

	age36 := value.NewObject(value.P("age", value.Int(36)))
	items := c.Items()
	ada := items[0]

	tests := []struct {
		name    string
		feature string
		args    []value.Value
		want    value.Value
	}{
		{"where", "where", []value.Value{age36}, value.NewArray(items[0], items[2])},
		{"filter alias", "filter", []value.Value{age36}, value.NewArray(items[0], items[2])},
		{"findWhere", "findWhere", []value.Value{age36}, ada},
		{"findWhere miss", "findWhere", []value.Value{value.NewObject(value.P("age", value.Int(99)))}, value.Null{}},
		{"reject", "reject", []value.Value{age36}, value.NewArray(items[1], items[3])},
		{"contains", "contains", []value.Value{value.String("loose")}, value.Bool(true)},
		{"contains miss", "contains", []value.Value{value.String("tight")}, value.Bool(false)},
		{"indexOf", "indexOf", []value.Value{value.String("loose")}, value.Int(3)},
		{"first", "first", nil, ada},
		{"first n", "first", []value.Value{value.Int(2)}, value.NewArray(items[0], items[1])},
		{"first n over", "first", []value.Value{value.Int(10)}, value.Array(items)},
		{"last", "last", nil, value.String("loose")},
		{"last n", "last", []value.Value{value.Int(1)}, value.NewArray(value.String("loose"))},
		{"size", "size", nil, value.Int(4)},
		{"pluck", "pluck", []value.Value{value.String("name")},
			value.NewArray(value.String("ada"), value.String("bob"), value.String("cy"), value.Null{})},
		{"without", "without", []value.Value{value.String("loose"), ada}, value.NewArray(items[1], items[2])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Call(tt.feature, tt.args...)
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "want %s, got %s", value.Format(tt.want), value.Format(got))
		})
	}
}

func TestFeatures_Empty(t *testing.T) {
	b, err := Bind(letters(), "first", "last")
	require.NoError(t, err)

	first, err := b.Call("first")
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, first)

	last, err := b.Call("last", value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, value.Array{}, last)
}

func TestFeatures_Uniq(t *testing.T) {
	b, err := Bind(letters("a", "b", "a", "c", "b"), "uniq")
	require.NoError(t, err)

	got, err := b.Call("uniq")
	require.NoError(t, err)
	assert.Equal(t, value.NewArray(value.String("a"), value.String("b"), value.String("c")), got)
}

func TestFeatures_UniqWithout_StructuralEquality(t *testing.T) {
	c := collection.New("shapes")
	first := value.NewObject(value.P("x", value.Int(1)), value.P("tags", value.NewArray(value.String("a"))))
	same := value.NewObject(value.P("tags", value.NewArray(value.String("a"))), value.P("x", value.Int(1)))
	other := value.NewObject(value.P("x", value.Int(2)))
	c.Add(first, other, same, value.Int(1))
	b, err := Bind(c, "uniq", "without")
	require.NoError(t, err)

	got, err := b.Call("uniq")
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewArray(first, other, value.Int(1)), got), "got %s", value.Format(got))

	got, err = b.Call("without", same)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewArray(other, value.Int(1)), got), "got %s", value.Format(got))

	got, err = b.Call("without")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFeatures_IndexOfMiss(t *testing.T) {
	b, err := Bind(letters("a", "b"), "indexOf", "find")
	require.NoError(t, err)

	got, err := b.Call("indexOf", value.String("z"))
	require.NoError(t, err)
	assert.Equal(t, value.Int(-1), got)

	got, err = b.Call("find", value.String("b"))
	require.NoError(t, err)
	assert.Equal(t, value.String("b"), got, "find takes a match pattern")
}

func TestFeatures_BadArguments(t *testing.T) {
	b, err := Bind(letters("a"), "where", "first", "pluck", "size")
	require.NoError(t, err)

	_, err = b.Call("where")
	assert.EqualError(t, err, `feature "where": expects 1 argument(s), got 0`)

	_, err = b.Call("first", value.String("two"))
	assert.EqualError(t, err, `feature "first": count must be a non-negative int, got string`)

	_, err = b.Call("pluck", value.Int(1))
	assert.EqualError(t, err, `feature "pluck": key must be a string, got int`)

	_, err = b.Call("size", value.Int(1))
	assert.EqualError(t, err, `feature "size": expects 0 argument(s), got 1`)
}
