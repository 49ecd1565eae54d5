package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	item1 = NewObject(P("a", String("a")), P("b", String("b")))
	item2 = NewObject(P("c", String("c")), P("d", String("d")))
	item3 = NewObject(P("a", String("e")), P("b", String("f")))
	item4 = NewObject(P("a", String("a")), P("b", String("f")))
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal(item1, NewObject(P("b", String("b")), P("a", String("a")))))
	assert.False(t, Equal(item1, item4))
	assert.True(t, Equal(String("\u00e9"), String("e\u0301")))
	assert.False(t, Equal(Int(1), String("1")))
	assert.True(t, Equal(Null{}, Null{}))
	assert.False(t, Equal(nil, nil), "nil is not a valid item")
}

func TestMatch_ObjectSubset(t *testing.T) {
	assert.True(t, Match(item1, NewObject(P("a", String("a")))))
	assert.True(t, Match(item4, NewObject(P("a", String("a")))))
	assert.False(t, Match(item3, NewObject(P("a", String("a")))))
	assert.True(t, Match(item2, item2))
	assert.False(t, Match(String("a"), NewObject(P("a", String("a")))))
}

func TestMatch_EmptyObjectMatchesAnyObject(t *testing.T) {
	assert.True(t, Match(item1, Object{}))
	assert.False(t, Match(String("x"), Object{}))
}

func TestMatch_Scalar(t *testing.T) {
	assert.True(t, Match(String("item1"), String("item1")))
	assert.False(t, Match(String("item1"), String("item2")))
}

func TestIndexOf(t *testing.T) {
	items := []Value{item1, item2, item1}
	assert.Equal(t, 0, IndexOf(items, item1))
	assert.Equal(t, 1, IndexOf(items, item2))
	assert.Equal(t, -1, IndexOf(items, item3))
}

func TestIndexMatch(t *testing.T) {
	items := []Value{item3, item2, item4}
	assert.Equal(t, 2, IndexMatch(items, NewObject(P("a", String("a")))))
	assert.Equal(t, 1, IndexMatch(items, NewObject(P("c", String("c")), P("d", String("d")))))
	assert.Equal(t, -1, IndexMatch(items, NewObject(P("z", Int(1)))))
}

func TestHash_StableForEqualItems(t *testing.T) {
	h1 := MustHash(item1)
	h2 := MustHash(NewObject(P("b", String("b")), P("a", String("a"))))
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, MustHash(item4))
}
