package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, "null"},
		{"string", String("hello"), `"hello"`},
		{"int", Int(-42), "-42"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := NewObject(P("b", Int(2)), P("a", Int(1)), P("c", NewArray(String("x"), Bool(true))))
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":["x",true]}`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort below U+FF5E.
	// UTF-8 byte order would put the emoji last.
	obj := Object{"\uff5e": Int(1), "\U0001F600": Int(2)}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uff5e\":1}", string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(String("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	got, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshalCanonical_EscapedBackslashKept(t *testing.T) {
	got, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := String("e\u0301")
	got, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(Object{"k": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "k"`)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `{"name":"Sam"}`, Format(NewObject(P("name", String("Sam")))))
	assert.Contains(t, Format(nil), "<invalid")
}
