package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartcoll/internal/ir"
	"github.com/roach88/smartcoll/internal/value"
)

func compileFromString(t *testing.T, src, path string) (*ir.CollectionSpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileCollection(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileCollectionBasic(t *testing.T) {
	spec, err := compileFromString(t, `
		collection: people: {
			schema: {
				name: string
				age?: int
				tags?: [...string]
				meta?: {...}
				admin: bool
				note?: _
			}
			strict: true

			guards: [
				{ event: "add-before", when: { name: "Sam" }, resume: "deferred", name: "hold-sam" },
				{ event: "remove-before" },
			]

			views: {
				admins: where: { admin: true }
				everyone: {}
			}
		}
	`, "collection.people")
	require.NoError(t, err)

	assert.Equal(t, "people", spec.Name)
	require.NotNil(t, spec.Schema)
	assert.Equal(t, ir.TypeObject, spec.Schema.Type)
	assert.True(t, spec.Schema.Closed)
	assert.Equal(t, []ir.FieldSchema{
		{Name: "name", Type: ir.TypeString},
		{Name: "age", Type: ir.TypeInt, Optional: true},
		{Name: "tags", Type: ir.TypeArray, Optional: true},
		{Name: "meta", Type: ir.TypeObject, Optional: true},
		{Name: "admin", Type: ir.TypeBool},
		{Name: "note", Type: ir.TypeAny, Optional: true},
	}, spec.Schema.Fields)

	require.Len(t, spec.Guards, 2)
	assert.Equal(t, "hold-sam", spec.Guards[0].Name)
	assert.Equal(t, ir.EventAddBefore, spec.Guards[0].Event)
	assert.Equal(t, ir.ResumeDeferred, spec.Guards[0].Resume)
	assert.True(t, value.Equal(value.NewObject(value.P("name", value.String("Sam"))), spec.Guards[0].When))
	assert.Equal(t, ir.ResumeNever, spec.Guards[1].Resume, "default resume policy")
	assert.Nil(t, spec.Guards[1].When)

	require.Len(t, spec.Views, 2)
	assert.Equal(t, "admins", spec.Views[0].Name)
	assert.True(t, value.Equal(value.NewObject(value.P("admin", value.Bool(true))), spec.Views[0].Where))
	assert.Nil(t, spec.Views[1].Where)
}

func TestCompileCollectionNameOverride(t *testing.T) {
	spec, err := compileFromString(t, `
		collection: p: { name: "people" }
	`, "collection.p")
	require.NoError(t, err)

	assert.Equal(t, "people", spec.Name)
	assert.Nil(t, spec.Schema, "no schema accepts any item")
	assert.Empty(t, spec.Guards)
	assert.Empty(t, spec.Views)
}

func TestCompileCollectionScalarSchema(t *testing.T) {
	spec, err := compileFromString(t, `
		collection: words: schema: string
	`, "collection.words")
	require.NoError(t, err)

	assert.Equal(t, &ir.ItemSchema{Type: ir.TypeString}, spec.Schema)
}

func TestCompileCollectionRejectsFloat(t *testing.T) {
	_, err := compileFromString(t, `
		collection: prices: schema: { amount: float }
	`, "collection.prices")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema.amount")
	assert.Contains(t, err.Error(), "float")
}

func TestCompileCollectionRejectsNumber(t *testing.T) {
	_, err := compileFromString(t, `
		collection: prices: schema: { amount: number }
	`, "collection.prices")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "float types are not allowed")
}

func TestCompileCollectionRejectsUnion(t *testing.T) {
	_, err := compileFromString(t, `
		collection: mixed: schema: { id: string | int }
	`, "collection.mixed")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestCompileCollectionGuardRequiresEvent(t *testing.T) {
	_, err := compileFromString(t, `
		collection: c: guards: [{ resume: "never" }]
	`, "collection.c")

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "guards[0].event", ce.Field)
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileCollectionGuardsMustBeList(t *testing.T) {
	_, err := compileFromString(t, `
		collection: c: guards: { event: "add-before" }
	`, "collection.c")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "guards must be a list")
}

func TestCompileCollectionWhenMustBeConcrete(t *testing.T) {
	_, err := compileFromString(t, `
		collection: c: guards: [{ event: "add-before", when: { name: string } }]
	`, "collection.c")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "guards[0].when.name")
	assert.Contains(t, err.Error(), "concrete")
}

func TestCompileCollectionWhenRejectsFloat(t *testing.T) {
	_, err := compileFromString(t, `
		collection: c: views: cheap: where: { price: 1.5 }
	`, "collection.c")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "float values are not allowed")
}

func TestCueToValueNested(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`{ a: [1, "two", true, null], b: { c: -3 } }`)
	require.NoError(t, v.Err())

	got, err := cueToValue(v, "root")
	require.NoError(t, err)

	want := value.NewObject(
		value.P("a", value.NewArray(value.Int(1), value.String("two"), value.Bool(true), value.Null{})),
		value.P("b", value.NewObject(value.P("c", value.Int(-3)))),
	)
	assert.True(t, value.Equal(want, got), "got %s", value.Format(got))
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "guards", Message: "bad"}
	assert.Equal(t, "guards: bad", err.Error())
}
