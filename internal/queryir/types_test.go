package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartcoll/internal/value"
)

// Sealing is checked at compile time.
var (
	_ Query     = Select{}
	_ Query     = (*Select)(nil)
	_ Predicate = Equals{}
	_ Predicate = OneOf{}
	_ Predicate = And{}
)

func TestWhere(t *testing.T) {
	run := Equals{Field: ColRunID, Value: value.String("run-1")}
	event := Equals{Field: ColEvent, Value: value.String("add")}

	assert.Nil(t, Where())
	assert.Nil(t, Where(nil, nil))
	assert.Equal(t, run, Where(nil, run))
	assert.Equal(t, And{Predicates: []Predicate{run, event}}, Where(run, nil, event))
}

func TestItemHash(t *testing.T) {
	item := value.NewObject(value.P("name", value.String("Sam")))

	pred, err := ItemHash(item)
	require.NoError(t, err)

	eq, ok := pred.(Equals)
	require.True(t, ok)
	assert.Equal(t, ColItemHash, eq.Field)
	assert.Equal(t, value.String(value.MustHash(item)), eq.Value)
}

func TestColumnsCoverEventFields(t *testing.T) {
	for _, col := range []string{ColRunID, ColSeq, ColCollection, ColEvent, ColOpID, ColKind, ColPosition, ColItemHash} {
		_, ok := Columns[col]
		assert.True(t, ok, col)
	}
	assert.Equal(t, ColumnInt, Columns[ColSeq])
	assert.NotContains(t, Columns, "item")
}
